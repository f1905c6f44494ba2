package implementation

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	rdrmodels "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models"
	interfaces "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Repository/Interfaces"
)

type MongoTrackingRepository struct {
	coll *mongo.Collection
}

var _ interfaces.TrackingRepository = (*MongoTrackingRepository)(nil)

func NewMongoTrackingRepository(coll *mongo.Collection) *MongoTrackingRepository {
	return &MongoTrackingRepository{coll: coll}
}

// EnsureIndexes creates the compound index backing history queries.
func (r *MongoTrackingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "device_mac", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return err
}

// AppendSamples persists the batch in a single InsertMany call; on failure
// nothing is written.
func (r *MongoTrackingRepository) AppendSamples(ctx context.Context, samples []rdrmodels.TrackingSample) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	docs := make([]interface{}, 0, len(samples))
	for i := range samples {
		docs = append(docs, samples[i])
	}

	res, err := r.coll.InsertMany(ctx, docs)
	if err != nil {
		return 0, err
	}
	return len(res.InsertedIDs), nil
}

func (r *MongoTrackingRepository) GetHistory(ctx context.Context, params interfaces.TrackingQueryParams) ([]rdrmodels.TrackingSample, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"device_mac": params.DeviceMac,
		"created_at": bson.M{"$gte": params.From, "$lte": params.To},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var samples []rdrmodels.TrackingSample
	if err := cursor.All(ctx, &samples); err != nil {
		return nil, err
	}
	return samples, nil
}
