package rdrmodels

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrackingSample is one radar detection persisted from a device sync batch.
// Samples are immutable once written; retention is handled outside this
// service.
type TrackingSample struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	DeviceMac  string             `bson:"device_mac" json:"device_mac"`
	BatchID    string             `bson:"batch_id" json:"batch_id"`
	TargetID   int                `bson:"target_id" json:"target_id"`
	PosX       int                `bson:"pos_x" json:"pos_x"`
	PosY       int                `bson:"pos_y" json:"pos_y"`
	Speed      int                `bson:"speed" json:"speed"`
	Resolution int                `bson:"resolution" json:"resolution"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// IsSentinel reports whether the sample is the firmware's all-zero
// "no detection" placeholder. Sentinels are counted and discarded, never
// persisted.
func (s TrackingSample) IsSentinel() bool {
	return s.PosX == 0 && s.PosY == 0 && s.Speed == 0 && s.Resolution == 0
}

// NewBatchID builds the server-side fallback batch identifier for devices
// that do not supply one.
func NewBatchID(t time.Time) string {
	return "batch_" + t.Format("20060102150405")
}
