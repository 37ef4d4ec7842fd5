package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AlertType classifies an alert.
type AlertType string

const (
	AlertDocExpiration        AlertType = "DOC_EXPIRATION"
	AlertLowStock             AlertType = "LOW_STOCK"
	AlertPreventiveDue        AlertType = "PREVENTIVE_DUE"
	AlertUrgentOrder          AlertType = "URGENT_OT"
	AlertOdometerInconsistent AlertType = "ODOMETER_INCONSISTENT"
	AlertOdometerUnavailable  AlertType = "ODOMETER_UNAVAILABLE"
)

// Severity grades an alert.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Alert is a condition surfaced to operators. Seen=false means the condition
// is currently active; closing an alert sets Seen=true.
//
// Slot disambiguates multiple alerts of the same type on one vehicle, e.g.
// the SOAT and RTM document expirations. At most one open alert exists per
// (alert_type, related_vehicle_id, slot) — the upsert engine maintains this,
// with a partial unique index as the backstop.
type Alert struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	AlertType        AlertType           `bson:"alert_type" json:"alert_type"`
	Severity         Severity            `bson:"severity" json:"severity"`
	Message          string              `bson:"message" json:"message"`
	RelatedVehicleID *primitive.ObjectID `bson:"related_vehicle_id,omitempty" json:"related_vehicle_id,omitempty"`
	Slot             string              `bson:"slot,omitempty" json:"slot,omitempty"`
	Seen             bool                `bson:"seen" json:"seen"`
	CreatedAt        time.Time           `bson:"created_at" json:"created_at"`
}
