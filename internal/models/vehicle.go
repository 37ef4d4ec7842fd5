package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FuelType identifies which maintenance manual applies to a vehicle.
type FuelType string

const (
	FuelDiesel   FuelType = "DIESEL"
	FuelGasoline FuelType = "GASOLINE"
)

// OdometerStatus marks whether the current odometer reading can be trusted
// for distance-based scheduling.
type OdometerStatus string

const (
	OdometerValid   OdometerStatus = "VALID"
	OdometerInvalid OdometerStatus = "INVALID" // reported broken/stuck in novelties
)

// Vehicle represents a fleet vehicle.
type Vehicle struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Plate             string             `bson:"plate" json:"plate"` // uppercase, trimmed, no hyphens
	VIN               string             `bson:"vin,omitempty" json:"vin,omitempty"`
	Brand             string             `bson:"brand" json:"brand"`
	Line              string             `bson:"line" json:"line"`
	Year              int                `bson:"year" json:"year"`
	FuelType          FuelType           `bson:"fuel_type" json:"fuel_type"`
	CurrentOdometerKM int                `bson:"current_odometer_km" json:"current_odometer_km"`
	OdometerStatus    OdometerStatus     `bson:"odometer_status" json:"odometer_status"`
	SOATDueDate       *time.Time         `bson:"soat_due_date,omitempty" json:"soat_due_date,omitempty"`
	RTMDueDate        *time.Time         `bson:"rtm_due_date,omitempty" json:"rtm_due_date,omitempty"`
	Notes             string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
}

// NormalizePlate converts a raw plate into the canonical lookup key:
// uppercase, surrounding whitespace trimmed, hyphens stripped.
func NormalizePlate(plate string) string {
	plate = strings.ToUpper(strings.TrimSpace(plate))
	return strings.ReplaceAll(plate, "-", "")
}

// IsValidFuelType checks if a fuel type is one of the known values.
func IsValidFuelType(ft FuelType) bool {
	switch ft {
	case FuelDiesel, FuelGasoline:
		return true
	default:
		return false
	}
}
