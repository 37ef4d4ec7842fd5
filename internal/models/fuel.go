package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReadingSource identifies where an odometer observation came from.
type ReadingSource string

const (
	SourceFuelFill ReadingSource = "FUEL_FILL"
	SourceManual   ReadingSource = "MANUAL"
)

// FuelFill is an immutable historical fuel-fill record. At most one row may
// exist per (vehicle, fill_date, odometer_km).
type FuelFill struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID  primitive.ObjectID `bson:"vehicle_id" json:"vehicle_id"`
	FillDate   time.Time          `bson:"fill_date" json:"fill_date"`
	OdometerKM int                `bson:"odometer_km" json:"odometer_km"`
	Gallons    float64            `bson:"gallons" json:"gallons"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	SourceFile string             `bson:"source_file,omitempty" json:"source_file,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// OdometerReading records every accepted or rejected odometer observation.
// An anomaly reading is written instead of a fuel fill when the observed
// value is lower than the vehicle's trusted odometer.
type OdometerReading struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID   primitive.ObjectID `bson:"vehicle_id" json:"vehicle_id"`
	ReadingKM   int                `bson:"reading_km" json:"reading_km"`
	ReadingDate time.Time          `bson:"reading_date" json:"reading_date"`
	Source      ReadingSource      `bson:"source" json:"source"`
	IsAnomaly   bool               `bson:"is_anomaly" json:"is_anomaly"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// FuelUploadLog tracks processed fuel-fill files so the same spreadsheet is
// never ingested twice.
type FuelUploadLog struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OriginalFilename string             `bson:"original_filename" json:"original_filename"`
	SHA256           string             `bson:"sha256" json:"sha256"`
	SizeBytes        int64              `bson:"size_bytes" json:"size_bytes"`
	RowsProcessed    int                `bson:"rows_processed" json:"rows_processed"`
	VehiclesUpdated  int                `bson:"vehicles_updated" json:"vehicles_updated"`
	ProcessedAt      time.Time          `bson:"processed_at" json:"processed_at"`
}

// FuelFillRow is a parsed, pre-normalized spreadsheet row handed to the
// odometer ingestor by the upload layer.
type FuelFillRow struct {
	Plate      string    `json:"plate"`
	Date       time.Time `json:"date"`
	OdometerKM int       `json:"odometer_km"`
	Gallons    float64   `json:"gallons"`
	Notes      string    `json:"notes,omitempty"`
}

// NoveltyRow is a parsed free-text driver report.
type NoveltyRow struct {
	Plate string `json:"plate"`
	Text  string `json:"text"`
}

// BatchSummary aggregates the outcome of one fuel-fill batch.
type BatchSummary struct {
	RowsRead        int `json:"rows_read"`
	Processed       int `json:"processed"`
	NewReadings     int `json:"new_readings"`
	VehiclesUpdated int `json:"vehicles_updated"` // distinct vehicles whose odometer advanced
	Anomalies       int `json:"anomalies"`
	NotFound        int `json:"not_found"`
	Rejected        int `json:"rejected"`
}

// NoveltySummary aggregates the outcome of one novelty batch.
type NoveltySummary struct {
	RowsRead       int `json:"rows_read"`
	Matched        int `json:"matched"`
	Invalidated    int `json:"invalidated"`
	AlreadyInvalid int `json:"already_invalid"`
	NotFound       int `json:"not_found"`
}
