package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaintenanceManual is the reference schedule of preventive tasks for one
// fuel type.
type MaintenanceManual struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"` // unique
	FuelType FuelType           `bson:"fuel_type" json:"fuel_type"`
}

// ManualTask is a single task inside a manual, keyed by its kilometer
// milestone. Tasks are always consumed sorted ascending by KMInterval.
type ManualTask struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ManualID    primitive.ObjectID `bson:"manual_id" json:"manual_id"`
	KMInterval  int                `bson:"km_interval" json:"km_interval"`
	Description string             `bson:"description" json:"description"`
}

// MaintenancePlan binds one vehicle to one manual plus its rolling service
// baseline. Exactly one plan exists per vehicle.
type MaintenancePlan struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	VehicleID       primitive.ObjectID  `bson:"vehicle_id" json:"vehicle_id"` // unique
	ManualID        *primitive.ObjectID `bson:"manual_id,omitempty" json:"manual_id,omitempty"`
	LastServiceKM   int                 `bson:"last_service_km" json:"last_service_km"`
	LastServiceDate *time.Time          `bson:"last_service_date,omitempty" json:"last_service_date,omitempty"`
	IsActive        bool                `bson:"is_active" json:"is_active"` // activated by the first completed preventive order
	CreatedAt       time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time           `bson:"updated_at" json:"updated_at"`
}

// WorkOrderType distinguishes preventive from corrective orders.
type WorkOrderType string

const (
	OrderPreventive WorkOrderType = "PREVENTIVE"
	OrderCorrective WorkOrderType = "CORRECTIVE"
)

// WorkOrderStatus is the subset of order states the maintenance core reacts to.
type WorkOrderStatus string

const (
	OrderScheduled WorkOrderStatus = "SCHEDULED"
	OrderCompleted WorkOrderStatus = "COMPLETED"
	OrderCancelled WorkOrderStatus = "CANCELLED"
)

// WorkOrder carries the fields the plan lifecycle needs from a completed
// preventive order. The full order workflow lives in the workshop layer.
type WorkOrder struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID         primitive.ObjectID `bson:"vehicle_id" json:"vehicle_id"`
	OrderType         WorkOrderType      `bson:"order_type" json:"order_type"`
	Status            WorkOrderStatus    `bson:"status" json:"status"`
	Description       string             `bson:"description,omitempty" json:"description,omitempty"`
	OdometerAtService int                `bson:"odometer_at_service,omitempty" json:"odometer_at_service,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
}
