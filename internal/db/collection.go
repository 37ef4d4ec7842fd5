package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned by Find* methods when no document matches.
var ErrNotFound = errors.New("not found")

// VehicleStore defines the interface for vehicle persistence.
type VehicleStore interface {
	InsertVehicle(ctx context.Context, v models.Vehicle) (primitive.ObjectID, error)
	FindVehicleByPlate(ctx context.Context, plate string) (*models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id primitive.ObjectID) (*models.Vehicle, error)
	FindVehicles(ctx context.Context) ([]models.Vehicle, error)
	// SetOdometer advances the trusted odometer. Implementations must keep
	// the value monotonic: a lower km than the stored one is a no-op.
	SetOdometer(ctx context.Context, id primitive.ObjectID, km int) error
	SetOdometerStatus(ctx context.Context, id primitive.ObjectID, status models.OdometerStatus) error
}

// FuelStore defines the interface for fuel-fill and odometer-reading history.
type FuelStore interface {
	FuelFillExists(ctx context.Context, vehicleID primitive.ObjectID, date time.Time, km int) (bool, error)
	InsertFuelFill(ctx context.Context, f models.FuelFill) error
	InsertOdometerReading(ctx context.Context, r models.OdometerReading) error
	OdometerReadingExists(ctx context.Context, vehicleID primitive.ObjectID, date time.Time, km int) (bool, error)
	FindUploadBySHA256(ctx context.Context, sha string) (*models.FuelUploadLog, error)
	InsertUploadLog(ctx context.Context, l models.FuelUploadLog) error
}

// ManualStore defines the interface for maintenance manual reference data.
type ManualStore interface {
	InsertManual(ctx context.Context, m models.MaintenanceManual) (primitive.ObjectID, error)
	FindManualByID(ctx context.Context, id primitive.ObjectID) (*models.MaintenanceManual, error)
	FindManualByName(ctx context.Context, name string) (*models.MaintenanceManual, error)
	FindManualByFuelType(ctx context.Context, ft models.FuelType) (*models.MaintenanceManual, error)
	InsertManualTask(ctx context.Context, t models.ManualTask) error
	// FindTasksByManual returns tasks sorted ascending by km_interval.
	FindTasksByManual(ctx context.Context, manualID primitive.ObjectID) ([]models.ManualTask, error)
}

// PlanStore defines the interface for maintenance plan persistence.
type PlanStore interface {
	InsertPlan(ctx context.Context, p models.MaintenancePlan) error
	FindPlanByVehicle(ctx context.Context, vehicleID primitive.ObjectID) (*models.MaintenancePlan, error)
	FindActivePlans(ctx context.Context) ([]models.MaintenancePlan, error)
	UpdatePlanService(ctx context.Context, id primitive.ObjectID, lastServiceKM int, lastServiceDate time.Time, active bool) error
}

// AlertStore defines the interface for alert persistence. The slot argument
// disambiguates alerts of the same type on one vehicle (empty for types with
// a single slot).
type AlertStore interface {
	InsertAlert(ctx context.Context, a models.Alert) error
	FindOpenAlert(ctx context.Context, t models.AlertType, vehicleID *primitive.ObjectID, slot string) (*models.Alert, error)
	UpdateAlertContent(ctx context.Context, id primitive.ObjectID, sev models.Severity, msg string) error
	CloseOpenAlerts(ctx context.Context, t models.AlertType, vehicleID *primitive.ObjectID, slot string) (int64, error)
	FindAlerts(ctx context.Context, openOnly bool) ([]models.Alert, error)
}

// WorkOrderStore defines the interface for the minimal work-order records the
// plan lifecycle consumes.
type WorkOrderStore interface {
	InsertWorkOrder(ctx context.Context, o models.WorkOrder) (primitive.ObjectID, error)
	FindWorkOrderByID(ctx context.Context, id primitive.ObjectID) (*models.WorkOrder, error)
	SetWorkOrderStatus(ctx context.Context, id primitive.ObjectID, status models.WorkOrderStatus) error
}

// TxRunner executes fn inside a single transaction boundary so that a batch
// of history inserts and vehicle updates commits or aborts together.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
