package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// EnsurePlanForVehicle creates the vehicle's maintenance plan if it does not
// exist yet, bound to the manual matching the vehicle's fuel type. Called
// explicitly on vehicle creation. The plan starts dormant until the first
// completed preventive order activates it.
func (s *Service) EnsurePlanForVehicle(ctx context.Context, v models.Vehicle) error {
	_, err := s.plans.FindPlanByVehicle(ctx, v.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("reading plan for %s: %w", v.Plate, err)
	}

	plan := models.MaintenancePlan{VehicleID: v.ID}
	manual, err := s.manuals.FindManualByFuelType(ctx, v.FuelType)
	if err == nil {
		plan.ManualID = &manual.ID
	} else if !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("resolving manual for %s: %w", v.Plate, err)
	}

	if err := s.plans.InsertPlan(ctx, plan); err != nil {
		if db.IsDuplicate(err) {
			// a concurrent creation already assigned the plan
			return nil
		}
		return fmt.Errorf("creating plan for %s: %w", v.Plate, err)
	}
	if plan.ManualID != nil {
		log.WithFields(log.Fields{"plate": v.Plate, "manual": manual.Name}).
			Info("maintenance plan assigned")
	}
	return nil
}

// ActivatePlan reacts to a completed preventive work order: it resets the
// plan's service baseline, activates the plan, and immediately reconciles
// the vehicle's PREVENTIVE_DUE alert against the new baseline.
//
// Orders that are not completed preventive orders are ignored.
func (s *Service) ActivatePlan(ctx context.Context, order models.WorkOrder, now time.Time) error {
	if order.OrderType != models.OrderPreventive || order.Status != models.OrderCompleted {
		return nil
	}

	v, err := s.vehicles.FindVehicleByID(ctx, order.VehicleID)
	if err != nil {
		return fmt.Errorf("reading vehicle %s: %w", order.VehicleID.Hex(), err)
	}

	plan, err := s.plans.FindPlanByVehicle(ctx, v.ID)
	if errors.Is(err, db.ErrNotFound) {
		if err := s.EnsurePlanForVehicle(ctx, *v); err != nil {
			return err
		}
		plan, err = s.plans.FindPlanByVehicle(ctx, v.ID)
	}
	if err != nil {
		return fmt.Errorf("reading plan for %s: %w", v.Plate, err)
	}

	// prefer the odometer recorded on the order; fall back to the vehicle
	serviceKM := order.OdometerAtService
	if serviceKM <= 0 {
		serviceKM = v.CurrentOdometerKM
	}
	serviceDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if err := s.plans.UpdatePlanService(ctx, plan.ID, serviceKM, serviceDate, true); err != nil {
		return fmt.Errorf("updating plan for %s: %w", v.Plate, err)
	}
	log.WithFields(log.Fields{"plate": v.Plate, "last_service_km": serviceKM}).
		Info("maintenance plan activated")

	plan.LastServiceKM = serviceKM
	plan.LastServiceDate = &serviceDate
	plan.IsActive = true

	var summary CheckSummary
	return s.checkPlan(ctx, *v, *plan, now, &summary)
}
