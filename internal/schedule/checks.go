package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/alerts"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Document slots kept per vehicle under DOC_EXPIRATION alerts.
const (
	DocSOAT = "SOAT"
	DocRTM  = "RTM"
)

// CheckSummary counts what one periodic pass did to the alert table.
type CheckSummary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Closed  int `json:"closed"`
}

func (s *CheckSummary) add(o alerts.Outcome) {
	switch o {
	case alerts.OutcomeCreated:
		s.Created++
	case alerts.OutcomeUpdated:
		s.Updated++
	case alerts.OutcomeClosed:
		s.Closed++
	}
}

// Service owns the maintenance-plan lifecycle and the periodic due checks.
type Service struct {
	vehicles db.VehicleStore
	plans    db.PlanStore
	manuals  db.ManualStore
	engine   *alerts.Engine
	cfg      *config.Config
}

// NewService creates a scheduling service.
func NewService(vehicles db.VehicleStore, plans db.PlanStore, manuals db.ManualStore, engine *alerts.Engine, cfg *config.Config) *Service {
	return &Service{
		vehicles: vehicles,
		plans:    plans,
		manuals:  manuals,
		engine:   engine,
		cfg:      cfg,
	}
}

// RunChecks runs one periodic pass: document expirations for every vehicle,
// then preventive due for every active plan. It is idempotent — running it
// twice with no state change leaves the alert table untouched.
func (s *Service) RunChecks(ctx context.Context, now time.Time) (CheckSummary, error) {
	var summary CheckSummary

	vehicles, err := s.vehicles.FindVehicles(ctx)
	if err != nil {
		return summary, fmt.Errorf("listing vehicles: %w", err)
	}
	byID := make(map[string]models.Vehicle, len(vehicles))
	for _, v := range vehicles {
		byID[v.ID.Hex()] = v
		if err := s.checkDocument(ctx, v, DocSOAT, v.SOATDueDate, now, &summary); err != nil {
			return summary, err
		}
		if err := s.checkDocument(ctx, v, DocRTM, v.RTMDueDate, now, &summary); err != nil {
			return summary, err
		}
	}

	plans, err := s.plans.FindActivePlans(ctx)
	if err != nil {
		return summary, fmt.Errorf("listing active plans: %w", err)
	}
	for _, plan := range plans {
		v, ok := byID[plan.VehicleID.Hex()]
		if !ok {
			continue
		}
		if err := s.checkPlan(ctx, v, plan, now, &summary); err != nil {
			return summary, err
		}
	}

	log.WithFields(log.Fields{
		"created": summary.Created,
		"updated": summary.Updated,
		"closed":  summary.Closed,
	}).Info("periodic checks completed")
	return summary, nil
}

// checkDocument reconciles one document-expiration alert slot.
func (s *Service) checkDocument(ctx context.Context, v models.Vehicle, doc string, due *time.Time, now time.Time, summary *CheckSummary) error {
	if due == nil {
		// no date configured: close any previous alert for this document
		out, err := s.engine.Upsert(ctx, models.AlertDocExpiration, &v.ID, doc, false, "", "")
		if err != nil {
			return err
		}
		summary.add(out)
		return nil
	}

	days := daysBetween(now, *due)
	if days > s.cfg.DocExpiryWindowDays {
		out, err := s.engine.Upsert(ctx, models.AlertDocExpiration, &v.ID, doc, false, "", "")
		if err != nil {
			return err
		}
		summary.add(out)
		return nil
	}

	severity := models.SeverityWarning
	status := fmt.Sprintf("expires in %d day(s)", days)
	if days <= 0 {
		severity = models.SeverityCritical
		status = "EXPIRED"
	}
	msg := fmt.Sprintf("%s for %s %s. Due date: %s.", doc, v.Plate, status, due.Format("2006-01-02"))
	out, err := s.engine.Upsert(ctx, models.AlertDocExpiration, &v.ID, doc, true, severity, msg)
	if err != nil {
		return err
	}
	summary.add(out)
	return nil
}

// checkPlan reconciles the PREVENTIVE_DUE slot for one vehicle's plan.
func (s *Service) checkPlan(ctx context.Context, v models.Vehicle, plan models.MaintenancePlan, now time.Time, summary *CheckSummary) error {
	tasks, err := s.resolveTasks(ctx, v, plan)
	if err != nil {
		return err
	}

	res, ok := ComputeDue(v, plan, tasks, now, s.cfg.TimeFallbackDays)
	if !ok {
		// no resolvable schedule: the condition cannot hold
		out, err := s.engine.Upsert(ctx, models.AlertPreventiveDue, &v.ID, "", false, "", "")
		if err != nil {
			return err
		}
		summary.add(out)
		return nil
	}

	open, severity, msg := s.evaluateDue(v, res)
	out, err := s.engine.Upsert(ctx, models.AlertPreventiveDue, &v.ID, "", open, severity, msg)
	if err != nil {
		return err
	}
	summary.add(out)
	return nil
}

// resolveTasks loads the manual's task list: the plan's manual when set,
// otherwise the manual matching the vehicle's fuel type.
func (s *Service) resolveTasks(ctx context.Context, v models.Vehicle, plan models.MaintenancePlan) ([]models.ManualTask, error) {
	var manual *models.MaintenanceManual
	var err error
	if plan.ManualID != nil {
		manual, err = s.manuals.FindManualByID(ctx, *plan.ManualID)
	} else {
		manual, err = s.manuals.FindManualByFuelType(ctx, v.FuelType)
	}
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving manual for %s: %w", v.Plate, err)
	}
	tasks, err := s.manuals.FindTasksByManual(ctx, manual.ID)
	if err != nil {
		return nil, fmt.Errorf("loading tasks for manual %s: %w", manual.Name, err)
	}
	return tasks, nil
}

// evaluateDue applies the severity policy to a due result.
func (s *Service) evaluateDue(v models.Vehicle, res DueResult) (open bool, severity models.Severity, msg string) {
	switch res.Mode {
	case ModeDistance:
		if res.RemainingKM > s.cfg.PreventiveGraceKM {
			return false, "", ""
		}
		severity = models.SeverityWarning
		left := fmt.Sprintf("%d km remaining", res.RemainingKM)
		if res.Overdue {
			severity = models.SeverityCritical
			left = "OVERDUE"
		}
		msg = fmt.Sprintf("Preventive for %s: next service (%s) at %d km (%s).",
			v.Plate, res.Description, res.NextDueKM, left)
		return true, severity, msg
	case ModeTime:
		if res.DaysRemaining > s.cfg.DocExpiryWindowDays {
			return false, "", ""
		}
		severity = models.SeverityWarning
		left := fmt.Sprintf("%d day(s) remaining", res.DaysRemaining)
		if res.Overdue {
			severity = models.SeverityCritical
			left = "OVERDUE"
		}
		msg = fmt.Sprintf("Preventive for %s: time-based service due %s (%s).",
			v.Plate, res.NextDueDate.Format("2006-01-02"), left)
		return true, severity, msg
	}
	return false, "", ""
}
