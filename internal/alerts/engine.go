package alerts

import (
	"context"
	"errors"
	"fmt"

	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Outcome reports what an upsert did to the alert slot.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeCreated
	OutcomeUpdated
	OutcomeClosed
)

// Engine keeps at most one open alert per (type, vehicle, slot) pair: it
// creates the alert when a condition first holds, rewrites severity/message
// in place while it persists, and closes it when it stops holding.
type Engine struct {
	store db.AlertStore
}

// NewEngine creates an alert upsert engine.
func NewEngine(store db.AlertStore) *Engine {
	return &Engine{store: store}
}

// Upsert reconciles one alert slot against the current condition.
//
// shouldBeOpen=true finds the open alert for the slot and updates it when
// severity or message changed, creating it if absent. created_at is never
// touched on update. shouldBeOpen=false closes any open alerts in the slot.
func (e *Engine) Upsert(ctx context.Context, t models.AlertType, vehicleID *primitive.ObjectID, slot string, shouldBeOpen bool, sev models.Severity, msg string) (Outcome, error) {
	if !shouldBeOpen {
		closed, err := e.store.CloseOpenAlerts(ctx, t, vehicleID, slot)
		if err != nil {
			return OutcomeUnchanged, fmt.Errorf("closing alerts for %s: %w", t, err)
		}
		if closed > 0 {
			return OutcomeClosed, nil
		}
		return OutcomeUnchanged, nil
	}

	existing, err := e.store.FindOpenAlert(ctx, t, vehicleID, slot)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return OutcomeUnchanged, fmt.Errorf("reading open alert for %s: %w", t, err)
	}
	if existing != nil {
		if existing.Severity == sev && existing.Message == msg {
			return OutcomeUnchanged, nil
		}
		if err := e.store.UpdateAlertContent(ctx, existing.ID, sev, msg); err != nil {
			return OutcomeUnchanged, fmt.Errorf("updating alert %s: %w", existing.ID.Hex(), err)
		}
		return OutcomeUpdated, nil
	}

	err = e.store.InsertAlert(ctx, models.Alert{
		AlertType:        t,
		Severity:         sev,
		Message:          msg,
		RelatedVehicleID: vehicleID,
		Slot:             slot,
		Seen:             false,
	})
	if err == nil {
		return OutcomeCreated, nil
	}
	if !db.IsDuplicate(err) {
		return OutcomeUnchanged, fmt.Errorf("creating alert for %s: %w", t, err)
	}

	// A concurrent pass created the slot between our read and insert.
	// Re-read and update instead.
	existing, rerr := e.store.FindOpenAlert(ctx, t, vehicleID, slot)
	if rerr != nil {
		return OutcomeUnchanged, fmt.Errorf("re-reading open alert for %s: %w", t, rerr)
	}
	if existing.Severity == sev && existing.Message == msg {
		return OutcomeUnchanged, nil
	}
	if err := e.store.UpdateAlertContent(ctx, existing.ID, sev, msg); err != nil {
		return OutcomeUnchanged, fmt.Errorf("updating alert %s: %w", existing.ID.Hex(), err)
	}
	return OutcomeUpdated, nil
}
