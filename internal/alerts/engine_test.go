package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// fakeAlertStore is an in-memory AlertStore with an optional injected
// duplicate-key failure to exercise the concurrent-insert path.
type fakeAlertStore struct {
	alerts      []models.Alert
	failNextDup bool
	// raceAlert is inserted when the injected duplicate fires, simulating
	// the concurrent pass that won the insert
	raceAlert *models.Alert
}

func dupErr() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
}

func (f *fakeAlertStore) InsertAlert(_ context.Context, a models.Alert) error {
	if f.failNextDup {
		f.failNextDup = false
		if f.raceAlert != nil {
			f.alerts = append(f.alerts, *f.raceAlert)
		}
		return dupErr()
	}
	a.ID = primitive.NewObjectID()
	a.CreatedAt = time.Now()
	f.alerts = append(f.alerts, a)
	return nil
}

func (f *fakeAlertStore) matches(a models.Alert, t models.AlertType, vehicleID *primitive.ObjectID, slot string) bool {
	if a.AlertType != t || a.Seen {
		return false
	}
	if vehicleID == nil {
		if a.RelatedVehicleID != nil {
			return false
		}
	} else if a.RelatedVehicleID == nil || *a.RelatedVehicleID != *vehicleID {
		return false
	}
	return slot == "" || a.Slot == slot
}

func (f *fakeAlertStore) FindOpenAlert(_ context.Context, t models.AlertType, vehicleID *primitive.ObjectID, slot string) (*models.Alert, error) {
	for i := range f.alerts {
		if f.matches(f.alerts[i], t, vehicleID, slot) {
			a := f.alerts[i]
			return &a, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeAlertStore) UpdateAlertContent(_ context.Context, id primitive.ObjectID, sev models.Severity, msg string) error {
	for i := range f.alerts {
		if f.alerts[i].ID == id {
			f.alerts[i].Severity = sev
			f.alerts[i].Message = msg
			return nil
		}
	}
	return db.ErrNotFound
}

func (f *fakeAlertStore) CloseOpenAlerts(_ context.Context, t models.AlertType, vehicleID *primitive.ObjectID, slot string) (int64, error) {
	var n int64
	for i := range f.alerts {
		if f.matches(f.alerts[i], t, vehicleID, slot) {
			f.alerts[i].Seen = true
			n++
		}
	}
	return n, nil
}

func (f *fakeAlertStore) FindAlerts(_ context.Context, openOnly bool) ([]models.Alert, error) {
	var out []models.Alert
	for _, a := range f.alerts {
		if openOnly && a.Seen {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAlertStore) open(t models.AlertType, vehicleID *primitive.ObjectID, slot string) []models.Alert {
	var out []models.Alert
	for _, a := range f.alerts {
		if f.matches(a, t, vehicleID, slot) {
			out = append(out, a)
		}
	}
	return out
}

func TestEngine_Upsert(t *testing.T) {
	ctx := context.Background()
	vehicleID := primitive.NewObjectID()

	t.Run("creates on first open condition", func(t *testing.T) {
		store := &fakeAlertStore{}
		engine := NewEngine(store)

		out, err := engine.Upsert(ctx, models.AlertPreventiveDue, &vehicleID, "", true, models.SeverityWarning, "500 km remaining")
		require.NoError(t, err)
		assert.Equal(t, OutcomeCreated, out)
		require.Len(t, store.open(models.AlertPreventiveDue, &vehicleID, ""), 1)
	})

	t.Run("second identical upsert changes nothing", func(t *testing.T) {
		store := &fakeAlertStore{}
		engine := NewEngine(store)

		_, err := engine.Upsert(ctx, models.AlertPreventiveDue, &vehicleID, "", true, models.SeverityWarning, "500 km remaining")
		require.NoError(t, err)
		out, err := engine.Upsert(ctx, models.AlertPreventiveDue, &vehicleID, "", true, models.SeverityWarning, "500 km remaining")
		require.NoError(t, err)
		assert.Equal(t, OutcomeUnchanged, out)
		assert.Len(t, store.open(models.AlertPreventiveDue, &vehicleID, ""), 1)
	})

	t.Run("severity change updates in place without touching created_at", func(t *testing.T) {
		store := &fakeAlertStore{}
		engine := NewEngine(store)

		_, err := engine.Upsert(ctx, models.AlertPreventiveDue, &vehicleID, "", true, models.SeverityWarning, "400 km remaining")
		require.NoError(t, err)
		created := store.alerts[0].CreatedAt

		out, err := engine.Upsert(ctx, models.AlertPreventiveDue, &vehicleID, "", true, models.SeverityCritical, "OVERDUE")
		require.NoError(t, err)
		assert.Equal(t, OutcomeUpdated, out)
		require.Len(t, store.alerts, 1)
		assert.Equal(t, models.SeverityCritical, store.alerts[0].Severity)
		assert.Equal(t, "OVERDUE", store.alerts[0].Message)
		assert.Equal(t, created, store.alerts[0].CreatedAt)
	})

	t.Run("closing resolves the open alert", func(t *testing.T) {
		store := &fakeAlertStore{}
		engine := NewEngine(store)

		_, err := engine.Upsert(ctx, models.AlertPreventiveDue, &vehicleID, "", true, models.SeverityWarning, "due soon")
		require.NoError(t, err)
		out, err := engine.Upsert(ctx, models.AlertPreventiveDue, &vehicleID, "", false, "", "")
		require.NoError(t, err)
		assert.Equal(t, OutcomeClosed, out)
		assert.Empty(t, store.open(models.AlertPreventiveDue, &vehicleID, ""))
		assert.True(t, store.alerts[0].Seen)
	})

	t.Run("closing an empty slot is a no-op", func(t *testing.T) {
		store := &fakeAlertStore{}
		engine := NewEngine(store)

		out, err := engine.Upsert(ctx, models.AlertPreventiveDue, &vehicleID, "", false, "", "")
		require.NoError(t, err)
		assert.Equal(t, OutcomeUnchanged, out)
	})

	t.Run("re-trigger after close creates a new instance", func(t *testing.T) {
		store := &fakeAlertStore{}
		engine := NewEngine(store)

		_, err := engine.Upsert(ctx, models.AlertPreventiveDue, &vehicleID, "", true, models.SeverityWarning, "due soon")
		require.NoError(t, err)
		_, err = engine.Upsert(ctx, models.AlertPreventiveDue, &vehicleID, "", false, "", "")
		require.NoError(t, err)
		out, err := engine.Upsert(ctx, models.AlertPreventiveDue, &vehicleID, "", true, models.SeverityCritical, "OVERDUE")
		require.NoError(t, err)
		assert.Equal(t, OutcomeCreated, out)
		assert.Len(t, store.alerts, 2)
		assert.Len(t, store.open(models.AlertPreventiveDue, &vehicleID, ""), 1)
	})

	t.Run("slots keep documents independent", func(t *testing.T) {
		store := &fakeAlertStore{}
		engine := NewEngine(store)

		_, err := engine.Upsert(ctx, models.AlertDocExpiration, &vehicleID, "SOAT", true, models.SeverityWarning, "SOAT expires soon")
		require.NoError(t, err)
		_, err = engine.Upsert(ctx, models.AlertDocExpiration, &vehicleID, "RTM", true, models.SeverityCritical, "RTM EXPIRED")
		require.NoError(t, err)
		assert.Len(t, store.open(models.AlertDocExpiration, &vehicleID, "SOAT"), 1)
		assert.Len(t, store.open(models.AlertDocExpiration, &vehicleID, "RTM"), 1)

		out, err := engine.Upsert(ctx, models.AlertDocExpiration, &vehicleID, "SOAT", false, "", "")
		require.NoError(t, err)
		assert.Equal(t, OutcomeClosed, out)
		assert.Empty(t, store.open(models.AlertDocExpiration, &vehicleID, "SOAT"))
		assert.Len(t, store.open(models.AlertDocExpiration, &vehicleID, "RTM"), 1)
	})

	t.Run("duplicate-key race falls back to update", func(t *testing.T) {
		winner := models.Alert{
			ID:               primitive.NewObjectID(),
			AlertType:        models.AlertPreventiveDue,
			Severity:         models.SeverityWarning,
			Message:          "written by the concurrent pass",
			RelatedVehicleID: &vehicleID,
			Seen:             false,
			CreatedAt:        time.Now(),
		}
		store := &fakeAlertStore{failNextDup: true, raceAlert: &winner}
		engine := NewEngine(store)

		out, err := engine.Upsert(ctx, models.AlertPreventiveDue, &vehicleID, "", true, models.SeverityCritical, "OVERDUE")
		require.NoError(t, err)
		assert.Equal(t, OutcomeUpdated, out)
		require.Len(t, store.alerts, 1)
		assert.Equal(t, models.SeverityCritical, store.alerts[0].Severity)
		assert.Equal(t, "OVERDUE", store.alerts[0].Message)
	})
}
