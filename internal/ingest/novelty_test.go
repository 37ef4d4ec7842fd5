package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

func TestProcessNovelties(t *testing.T) {
	ctx := context.Background()

	t.Run("trigger phrase invalidates the odometer and raises an alert", func(t *testing.T) {
		vehicles := newFakeVehicleStore(&models.Vehicle{Plate: "ABC123", CurrentOdometerKM: 40000})
		alertStore := &fakeAlertStore{}
		svc := newTestService(vehicles, newFakeFuelStore(), alertStore)

		summary, err := svc.ProcessNovelties(ctx, []models.NoveltyRow{
			{Plate: "ABC123", Text: "Driver reports the ODOMETER STUCK since Monday"},
		})
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Matched)
		assert.Equal(t, 1, summary.Invalidated)
		assert.Equal(t, models.OdometerInvalid, vehicles.vehicles["ABC123"].OdometerStatus)

		open := alertStore.openOfType(models.AlertOdometerUnavailable)
		require.Len(t, open, 1)
		assert.Equal(t, models.SeverityCritical, open[0].Severity)
		assert.Contains(t, open[0].Message, "ODOMETER STUCK")
	})

	t.Run("rows without the phrase are ignored", func(t *testing.T) {
		vehicles := newFakeVehicleStore(&models.Vehicle{Plate: "ABC123"})
		alertStore := &fakeAlertStore{}
		svc := newTestService(vehicles, newFakeFuelStore(), alertStore)

		summary, err := svc.ProcessNovelties(ctx, []models.NoveltyRow{
			{Plate: "ABC123", Text: "flat tire, replaced on site"},
			{Plate: "ABC123", Text: "broken mirror"},
		})
		require.NoError(t, err)

		assert.Equal(t, 2, summary.RowsRead)
		assert.Equal(t, 0, summary.Matched)
		assert.Equal(t, models.OdometerValid, vehicles.vehicles["ABC123"].OdometerStatus)
		assert.Empty(t, alertStore.alerts)
	})

	t.Run("already invalid vehicles are a no-op", func(t *testing.T) {
		vehicles := newFakeVehicleStore(&models.Vehicle{
			Plate:          "ABC123",
			OdometerStatus: models.OdometerInvalid,
		})
		alertStore := &fakeAlertStore{}
		svc := newTestService(vehicles, newFakeFuelStore(), alertStore)

		summary, err := svc.ProcessNovelties(ctx, []models.NoveltyRow{
			{Plate: "ABC123", Text: "odometer stuck again"},
		})
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Matched)
		assert.Equal(t, 1, summary.AlreadyInvalid)
		assert.Equal(t, 0, summary.Invalidated)
		assert.Empty(t, alertStore.alerts)
	})

	t.Run("unknown plates are counted", func(t *testing.T) {
		svc := newTestService(newFakeVehicleStore(), newFakeFuelStore(), &fakeAlertStore{})

		summary, err := svc.ProcessNovelties(ctx, []models.NoveltyRow{
			{Plate: "ZZZ999", Text: "odometer stuck"},
		})
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Matched)
		assert.Equal(t, 1, summary.NotFound)
		assert.Equal(t, 0, summary.Invalidated)
	})

	t.Run("empty batch is a structural error", func(t *testing.T) {
		svc := newTestService(newFakeVehicleStore(), newFakeFuelStore(), &fakeAlertStore{})
		_, err := svc.ProcessNovelties(ctx, nil)
		assert.ErrorIs(t, err, ErrEmptyBatch)
	})
}
