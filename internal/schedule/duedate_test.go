package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func manualTasks(intervals ...int) []models.ManualTask {
	tasks := make([]models.ManualTask, 0, len(intervals))
	for _, km := range intervals {
		tasks = append(tasks, models.ManualTask{
			ID:          primitive.NewObjectID(),
			KMInterval:  km,
			Description: taskName(km),
		})
	}
	return tasks
}

func taskName(km int) string {
	switch km {
	case 10000:
		return "Change engine oil and filter"
	case 20000:
		return "Replace fuel filter(s)"
	case 30000:
		return "Detailed brake service"
	default:
		return "Scheduled service"
	}
}

func TestComputeDue_DistanceMode(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	tasks := manualTasks(10000, 20000, 30000)

	t.Run("first matching milestone wins", func(t *testing.T) {
		v := models.Vehicle{CurrentOdometerKM: 15000, OdometerStatus: models.OdometerValid}
		plan := models.MaintenancePlan{LastServiceKM: 10000}

		res, ok := ComputeDue(v, plan, tasks, now, 180)
		require.True(t, ok)
		assert.Equal(t, ModeDistance, res.Mode)
		// delta 5000 keeps the 10000 task next, never a later milestone
		assert.Equal(t, 20000, res.NextDueKM)
		assert.Equal(t, taskName(10000), res.Description)
		assert.Equal(t, 5000, res.RemainingKM)
		assert.False(t, res.Overdue)
	})

	t.Run("exact milestone boundary is still due", func(t *testing.T) {
		v := models.Vehicle{CurrentOdometerKM: 20000, OdometerStatus: models.OdometerValid}
		plan := models.MaintenancePlan{LastServiceKM: 10000}

		res, ok := ComputeDue(v, plan, tasks, now, 180)
		require.True(t, ok)
		assert.Equal(t, 20000, res.NextDueKM)
		assert.Equal(t, taskName(10000), res.Description)
		assert.Equal(t, 0, res.RemainingKM)
		assert.True(t, res.Overdue)
	})

	t.Run("cycle fallback after exhausting milestones", func(t *testing.T) {
		v := models.Vehicle{CurrentOdometerKM: 35000, OdometerStatus: models.OdometerValid}
		plan := models.MaintenancePlan{LastServiceKM: 0}

		res, ok := ComputeDue(v, plan, tasks, now, 180)
		require.True(t, ok)
		assert.Equal(t, 40000, res.NextDueKM)
		assert.Equal(t, "cycle every 10000 km", res.Description)
		assert.Equal(t, 5000, res.RemainingKM)
		assert.False(t, res.Overdue)
	})

	t.Run("baseline ahead of odometer clamps delta to zero", func(t *testing.T) {
		v := models.Vehicle{CurrentOdometerKM: 8000, OdometerStatus: models.OdometerValid}
		plan := models.MaintenancePlan{LastServiceKM: 12000}

		res, ok := ComputeDue(v, plan, tasks, now, 180)
		require.True(t, ok)
		assert.Equal(t, 22000, res.NextDueKM)
		assert.Equal(t, taskName(10000), res.Description)
	})

	t.Run("unsorted task input is handled", func(t *testing.T) {
		shuffled := manualTasks(30000, 10000, 20000)
		v := models.Vehicle{CurrentOdometerKM: 15000, OdometerStatus: models.OdometerValid}
		plan := models.MaintenancePlan{LastServiceKM: 10000}

		res, ok := ComputeDue(v, plan, shuffled, now, 180)
		require.True(t, ok)
		assert.Equal(t, 20000, res.NextDueKM)
	})

	t.Run("no tasks means no schedule", func(t *testing.T) {
		v := models.Vehicle{CurrentOdometerKM: 15000, OdometerStatus: models.OdometerValid}
		_, ok := ComputeDue(v, models.MaintenancePlan{}, nil, now, 180)
		assert.False(t, ok)
	})
}

func TestComputeDue_TimeMode(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	tasks := manualTasks(10000, 20000, 30000)

	t.Run("invalid odometer falls back to elapsed time", func(t *testing.T) {
		last := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		v := models.Vehicle{CurrentOdometerKM: 15000, OdometerStatus: models.OdometerInvalid}
		plan := models.MaintenancePlan{LastServiceKM: 10000, LastServiceDate: &last}

		res, ok := ComputeDue(v, plan, tasks, now, 180)
		require.True(t, ok)
		assert.Equal(t, ModeTime, res.Mode)
		assert.Equal(t, last.AddDate(0, 0, 180), res.NextDueDate)
		assert.Equal(t, 28, res.DaysRemaining)
		assert.False(t, res.Overdue)
	})

	t.Run("overdue when threshold elapsed", func(t *testing.T) {
		last := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)
		v := models.Vehicle{OdometerStatus: models.OdometerInvalid}
		plan := models.MaintenancePlan{LastServiceDate: &last}

		res, ok := ComputeDue(v, plan, tasks, now, 180)
		require.True(t, ok)
		assert.True(t, res.Overdue)
		assert.LessOrEqual(t, res.DaysRemaining, 0)
	})

	t.Run("no service date means no schedule and no alert", func(t *testing.T) {
		v := models.Vehicle{OdometerStatus: models.OdometerInvalid}
		_, ok := ComputeDue(v, models.MaintenancePlan{}, tasks, now, 180)
		assert.False(t, ok)
	})
}
