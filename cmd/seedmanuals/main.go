package main

import (
	"context"
	"errors"
	"sort"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Standard manufacturer-style schedules. Milestones are cumulative: a
// milestone carries every earlier milestone's tasks plus its own.
var dieselTasks = map[int][]string{
	10000: {
		"Change engine oil and filter",
		"Inspect for leaks",
		"Drain water separator",
		"Inspect air filter",
		"Check coolant level",
		"Grease U-joints and driveshaft",
		"Inspect steering and suspension",
		"Check brakes and drain air tanks",
		"Inspect and rotate tires",
		"Electrical system test and OBD scan",
	},
	20000: {
		"Replace fuel filter(s)",
		"Replace air filter",
		"Detailed brake service",
	},
	40000: {
		"Change transmission and differential oil",
		"Change brake and steering fluid",
		"Check auxiliary belts and tensioners",
		"Check air dryer cartridge",
	},
	60000: {
		"Valve adjustment (if applicable)",
		"Check crankcase ventilation filter (CCV)",
	},
	80000: {
		"Turbo evaluation and intercooler cleaning",
	},
	100000: {
		"Check/replace timing belt and water pump",
		"DPF cleaning/inspection",
	},
}

var gasolineTasks = map[int][]string{
	10000: {
		"Change engine oil and filter",
		"Inspect for leaks",
		"Inspect air filter",
		"Check cooling system",
		"Check brakes, steering and suspension",
		"Inspect and rotate tires",
		"Electrical system test and OBD scan",
	},
	20000: {
		"Replace air filter",
		"Replace cabin (A/C) filter",
		"Preventive alignment and balancing",
	},
	40000: {
		"Replace spark plugs (conventional)",
		"Replace fuel filter (if external)",
		"Change brake fluid",
		"Change transmission fluid (ATF/CVT)",
	},
	60000: {
		"Check accessory belt and tensioners",
	},
	80000: {
		"Change coolant (if not long-life)",
	},
	100000: {
		"Replace timing belt and water pump (if applicable)",
		"Check oxygen sensor and catalytic converter",
	},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using environment")
	}
	cfg := config.Load()

	client, err := db.ConnectMongo()
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	store := db.NewStore(client.Database(cfg.MongoDB))
	ctx := context.Background()

	if err := seedManual(ctx, store, "Standard Preventive Plan - Diesel", models.FuelDiesel, dieselTasks); err != nil {
		log.Fatalf("Failed to seed diesel manual: %v", err)
	}
	if err := seedManual(ctx, store, "Standard Preventive Plan - Gasoline", models.FuelGasoline, gasolineTasks); err != nil {
		log.Fatalf("Failed to seed gasoline manual: %v", err)
	}
	log.Info("manual seeding completed")
}

// seedManual creates a manual and its milestone tasks unless a manual with
// the same name already exists.
func seedManual(ctx context.Context, store *db.Store, name string, ft models.FuelType, tasks map[int][]string) error {
	_, err := store.FindManualByName(ctx, name)
	if err == nil {
		log.WithField("manual", name).Info("manual already exists, skipping")
		return nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return err
	}

	manualID, err := store.InsertManual(ctx, models.MaintenanceManual{Name: name, FuelType: ft})
	if err != nil {
		if db.IsDuplicate(err) {
			log.WithField("manual", name).Info("manual already exists, skipping")
			return nil
		}
		return err
	}

	milestones := make([]int, 0, len(tasks))
	for km := range tasks {
		milestones = append(milestones, km)
	}
	sort.Ints(milestones)

	// milestones are cumulative: each carries every earlier milestone's tasks
	accumulated := map[string]bool{}
	for _, km := range milestones {
		for _, desc := range tasks[km] {
			accumulated[desc] = true
		}

		descs := make([]string, 0, len(accumulated))
		for desc := range accumulated {
			descs = append(descs, desc)
		}
		sort.Strings(descs)

		for _, desc := range descs {
			err := store.InsertManualTask(ctx, models.ManualTask{
				ManualID:    manualID,
				KMInterval:  km,
				Description: desc,
			})
			if err != nil {
				return err
			}
		}
		log.WithFields(log.Fields{"manual": name, "milestone_km": km, "tasks": len(descs)}).
			Info("milestone tasks created")
	}
	return nil
}
