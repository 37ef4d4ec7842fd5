package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/alerts"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ErrEmptyBatch means the upload layer handed over a batch with no rows,
// usually a sign the source file was missing its data sheet.
var ErrEmptyBatch = errors.New("batch contains no rows")

// Service ingests parsed spreadsheet rows: fuel fills drive the odometer
// state machine, novelties flag unreliable odometers.
type Service struct {
	vehicles db.VehicleStore
	fuel     db.FuelStore
	engine   *alerts.Engine
	tx       db.TxRunner
	cfg      *config.Config
}

// NewService creates an ingestion service.
func NewService(vehicles db.VehicleStore, fuel db.FuelStore, engine *alerts.Engine, tx db.TxRunner, cfg *config.Config) *Service {
	return &Service{
		vehicles: vehicles,
		fuel:     fuel,
		engine:   engine,
		tx:       tx,
		cfg:      cfg,
	}
}

// ProcessFuelFills ingests one batch of fuel-fill rows inside a single
// transaction boundary. Rows are processed in ascending date order so the
// vehicle's current odometer always reflects the most recent-by-date
// accepted reading. Bad rows are skipped and tallied, never fatal.
func (s *Service) ProcessFuelFills(ctx context.Context, rows []models.FuelFillRow, sourceFile string) (models.BatchSummary, error) {
	var summary models.BatchSummary
	if len(rows) == 0 {
		return summary, ErrEmptyBatch
	}

	ordered := make([]models.FuelFillRow, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })
	summary.RowsRead = len(ordered)

	// vehicles touched by this batch, mutated in memory so later rows see
	// the odometer advanced by earlier ones
	cache := make(map[string]*models.Vehicle)
	advanced := make(map[string]bool)

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		for _, row := range ordered {
			plate := models.NormalizePlate(row.Plate)
			if plate == "" || row.Date.IsZero() {
				summary.Rejected++
				continue
			}
			if row.OdometerKM <= 0 {
				summary.Rejected++
				continue
			}

			v, ok := cache[plate]
			if !ok {
				found, err := s.vehicles.FindVehicleByPlate(ctx, plate)
				if errors.Is(err, db.ErrNotFound) {
					summary.NotFound++
					continue
				}
				if err != nil {
					return fmt.Errorf("looking up vehicle %s: %w", plate, err)
				}
				v = found
				cache[plate] = v
			}

			if row.OdometerKM < v.CurrentOdometerKM {
				if err := s.recordAnomaly(ctx, v, row); err != nil {
					return err
				}
				summary.Anomalies++
				continue
			}

			exists, err := s.fuel.FuelFillExists(ctx, v.ID, row.Date, row.OdometerKM)
			if err != nil {
				return fmt.Errorf("checking fuel fill for %s: %w", plate, err)
			}
			if !exists {
				if err := s.fuel.InsertFuelFill(ctx, models.FuelFill{
					VehicleID:  v.ID,
					FillDate:   row.Date,
					OdometerKM: row.OdometerKM,
					Gallons:    row.Gallons,
					Notes:      row.Notes,
					SourceFile: sourceFile,
				}); err != nil {
					if db.IsDuplicate(err) {
						// another run inserted the same natural key
						summary.Processed++
						continue
					}
					return fmt.Errorf("inserting fuel fill for %s: %w", plate, err)
				}
				if err := s.fuel.InsertOdometerReading(ctx, models.OdometerReading{
					VehicleID:   v.ID,
					ReadingKM:   row.OdometerKM,
					ReadingDate: row.Date,
					Source:      models.SourceFuelFill,
				}); err != nil {
					return fmt.Errorf("inserting odometer reading for %s: %w", plate, err)
				}
				if err := s.vehicles.SetOdometer(ctx, v.ID, row.OdometerKM); err != nil {
					return fmt.Errorf("updating odometer for %s: %w", plate, err)
				}
				v.CurrentOdometerKM = row.OdometerKM
				advanced[plate] = true
				summary.NewReadings++
			}
			summary.Processed++
		}
		return nil
	})
	if err != nil {
		return summary, err
	}
	summary.VehiclesUpdated = len(advanced)

	log.WithFields(log.Fields{
		"source_file":      sourceFile,
		"rows_read":        summary.RowsRead,
		"processed":        summary.Processed,
		"new_readings":     summary.NewReadings,
		"vehicles_updated": summary.VehiclesUpdated,
		"anomalies":        summary.Anomalies,
		"not_found":        summary.NotFound,
		"rejected":         summary.Rejected,
	}).Info("fuel batch processed")
	return summary, nil
}

// recordAnomaly handles an odometer regression: the reading is archived as
// an anomaly and an inconsistency alert is raised, but the vehicle's trusted
// odometer is left untouched.
func (s *Service) recordAnomaly(ctx context.Context, v *models.Vehicle, row models.FuelFillRow) error {
	msg := fmt.Sprintf("Odometer reading for %s (%d km) is below the previous value (%d km). Marked as anomaly.",
		v.Plate, row.OdometerKM, v.CurrentOdometerKM)
	if _, err := s.engine.Upsert(ctx, models.AlertOdometerInconsistent, &v.ID, "", true, models.SeverityWarning, msg); err != nil {
		return err
	}
	// re-ingested batches must not duplicate the archived anomaly
	exists, err := s.fuel.OdometerReadingExists(ctx, v.ID, row.Date, row.OdometerKM)
	if err != nil {
		return fmt.Errorf("checking reading for %s: %w", v.Plate, err)
	}
	if exists {
		return nil
	}
	if err := s.fuel.InsertOdometerReading(ctx, models.OdometerReading{
		VehicleID:   v.ID,
		ReadingKM:   row.OdometerKM,
		ReadingDate: row.Date,
		Source:      models.SourceFuelFill,
		IsAnomaly:   true,
		Notes:       fmt.Sprintf("Anomalous reading. Previous: %d km.", v.CurrentOdometerKM),
	}); err != nil {
		return fmt.Errorf("inserting anomaly reading for %s: %w", v.Plate, err)
	}
	return nil
}

// AlreadyProcessed reports whether a file with this checksum was ingested
// before.
func (s *Service) AlreadyProcessed(ctx context.Context, sha256 string) (bool, error) {
	_, err := s.fuel.FindUploadBySHA256(ctx, sha256)
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RecordUpload writes the processed-file ledger entry for a batch.
func (s *Service) RecordUpload(ctx context.Context, entry models.FuelUploadLog) error {
	if err := s.fuel.InsertUploadLog(ctx, entry); err != nil {
		if db.IsDuplicate(err) {
			return nil
		}
		return fmt.Errorf("recording upload %s: %w", entry.OriginalFilename, err)
	}
	return nil
}
