package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ProcessNovelties scans free-text driver reports for the odometer trigger
// phrase and flips matching vehicles to an untrusted odometer. Already
// invalid vehicles are an idempotent no-op; unknown plates are counted.
func (s *Service) ProcessNovelties(ctx context.Context, rows []models.NoveltyRow) (models.NoveltySummary, error) {
	var summary models.NoveltySummary
	if len(rows) == 0 {
		return summary, ErrEmptyBatch
	}

	phrase := strings.ToLower(s.cfg.OdometerTriggerPhrase)
	for _, row := range rows {
		summary.RowsRead++
		if !strings.Contains(strings.ToLower(row.Text), phrase) {
			continue
		}
		summary.Matched++

		v, err := s.vehicles.FindVehicleByPlate(ctx, row.Plate)
		if errors.Is(err, db.ErrNotFound) {
			summary.NotFound++
			continue
		}
		if err != nil {
			return summary, fmt.Errorf("looking up vehicle %s: %w", row.Plate, err)
		}

		if v.OdometerStatus == models.OdometerInvalid {
			summary.AlreadyInvalid++
			continue
		}

		if err := s.vehicles.SetOdometerStatus(ctx, v.ID, models.OdometerInvalid); err != nil {
			return summary, fmt.Errorf("invalidating odometer for %s: %w", v.Plate, err)
		}
		msg := fmt.Sprintf("Odometer for %s reported unusable in novelties: %q. Scheduling falls back to elapsed time.",
			v.Plate, row.Text)
		if _, err := s.engine.Upsert(ctx, models.AlertOdometerUnavailable, &v.ID, "", true, models.SeverityCritical, msg); err != nil {
			return summary, err
		}
		summary.Invalidated++
	}

	log.WithFields(log.Fields{
		"rows_read":   summary.RowsRead,
		"matched":     summary.Matched,
		"invalidated": summary.Invalidated,
		"not_found":   summary.NotFound,
	}).Info("novelty batch processed")
	return summary, nil
}
