package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// FuelBatchMessage is the JSON payload published on the fuel-fills topic by
// the upload layer.
type FuelBatchMessage struct {
	SourceFile string               `json:"source_file"`
	SHA256     string               `json:"sha256,omitempty"`
	SizeBytes  int64                `json:"size_bytes,omitempty"`
	Rows       []models.FuelFillRow `json:"rows"`
}

// StartSubscriber connects to the MQTT broker and feeds row batches from the
// configured topics into the ingestion service. Returns the connected client
// so the caller can disconnect on shutdown.
func StartSubscriber(cfg *config.Config, svc *Service) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", cfg.MQTTBroker, token.Error())
	}

	fuelHandler := func(_ mqtt.Client, m mqtt.Message) {
		var batch FuelBatchMessage
		if err := json.Unmarshal(m.Payload(), &batch); err != nil {
			log.WithError(err).Warn("dropping malformed fuel batch message")
			return
		}
		ctx := context.Background()
		if batch.SHA256 != "" {
			seen, err := svc.AlreadyProcessed(ctx, batch.SHA256)
			if err != nil {
				log.WithError(err).Error("upload ledger lookup failed")
				return
			}
			if seen {
				log.WithField("source_file", batch.SourceFile).Warn("file already processed, skipping")
				return
			}
		}
		summary, err := svc.ProcessFuelFills(ctx, batch.Rows, batch.SourceFile)
		if err != nil {
			log.WithError(err).WithField("source_file", batch.SourceFile).Error("fuel batch failed")
			return
		}
		if batch.SHA256 != "" {
			err := svc.RecordUpload(ctx, models.FuelUploadLog{
				OriginalFilename: batch.SourceFile,
				SHA256:           batch.SHA256,
				SizeBytes:        batch.SizeBytes,
				RowsProcessed:    summary.Processed,
				VehiclesUpdated:  summary.VehiclesUpdated,
			})
			if err != nil {
				log.WithError(err).Error("recording upload failed")
			}
		}
	}

	noveltyHandler := func(_ mqtt.Client, m mqtt.Message) {
		var rows []models.NoveltyRow
		if err := json.Unmarshal(m.Payload(), &rows); err != nil {
			log.WithError(err).Warn("dropping malformed novelty message")
			return
		}
		if _, err := svc.ProcessNovelties(context.Background(), rows); err != nil {
			log.WithError(err).Error("novelty batch failed")
		}
	}

	if token := client.Subscribe(cfg.FuelFillsTopic, 1, fuelHandler); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", cfg.FuelFillsTopic, token.Error())
	}
	if token := client.Subscribe(cfg.NoveltiesTopic, 1, noveltyHandler); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", cfg.NoveltiesTopic, token.Error())
	}

	log.WithField("broker", cfg.MQTTBroker).Info("MQTT row feed connected")
	return client, nil
}
