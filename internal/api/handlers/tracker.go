package handlers

import (
	"context"

	"github.com/adamscao/certwatch/internal/models"
	"github.com/adamscao/certwatch/internal/tracker"
)

// Tracker is the part of the tracker service the handlers use
type Tracker interface {
	Ingest(ctx context.Context, req tracker.IngestRequest) (*tracker.IngestResult, error)
	Status(ctx context.Context) ([]models.HostStatus, error)
	HostStatus(ctx context.Context, commonName string) (*models.HostStatus, error)
	Scan(ctx context.Context) (*models.NotificationReport, error)
}
