package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shiftmate/mediaflow-service/internal/config"
	"github.com/shiftmate/mediaflow-service/internal/storage/objectstore"
	"github.com/shiftmate/mediaflow-service/internal/storage/postgres"
)

// OrphanSweeper removes object-store uploads that were stranded by a failed
// finish which was never retried. An upload is orphaned when it is older than
// the retention window and absent from the stored-files ledger.
type OrphanSweeper struct {
	ledger    *postgres.Postgres
	bucket    *objectstore.Backend
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger
}

func NewOrphanSweeper(ledger *postgres.Postgres, bucket *objectstore.Backend, interval, retention time.Duration) *OrphanSweeper {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	return &OrphanSweeper{
		ledger:    ledger,
		bucket:    bucket,
		interval:  interval,
		retention: retention,
		logger:    logger,
	}
}

func (sw *OrphanSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	sw.logger.Info("Orphan sweeper started",
		"interval", sw.interval.String(),
		"retention", sw.retention.String())

	// Run once immediately on startup
	sw.sweepOrphanedUploads(ctx)

	for {
		select {
		case <-ctx.Done():
			sw.logger.Info("Orphan sweeper shutting down")
			return
		case <-ticker.C:
			sw.sweepOrphanedUploads(ctx)
		}
	}
}

func (sw *OrphanSweeper) sweepOrphanedUploads(ctx context.Context) {
	startTime := time.Now()

	sw.logger.Info("Starting orphaned upload sweep")

	objects, err := sw.bucket.List(ctx, "")
	if err != nil {
		sw.logger.Error("Failed to list bucket objects",
			"error", err.Error(),
			"duration_ms", time.Since(startTime).Milliseconds())
		return
	}

	cutoff := time.Now().Add(-sw.retention)
	removed := 0

	for _, obj := range objects {
		if obj.LastModified.After(cutoff) {
			// Too young to judge; a failed finish may still be retried.
			continue
		}

		committed, err := sw.ledger.IsObjectCommitted(obj.Key)
		if err != nil {
			sw.logger.Error("Failed to check ledger for object",
				"key", obj.Key,
				"error", err.Error())
			continue
		}
		if committed {
			continue
		}

		if err := sw.bucket.Remove(ctx, obj.Key); err != nil {
			sw.logger.Error("Failed to remove orphaned object",
				"key", obj.Key,
				"error", err.Error())
			continue
		}

		sw.logger.Info("Removed orphaned object", "key", obj.Key)
		removed++
	}

	duration := time.Since(startTime)

	sw.logger.Info("Completed orphaned upload sweep",
		"objects_scanned", len(objects),
		"objects_removed", removed,
		"duration_ms", duration.Milliseconds(),
		"duration", duration.String())
}

func main() {
	// Load config
	cfg := config.MustLoad()

	// Initialize database connection
	ledger, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to Postgres database")

	// Initialize object store
	bucket, err := objectstore.NewBackend(cfg)
	if err != nil {
		log.Fatal("Failed to initialize object store backend:", err)
	}

	sweeper := NewOrphanSweeper(ledger, bucket,
		time.Duration(cfg.Sweeper.Interval)*time.Second,
		time.Duration(cfg.Sweeper.Retention)*time.Second)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Received shutdown signal")
		cancel()
	}()

	// Start the sweeper
	sweeper.Start(ctx)

	slog.Info("Orphan sweeper stopped")
}
