package dataset

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/recruitops/campaign-insight/internal/config"
)

// Store holds the loaded snapshot. The snapshot is immutable and loaded
// before the server starts serving, so concurrent readers need no lock.
type Store struct {
	snapshot *Snapshot
}

// NewStore wraps an already-assembled snapshot.
func NewStore(snap *Snapshot) *Store {
	return &Store{snapshot: snap}
}

// Snapshot returns the current read-only snapshot.
func (s *Store) Snapshot() *Snapshot {
	return s.snapshot
}

// Load reads all three tables from the configured source and returns a
// store holding the assembled snapshot.
func Load(ctx context.Context, cfg config.DatasetConfig) (*Store, error) {
	refMonth, err := cfg.ReferenceMonthStart()
	if err != nil {
		return nil, fmt.Errorf("invalid reference_month %q: %w", cfg.ReferenceMonth, err)
	}

	open, err := opener(ctx, cfg)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{ReferenceMonth: refMonth, LoadedAt: time.Now()}

	if cfg.Source == "sql" {
		loader, err := OpenSQL(ctx, cfg.SQLDriver, cfg.SQLDSN)
		if err != nil {
			return nil, err
		}
		defer loader.Close()

		if snap.Events, err = loader.LoadEvents(ctx); err != nil {
			return nil, err
		}
		if snap.Regimes, err = loader.LoadRegimes(ctx); err != nil {
			return nil, err
		}
	} else {
		skipped := 0
		if err := withFile(ctx, open, cfg.EventsFile, func(r io.Reader) error {
			snap.Events, skipped, err = ReadEvents(r)
			return err
		}); err != nil {
			return nil, err
		}
		if skipped > 0 {
			log.Printf("dataset: skipped %d malformed event rows in %s", skipped, cfg.EventsFile)
		}
		if err := withFile(ctx, open, cfg.BudgetLogFile, func(r io.Reader) error {
			snap.Regimes, err = ReadBudgetLog(r)
			return err
		}); err != nil {
			return nil, err
		}
	}

	// The quality spreadsheet is always a file (local or S3); it is a
	// hand-maintained sheet, not a warehouse table.
	if err := withFile(ctx, open, cfg.QualityFile, func(r io.Reader) error {
		snap.QualityRows, err = ReadQualityRows(r)
		return err
	}); err != nil {
		return nil, err
	}

	log.Printf("dataset: loaded %d events, %d budget regimes, %d quality rows (source=%s)",
		len(snap.Events), len(snap.Regimes), len(snap.QualityRows), cfg.Source)

	return &Store{snapshot: snap}, nil
}

type openFunc func(ctx context.Context, filename string) (io.ReadCloser, error)

func opener(ctx context.Context, cfg config.DatasetConfig) (openFunc, error) {
	switch cfg.Source {
	case "s3":
		src, err := NewS3Source(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region, cfg.AWSProfile)
		if err != nil {
			return nil, err
		}
		return src.Open, nil
	case "local", "sql", "":
		return func(_ context.Context, filename string) (io.ReadCloser, error) {
			return os.Open(filepath.Join(cfg.DataDir, filename))
		}, nil
	default:
		return nil, fmt.Errorf("unknown dataset source %q", cfg.Source)
	}
}

func withFile(ctx context.Context, open openFunc, filename string, fn func(io.Reader) error) error {
	rc, err := open(ctx, filename)
	if err != nil {
		return err
	}
	defer rc.Close()
	return fn(rc)
}
