package usecase

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/aulianza/dbarc/internal/domain"
)

// Retention deletes remote backups older than the configured number of
// days. It runs after a successful backup and never fails the run that
// produced a good dump.
type Retention struct {
	storage       domain.Storage
	logger        Logger
	retentionDays int
}

func NewRetention(storage domain.Storage, logger Logger, retentionDays int) *Retention {
	return &Retention{
		storage:       storage,
		logger:        logger,
		retentionDays: retentionDays,
	}
}

func (uc *Retention) Execute(ctx context.Context) error {
	if uc.retentionDays <= 0 {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -uc.retentionDays)
	uc.logger.Infof("Starting retention sweep, cutoff: %s", cutoff.Format(time.RFC3339))

	files, err := uc.storage.GetOldFiles(ctx, cutoff)
	if err != nil {
		files, err = uc.fallbackListFiles(ctx, cutoff)
		if err != nil {
			return err
		}
	}

	deleted := 0
	for _, filename := range files {
		uc.logger.Infof("Deleting old backup: %s", filename)
		if err := uc.storage.Delete(ctx, filename); err != nil {
			uc.logger.Errorf("Failed to delete %s: %v", filename, err)
		} else {
			deleted++
		}
	}

	uc.logger.Infof("Retention sweep done, deleted %d old backup(s)", deleted)
	return nil
}

// fallbackListFiles derives ages from the filenames when the storage
// backend cannot report modification times.
func (uc *Retention) fallbackListFiles(ctx context.Context, cutoff time.Time) ([]string, error) {
	files, err := uc.storage.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	oldFiles := make([]string, 0)
	for _, filename := range files {
		timestamp, err := extractTimestamp(filename)
		if err != nil {
			uc.logger.Warnf("Could not parse timestamp from %s: %v", filename, err)
			continue
		}

		if timestamp.Before(cutoff) {
			oldFiles = append(oldFiles, filename)
		}
	}

	return oldFiles, nil
}

var filenameStamp = regexp.MustCompile(`backup-(\d{4}-\d{2}-\d{2})T(\d{2})-(\d{2})-(\d{2})Z`)

// extractTimestamp reverses the Filename derivation.
func extractTimestamp(filename string) (time.Time, error) {
	matches := filenameStamp.FindStringSubmatch(filename)
	if len(matches) < 5 {
		return time.Time{}, fmt.Errorf("invalid filename format: no timestamp found")
	}

	stamp := fmt.Sprintf("%sT%s:%s:%sZ", matches[1], matches[2], matches[3], matches[4])
	return time.Parse(time.RFC3339, stamp)
}
