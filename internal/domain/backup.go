package domain

import (
	"context"
	"time"
)

// Backup describes one produced dump file for the duration of a single run.
type Backup struct {
	Filename  string
	LocalPath string
	Size      int64
	CreatedAt time.Time
}

// Dumper produces a gzip-compressed SQL dump at outputPath.
type Dumper interface {
	Dump(ctx context.Context, outputPath string) error
	Ping(ctx context.Context) error
	Name() string
}
