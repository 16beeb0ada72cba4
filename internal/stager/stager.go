// Package stager copies the bridge payload into the directory the
// launcher runs it from.
package stager

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/d2verb/toolbridge/internal/logging"
	"github.com/viant/afs"
)

// Stager deploys a payload from Source to Dest.
type Stager struct {
	fs     afs.Service
	source string
	dest   string
	logger *slog.Logger
}

// New creates a stager. Source and dest are local paths or afs URLs.
func New(source, dest string, logger *slog.Logger) *Stager {
	return &Stager{
		fs:     afs.New(),
		source: source,
		dest:   dest,
		logger: logging.OrDiscard(logger),
	}
}

// Deploy copies the payload, replacing anything already at the destination.
func (s *Stager) Deploy(ctx context.Context) error {
	ok, err := s.fs.Exists(ctx, s.source)
	if err != nil {
		return fmt.Errorf("check payload %s: %w", s.source, err)
	}
	if !ok {
		return fmt.Errorf("payload %s not found", s.source)
	}

	if exists, _ := s.fs.Exists(ctx, s.dest); exists {
		if err := s.fs.Delete(ctx, s.dest); err != nil {
			return fmt.Errorf("remove old payload %s: %w", s.dest, err)
		}
	}
	if err := s.fs.Copy(ctx, s.source, s.dest); err != nil {
		return fmt.Errorf("copy payload to %s: %w", s.dest, err)
	}
	s.logger.Info("bridge payload deployed", "source", s.source, "dest", s.dest)
	return nil
}
