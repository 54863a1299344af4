package sinks

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
)

// Fanout writes metadata to every configured sink. A write succeeds only when
// every sink accepts it.
type Fanout struct {
	sinks []Sink
}

// NewFanout builds a dispatcher that fans out writes across sinks.
func NewFanout(sinks []Sink) *Fanout {
	cp := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s == nil {
			continue
		}
		cp = append(cp, s)
	}
	return &Fanout{sinks: cp}
}

// Save forwards md to every sink; failures are joined and wrap domain.ErrSinkWriteFailed.
func (f *Fanout) Save(ctx context.Context, md domain.ArtifactMetadata) error {
	if f == nil || len(f.sinks) == 0 {
		return fmt.Errorf("%w: no sinks configured", domain.ErrSinkWriteFailed)
	}

	var errs []error
	for _, s := range f.sinks {
		if err := s.Save(ctx, md); err != nil {
			errs = append(errs, fmt.Errorf("%s sink[%s]: %w", s.Type(), s.ID(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrSinkWriteFailed, errors.Join(errs...))
	}
	return nil
}

// Close releases every sink.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s sink[%s]: %w", s.Type(), s.ID(), err))
		}
	}
	return errors.Join(errs...)
}

// Size returns the number of active sinks.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.sinks)
}
