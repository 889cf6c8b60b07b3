package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brunoga/deep"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/takeoff/internal/config"
	"github.com/san-kum/takeoff/internal/log"
)

// Sweep runs base once per wind speed, concurrently. Controllers and
// integrators hold state, so every run gets its own experiment.
func Sweep(ctx context.Context, base *config.Config, winds []float64, lg *log.Logger) ([]*Outcome, error) {
	out := make([]*Outcome, len(winds))
	g, ctx := errgroup.WithContext(ctx)
	for i, w := range winds {
		i, w := i, w
		g.Go(func() error {
			cfg := deep.MustCopy(base)
			cfg.WindSpeed = w
			e, err := New(cfg, lg.With(slog.Float64("wind", w)))
			if err != nil {
				return fmt.Errorf("wind %g: %w", w, err)
			}
			if out[i], err = e.Run(ctx); err != nil {
				return fmt.Errorf("wind %g: %w", w, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
