package trainer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"adaptive-predictor/internal/dataset"
)

// RunConfig captures the knobs required by the replay loop.
type RunConfig struct {
	Roots      map[string][]string
	Passes     int
	NumWorkers int
	LogEvery   int
	HiddenSize int
	Engine     EngineConfig
}

// Summary reports what a run did.
type Summary struct {
	Ticks    int
	Episodes int
	Fires    int
	Accuracy float64
}

// Run replays recorded traces through a fresh engine, tick by tick, exactly
// as a live host would drive it. Every shard is one episode; the engine is
// reset between episodes. Layer widths are taken from the first record.
func Run(ctx context.Context, cfg RunConfig) (Summary, error) {
	if cfg.HiddenSize <= 0 {
		return Summary{}, errors.New("trainer: hidden size must be > 0")
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = 100
	}
	if err := cfg.Engine.Validate(); err != nil {
		return Summary{}, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, streamErr, err := dataset.StartReplay(runCtx, dataset.ReplayOptions{
		Roots:      cfg.Roots,
		Seed:       cfg.Engine.Seed,
		Passes:     cfg.Passes,
		NumWorkers: cfg.NumWorkers,
	})
	if err != nil {
		return Summary{}, err
	}

	var (
		summary Summary
		engine  *Engine
		episode int64 = -1
	)
	for tick := range stream {
		if engine == nil {
			engine, err = NewEngine(len(tick.Sample.Input), cfg.HiddenSize, len(tick.Sample.Target), cfg.Engine)
			if err != nil {
				return summary, err
			}
		}
		if tick.Episode != episode {
			if episode >= 0 {
				engine.Reset()
			}
			episode = tick.Episode
			summary.Episodes++
		}

		if _, err := engine.Predict(tick.Sample.Input); err != nil {
			return summary, fmt.Errorf("%s/%s: %w", tick.Shard, tick.Key, err)
		}
		out, err := engine.ObserveTick(tick.Sample.Input, tick.Sample.Target)
		if err != nil {
			return summary, fmt.Errorf("%s/%s: %w", tick.Shard, tick.Key, err)
		}
		summary.Ticks++
		summary.Accuracy = out.Accuracy
		if out.Fired {
			summary.Fires++
		}

		if summary.Ticks%cfg.LogEvery == 0 {
			snap := engine.Stats()
			log.Printf("step=%d episode=%d accuracy=%.1f fires=%d mean_error=%.4f train_ms=%.3f buffered=%d",
				summary.Ticks,
				summary.Episodes,
				out.Accuracy,
				snap.Fires,
				snap.MeanError,
				snap.AvgComputeMS,
				engine.Len(),
			)
		}
	}

	if err := <-streamErr; err != nil {
		return summary, err
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}
