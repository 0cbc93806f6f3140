package sim

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"adaptive-predictor/internal/dataset"
)

// RunConfig captures the knobs required by a simulation run.
type RunConfig struct {
	World    Config
	Ticks    int
	LogEvery int
	// RecordDir, when set, receives one trace shard per episode.
	RecordDir string
}

// Summary reports what a run did.
type Summary struct {
	Ticks    int
	Episodes int
	Catches  int
	Fires    int
	Accuracy float64
}

// Run drives brain through cfg.Ticks simulation ticks.
func Run(ctx context.Context, cfg RunConfig, brain Brain) (Summary, error) {
	if cfg.Ticks <= 0 {
		return Summary{}, errors.New("sim: ticks must be > 0")
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = 100
	}

	world, err := NewWorld(cfg.World, brain)
	if err != nil {
		return Summary{}, err
	}

	var rec *ShardRecorder
	if cfg.RecordDir != "" {
		rec, err = NewShardRecorder(cfg.RecordDir)
		if err != nil {
			return Summary{}, err
		}
		defer rec.Close()
	}

	summary := Summary{Episodes: 1}
	for tick := 1; tick <= cfg.Ticks; tick++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		episode := world.Episode()
		step, err := world.Step()
		if err != nil {
			return summary, fmt.Errorf("tick %d: %w", tick, err)
		}
		if rec != nil {
			if err := rec.Record(episode, step.Sample()); err != nil {
				return summary, err
			}
		}

		summary.Ticks = tick
		summary.Accuracy = step.Accuracy
		if step.Caught {
			summary.Catches++
		}
		if step.Restart && tick < cfg.Ticks {
			summary.Episodes++
		}

		if tick%cfg.LogEvery == 0 {
			snap := brain.Stats()
			summary.Fires += snap.Fires
			log.Printf("tick=%d episode=%d accuracy=%.1f fires=%d mean_error=%.4f train_ms=%.3f distance=%.1f catches=%d",
				tick,
				summary.Episodes,
				step.Accuracy,
				snap.Fires,
				snap.MeanError,
				snap.AvgComputeMS,
				step.Distance,
				summary.Catches,
			)
		}
	}
	summary.Fires += brain.Stats().Fires

	if rec != nil {
		if err := rec.Close(); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// ShardRecorder writes each episode's samples to its own trace shard.
type ShardRecorder struct {
	dir     string
	base    int
	episode int
	w       *dataset.ShardWriter
}

// NewShardRecorder records into dir, numbering shards after any already
// present there.
func NewShardRecorder(dir string) (*ShardRecorder, error) {
	base, err := dataset.NextShardIndex(dir)
	if err != nil {
		return nil, err
	}
	return &ShardRecorder{dir: dir, base: base, episode: -1}, nil
}

// Record appends s to the shard of the given episode, opening a new shard
// when the episode changes.
func (r *ShardRecorder) Record(episode int, s dataset.Sample) error {
	if r.w == nil || episode != r.episode {
		if err := r.Close(); err != nil {
			return err
		}
		w, err := dataset.CreateShard(filepath.Join(r.dir, dataset.ShardName(r.base+episode)))
		if err != nil {
			return err
		}
		r.w = w
		r.episode = episode
	}
	return r.w.Write(s)
}

// Close finishes the open shard, if any. It is safe to call more than once.
func (r *ShardRecorder) Close() error {
	if r.w == nil {
		return nil
	}
	err := r.w.Close()
	r.w = nil
	if err != nil {
		return fmt.Errorf("close shard: %w", err)
	}
	return nil
}
