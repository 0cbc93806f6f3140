package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"adaptive-predictor/internal/config"
	"adaptive-predictor/internal/dataset"
	"adaptive-predictor/internal/sim"
	"adaptive-predictor/internal/trainer"
)

func main() {
	cfgPath := flag.String("config", "configs/demo.yaml", "Path to YAML config")
	mode := flag.String("mode", "", "Run mode: simulate or replay")
	ticks := flag.Int("ticks", 0, "Number of simulation ticks")
	seed := flag.Int64("seed", 0, "PRNG seed")
	logEvery := flag.Int("log-every", 0, "Log every N ticks")
	recordDir := flag.String("record-dir", "", "Write one trace shard per episode here")
	replayRoots := flag.String("replay-root", "", "Comma separated trace roots to replay")
	numWorkers := flag.Int("num-workers", 0, "Number of shard reader workers")

	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var roots []string
	if *replayRoots != "" {
		roots = strings.Split(*replayRoots, ",")
	}
	cfg.ApplyOverrides(config.Overrides{
		Mode:        *mode,
		Ticks:       *ticks,
		Seed:        *seed,
		LogEvery:    *logEvery,
		RecordDir:   *recordDir,
		ReplayRoots: roots,
		NumWorkers:  *numWorkers,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	engineCfg := trainer.EngineConfig{
		LearningRate:         cfg.LearningRate,
		Momentum:             cfg.Momentum,
		BufferCapacity:       cfg.BufferCapacity,
		MinSamplesToTrain:    cfg.MinSamplesToTrain,
		TrainFireProbability: cfg.TrainFireProbability,
		BatchSize:            cfg.BatchSize,
		AccuracyScale:        cfg.AccuracyScale,
		Seed:                 cfg.Seed,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Mode {
	case config.ModeSimulate:
		engine, err := trainer.NewEngine(sim.InputSize, cfg.HiddenSize, sim.OutputSize, engineCfg)
		if err != nil {
			log.Fatalf("build engine: %v", err)
		}
		summary, err := sim.Run(ctx, sim.RunConfig{
			World: sim.Config{
				Width:        cfg.ArenaWidth,
				Height:       cfg.ArenaHeight,
				EpisodeTicks: cfg.EpisodeTicks,
				Seed:         cfg.Seed,
			},
			Ticks:     cfg.Ticks,
			LogEvery:  cfg.LogEvery,
			RecordDir: cfg.RecordDir,
		}, engine)
		if err != nil {
			log.Fatalf("simulation failed: %v", err)
		}
		log.Printf("done ticks=%d episodes=%d catches=%d fires=%d accuracy=%.1f",
			summary.Ticks, summary.Episodes, summary.Catches, summary.Fires, summary.Accuracy)

	case config.ModeReplay:
		discovered, err := dataset.DiscoverByRoot(cfg.ReplayRoots)
		if err != nil {
			log.Fatalf("discover traces: %v", err)
		}
		for root, shards := range discovered {
			if len(shards) == 0 {
				log.Fatalf("no shards discovered under %s", root)
			}
			log.Printf("root=%s shards=%d", root, len(shards))
		}
		summary, err := trainer.Run(ctx, trainer.RunConfig{
			Roots:      discovered,
			Passes:     cfg.ReplayPasses,
			NumWorkers: cfg.NumWorkers,
			LogEvery:   cfg.LogEvery,
			HiddenSize: cfg.HiddenSize,
			Engine:     engineCfg,
		})
		if err != nil {
			log.Fatalf("replay failed: %v", err)
		}
		log.Printf("done ticks=%d episodes=%d fires=%d accuracy=%.1f",
			summary.Ticks, summary.Episodes, summary.Fires, summary.Accuracy)
	}
}
