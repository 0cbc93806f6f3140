package dataset

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"
)

// ReplayOptions configures a multi-root trace replay.
type ReplayOptions struct {
	Roots      map[string][]string
	Seed       int64
	Passes     int
	NumWorkers int
	PendingCap int
}

// Tick is one replayed record tagged with the episode (shard) it came from.
// Episodes are numbered in delivery order starting at 0.
type Tick struct {
	Episode int64
	Shard   string
	Record
}

// StartReplay streams every shard under opts.Roots, Passes times. Shards are
// read concurrently but delivered one whole shard at a time in a
// deterministic round-robin order across roots.
func StartReplay(parent context.Context, opts ReplayOptions) (<-chan Tick, <-chan error, error) {
	if len(opts.Roots) == 0 {
		return nil, nil, errors.New("replay: no trace roots provided")
	}
	total := 0
	for _, shards := range opts.Roots {
		total += len(shards)
	}
	if total == 0 {
		return nil, nil, errors.New("replay: no shards discovered")
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 1
	}
	if opts.PendingCap <= 0 {
		opts.PendingCap = defaultPendingCap
	}
	if opts.Passes <= 0 {
		opts.Passes = 1
	}
	if opts.Seed == 0 {
		opts.Seed = 42
	}

	ctx, cancel := context.WithCancel(parent)

	jobs := make(chan shardJob, opts.NumWorkers)
	cursors := make(chan shardCursor, opts.NumWorkers)
	out := make(chan Tick, opts.NumWorkers*2)
	errCh := make(chan error, 1)

	rng := rand.New(rand.NewSource(opts.Seed))

	go produceJobs(ctx, jobs, opts.Roots, opts.Passes, rng)

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(ctx, jobs, cursors, opts.PendingCap)
		}()
	}

	go func() {
		wg.Wait()
		close(cursors)
	}()

	go func() {
		defer cancel()
		defer close(out)
		defer close(errCh)
		if err := runAggregator(ctx, cursors, out); err != nil {
			errCh <- err
		}
	}()

	return out, errCh, nil
}

type shardJob struct {
	id   int64
	path string
}

type shardCursor struct {
	job     shardJob
	records <-chan Record
	errCh   <-chan error
}

func worker(ctx context.Context, jobs <-chan shardJob, cursors chan<- shardCursor, pendingCap int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			records, errCh := StreamShard(ctx, job.path, pendingCap)
			select {
			case <-ctx.Done():
				return
			case cursors <- shardCursor{job: job, records: records, errCh: errCh}:
			}
		}
	}
}

// runAggregator forwards shards strictly in job order, holding cursors that
// arrive early until their turn.
func runAggregator(ctx context.Context, cursors <-chan shardCursor, out chan<- Tick) error {
	pending := make(map[int64]shardCursor)
	var nextID int64
	for {
		cursor, ok := pending[nextID]
		if !ok {
			select {
			case <-ctx.Done():
				return nil
			case c, open := <-cursors:
				if !open {
					return nil
				}
				pending[c.job.id] = c
			}
			continue
		}

		for rec := range cursor.records {
			select {
			case <-ctx.Done():
				return nil
			case out <- Tick{Episode: cursor.job.id, Shard: cursor.job.path, Record: rec}:
			}
		}
		if err := <-cursor.errCh; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		delete(pending, nextID)
		nextID++
	}
}

func produceJobs(ctx context.Context, jobs chan<- shardJob, roots map[string][]string, passes int, rng *rand.Rand) {
	defer close(jobs)
	var jobID int64
	for pass := 0; pass < passes; pass++ {
		for _, path := range buildRoundRobinOrder(roots, rng) {
			select {
			case <-ctx.Done():
				return
			case jobs <- shardJob{id: jobID, path: path}:
				jobID++
			}
		}
	}
}

// buildRoundRobinOrder shuffles each root's shards and then takes one shard
// per root in sorted root order until every root is exhausted.
func buildRoundRobinOrder(roots map[string][]string, rng *rand.Rand) []string {
	rootNames := make([]string, 0, len(roots))
	copied := make(map[string][]string, len(roots))
	for root, shards := range roots {
		if len(shards) == 0 {
			continue
		}
		rootNames = append(rootNames, root)
		copied[root] = append([]string(nil), shards...)
	}
	sort.Strings(rootNames)
	for _, root := range rootNames {
		shards := copied[root]
		rng.Shuffle(len(shards), func(i, j int) {
			shards[i], shards[j] = shards[j], shards[i]
		})
	}

	var order []string
	for {
		advanced := false
		for _, root := range rootNames {
			shards := copied[root]
			if len(shards) == 0 {
				continue
			}
			order = append(order, shards[0])
			copied[root] = shards[1:]
			advanced = true
		}
		if !advanced {
			break
		}
	}
	return order
}
