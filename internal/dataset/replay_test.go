package dataset

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRoundRobinOrderDeterministic(t *testing.T) {
	roots := map[string][]string{
		"/rootA": {"/rootA/shard-000000.tar", "/rootA/shard-000002.tar"},
		"/rootB": {"/rootB/shard-000001.tar"},
		"/rootC": {},
	}
	order1 := buildRoundRobinOrder(roots, rand.New(rand.NewSource(7)))
	order2 := buildRoundRobinOrder(roots, rand.New(rand.NewSource(7)))

	assert.Equal(t, order1, order2)
	require.Len(t, order1, 3)
	assert.Equal(t, "/rootA", filepath.Dir(order1[0]))
	assert.Equal(t, "/rootB", filepath.Dir(order1[1]))
	assert.Equal(t, "/rootA", filepath.Dir(order1[2]))
}

func writeEpisode(t *testing.T, path string, base float64, n int) {
	t.Helper()
	w, err := CreateShard(path)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, w.Write(NewSample([]float64{base, float64(i)}, []float64{base})))
	}
	require.NoError(t, w.Close())
}

func collectTicks(t *testing.T, opts ReplayOptions) []Tick {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, errCh, err := StartReplay(ctx, opts)
	require.NoError(t, err)

	var out []Tick
	deadline := time.After(5 * time.Second)
	for stream != nil {
		select {
		case tick, ok := <-stream:
			if !ok {
				stream = nil
				continue
			}
			out = append(out, tick)
		case <-deadline:
			t.Fatal("timed out waiting for replay")
		}
	}
	for err := range errCh {
		require.NoError(t, err)
	}
	return out
}

func TestReplayDeliversWholeShardsInOrder(t *testing.T) {
	temp := t.TempDir()
	rootA := filepath.Join(temp, "rootA")
	rootB := filepath.Join(temp, "rootB")
	writeEpisode(t, filepath.Join(rootA, ShardName(0)), 1, 5)
	writeEpisode(t, filepath.Join(rootA, ShardName(1)), 2, 3)
	writeEpisode(t, filepath.Join(rootB, ShardName(0)), 3, 4)

	roots, err := DiscoverByRoot([]string{rootA, rootB})
	require.NoError(t, err)
	opts := ReplayOptions{Roots: roots, Seed: 123, NumWorkers: 3, Passes: 2}

	run1 := collectTicks(t, opts)
	run2 := collectTicks(t, opts)
	assert.Equal(t, run1, run2, "replay must be deterministic")
	require.Len(t, run1, 2*(5+3+4))

	var episode int64
	for i, tick := range run1 {
		if i > 0 && tick.Episode != run1[i-1].Episode {
			episode++
			assert.Equal(t, episode, tick.Episode, "episodes must arrive contiguously")
		}
		if i > 0 && tick.Episode == run1[i-1].Episode {
			assert.Equal(t, run1[i-1].Sample.Input[1]+1, tick.Sample.Input[1], "records within a shard keep their order")
		}
	}
	assert.Equal(t, int64(5), episode)
}

func TestReplayRejectsEmptyRoots(t *testing.T) {
	_, _, err := StartReplay(context.Background(), ReplayOptions{})
	assert.Error(t, err)
	_, _, err = StartReplay(context.Background(), ReplayOptions{Roots: map[string][]string{"/x": nil}})
	assert.Error(t, err)
}

func TestReplayStopsOnCancel(t *testing.T) {
	root := t.TempDir()
	writeEpisode(t, filepath.Join(root, ShardName(0)), 1, 200)

	ctx, cancel := context.WithCancel(context.Background())
	stream, errCh, err := StartReplay(ctx, ReplayOptions{
		Roots:      map[string][]string{root: {filepath.Join(root, ShardName(0))}},
		NumWorkers: 1,
	})
	require.NoError(t, err)

	<-stream
	cancel()

	done := make(chan struct{})
	go func() {
		for range stream {
		}
		for range errCh {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("replay did not stop after cancel")
	}
}
