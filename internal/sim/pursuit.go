package sim

import (
	"fmt"
	"math"
	"math/rand"

	"adaptive-predictor/internal/dataset"
	"adaptive-predictor/internal/metrics"
)

const (
	// InputSize is the length of the agent's observation vector.
	InputSize = 6
	// OutputSize is the length of the agent's action vector.
	OutputSize = 2

	bodyRadius      = 15
	agentSpeed      = 3
	playerEase      = 0.1
	lookahead       = 10
	velocityNorm    = 10
	retargetChance  = 0.02
	waypointReached = 5
)

// Brain is the learning engine as seen by the host.
type Brain interface {
	Predict(input []float64) ([]float64, error)
	Observe(input, target []float64) (float64, error)
	Reset()
	Stats() metrics.Snapshot
}

// Config describes the arena.
type Config struct {
	Width        float64
	Height       float64
	EpisodeTicks int
	Seed         int64
}

type body struct {
	x, y   float64
	vx, vy float64
}

// Step reports what happened on one tick.
type Step struct {
	Input    []float64
	Target   []float64
	Accuracy float64
	Distance float64
	Caught   bool
	Restart  bool
}

// World is a headless pursuit arena: a wandering player and a learning
// agent that heads for wherever its brain predicts the player will be.
type World struct {
	cfg      Config
	brain    Brain
	rng      *rand.Rand
	player   body
	agent    body
	waypoint [2]float64
	episode  int
	elapsed  int
}

// NewWorld returns a world in its starting position.
func NewWorld(cfg Config, brain Brain) (*World, error) {
	if cfg.Width <= 2*bodyRadius || cfg.Height <= 2*bodyRadius {
		return nil, fmt.Errorf("sim: arena %vx%v too small", cfg.Width, cfg.Height)
	}
	if cfg.EpisodeTicks <= 0 {
		return nil, fmt.Errorf("sim: episode ticks must be > 0 (got %d)", cfg.EpisodeTicks)
	}
	w := &World{cfg: cfg, brain: brain, rng: rand.New(rand.NewSource(cfg.Seed))}
	w.place()
	return w, nil
}

// Episode returns the zero-based index of the current episode.
func (w *World) Episode() int { return w.episode }

func (w *World) place() {
	w.player = body{x: w.cfg.Width / 2, y: w.cfg.Height / 2}
	w.agent = body{x: w.cfg.Width / 4, y: w.cfg.Height / 4}
	w.waypoint = [2]float64{w.player.x, w.player.y}
	w.elapsed = 0
}

// restart begins a new episode. The brain forgets its samples and accuracy
// but keeps what it learned.
func (w *World) restart() {
	w.place()
	w.episode++
	w.brain.Reset()
}

// Step advances the world by one tick.
func (w *World) Step() (Step, error) {
	w.movePlayer()

	input := w.observation()
	action, err := w.brain.Predict(input)
	if err != nil {
		return Step{}, fmt.Errorf("predict: %w", err)
	}
	w.moveAgent(action)

	target := w.forecast()
	acc, err := w.brain.Observe(input, target)
	if err != nil {
		return Step{}, fmt.Errorf("observe: %w", err)
	}

	w.elapsed++
	step := Step{Input: input, Target: target, Accuracy: acc, Distance: w.distance()}
	step.Caught = step.Distance < 2*bodyRadius
	if step.Caught || w.elapsed >= w.cfg.EpisodeTicks {
		step.Restart = true
		w.restart()
	}
	return step, nil
}

func (w *World) movePlayer() {
	dx := w.waypoint[0] - w.player.x
	dy := w.waypoint[1] - w.player.y
	if math.Hypot(dx, dy) < waypointReached || w.rng.Float64() < retargetChance {
		w.waypoint = [2]float64{
			bodyRadius + w.rng.Float64()*(w.cfg.Width-2*bodyRadius),
			bodyRadius + w.rng.Float64()*(w.cfg.Height-2*bodyRadius),
		}
		dx = w.waypoint[0] - w.player.x
		dy = w.waypoint[1] - w.player.y
	}
	w.player.vx = dx * playerEase
	w.player.vy = dy * playerEase
	w.player.x = clamp(w.player.x+w.player.vx, bodyRadius, w.cfg.Width-bodyRadius)
	w.player.y = clamp(w.player.y+w.player.vy, bodyRadius, w.cfg.Height-bodyRadius)
}

// moveAgent heads the agent at fixed speed toward the predicted position.
func (w *World) moveAgent(action []float64) {
	dx := action[0]*w.cfg.Width - w.agent.x
	dy := action[1]*w.cfg.Height - w.agent.y
	if dist := math.Hypot(dx, dy); dist > 0 {
		w.agent.vx = dx / dist * agentSpeed
		w.agent.vy = dy / dist * agentSpeed
	}
	w.agent.x = clamp(w.agent.x+w.agent.vx, bodyRadius, w.cfg.Width-bodyRadius)
	w.agent.y = clamp(w.agent.y+w.agent.vy, bodyRadius, w.cfg.Height-bodyRadius)
}

func (w *World) observation() []float64 {
	return []float64{
		w.player.x / w.cfg.Width,
		w.player.y / w.cfg.Height,
		w.player.vx / velocityNorm,
		w.player.vy / velocityNorm,
		w.agent.x / w.cfg.Width,
		w.agent.y / w.cfg.Height,
	}
}

// forecast is where the player will be after lookahead ticks at its current
// velocity, normalised to the arena.
func (w *World) forecast() []float64 {
	return []float64{
		(w.player.x + w.player.vx*lookahead) / w.cfg.Width,
		(w.player.y + w.player.vy*lookahead) / w.cfg.Height,
	}
}

func (w *World) distance() float64 {
	return math.Hypot(w.player.x-w.agent.x, w.player.y-w.agent.y)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Sample converts a step into a trace sample.
func (s Step) Sample() dataset.Sample {
	return dataset.NewSample(s.Input, s.Target)
}
