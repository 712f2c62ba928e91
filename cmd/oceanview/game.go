package main

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"oceanfft/internal/ocean"
)

// Game drives one ocean patch at a fixed tick rate and keeps the pixels of
// the last published surface.
type Game struct {
	cfg *Config
	sim *ocean.Simulator
	n   int

	simTime   float64
	timeScale float64
	paused    bool

	windSpeed float64
	windAngle float64
	amplitude float64
	chop      float64

	pixels   []byte
	stats    ocean.Stats
	lastTick time.Duration
	lastLog  time.Time
	status   string
}

func newGame(cfg *Config, sim *ocean.Simulator) *Game {
	n := sim.Resolution()
	return &Game{
		cfg:       cfg,
		sim:       sim,
		n:         n,
		timeScale: 1,
		windSpeed: cfg.WindSpeed,
		windAngle: cfg.WindAngle,
		amplitude: cfg.Amplitude,
		chop:      cfg.Choppiness,
		pixels:    make([]byte, n*n*4),
	}
}

// Update advances the simulation clock by one tick and runs the simulator.
func (g *Game) Update() error {
	if err := g.handleControls(); err != nil {
		// A rejected parameter is reported on screen; the simulation goes on.
		g.status = err.Error()
	}
	if !g.paused {
		g.simTime += g.timeScale / float64(ebiten.TPS())
	}

	start := time.Now()
	disp, normals, err := g.sim.Advance(g.simTime)
	if err != nil {
		return fmt.Errorf("advancing ocean at t=%.3f: %w", g.simTime, err)
	}
	g.lastTick = time.Since(start)
	g.stats = g.sim.Stats()
	shadeSurface(g.pixels, disp, normals, g.stats)

	if now := time.Now(); now.Sub(g.lastLog) >= statsLogInterval {
		log.Printf("tick %d t=%.1fs: height mean %.3f var %.3f range [%.2f, %.2f], %.2f ms",
			g.sim.Ticks(), g.simTime, g.stats.Mean, g.stats.Variance, g.stats.Min, g.stats.Max,
			g.lastTick.Seconds()*1000)
		g.lastLog = now
	}
	return nil
}

// handleControls applies key presses. Wind and amplitude changes take effect
// on the next Advance.
func (g *Game) handleControls() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.paused = !g.paused
	case inpututil.IsKeyJustPressed(ebiten.KeyLeft):
		return g.setWind(g.windSpeed, g.windAngle-windAngleStepDeg)
	case inpututil.IsKeyJustPressed(ebiten.KeyRight):
		return g.setWind(g.windSpeed, g.windAngle+windAngleStepDeg)
	case inpututil.IsKeyJustPressed(ebiten.KeyUp):
		return g.setWind(g.windSpeed+windSpeedStep, g.windAngle)
	case inpututil.IsKeyJustPressed(ebiten.KeyDown):
		return g.setWind(math.Max(minWindSpeed, g.windSpeed-windSpeedStep), g.windAngle)
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyKPAdd):
		return g.setAmplitude(g.amplitude * amplitudeFactor)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract):
		return g.setAmplitude(g.amplitude / amplitudeFactor)
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		chop := 1.0
		if g.chop > 0 {
			chop = 0
		}
		if err := g.sim.SetChoppiness(chop); err != nil {
			return err
		}
		g.chop = chop
	case inpututil.IsKeyJustPressed(ebiten.KeyPeriod):
		g.timeScale = math.Min(maxTimeScale, g.timeScale+timeScaleStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyComma):
		g.timeScale = math.Max(timeScaleStep, g.timeScale-timeScaleStep)
	}
	return nil
}

func (g *Game) setWind(speed, angle float64) error {
	rad := angle * math.Pi / 180
	if err := g.sim.SetWind(speed, [2]float64{math.Cos(rad), math.Sin(rad)}); err != nil {
		return err
	}
	g.windSpeed, g.windAngle = speed, math.Mod(angle+360, 360)
	g.status = ""
	return nil
}

func (g *Game) setAmplitude(amplitude float64) error {
	if err := g.sim.SetAmplitude(amplitude); err != nil {
		return err
	}
	g.amplitude = amplitude
	g.status = ""
	return nil
}

// Layout reports the logical screen size, one pixel per texel.
func (g *Game) Layout(_, _ int) (int, int) { return g.n, g.n }
