package main

import (
	"flag"
	"fmt"
	"math"

	"oceanfft/internal/ocean"
)

// Config collects the command-line parameters of the viewer.
type Config struct {
	Resolution  int
	PatchLength float64
	Amplitude   float64
	Gravity     float64
	WindSpeed   float64
	WindAngle   float64
	Choppiness  float64
	Workers     int
	Backend     string

	Seed     uint64
	NoiseDir string

	Scale      int
	TPS        int
	Debug      bool
	CPUProfile string
	DumpHalf   string
}

// NewConfig returns a Config matching ocean.DefaultConfig with the wind along +x.
func NewConfig() *Config {
	d := ocean.DefaultConfig()
	return &Config{
		Resolution:  d.Resolution,
		PatchLength: d.PatchLength,
		Amplitude:   d.Amplitude,
		Gravity:     d.Gravity,
		WindSpeed:   d.WindSpeed,
		Choppiness:  d.Choppiness,
		Backend:     d.Backend,
		Seed:        1,
		Scale:       defaultScale,
		TPS:         defaultTPS,
	}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.IntVar(&c.Resolution, "resolution", c.Resolution, "grid resolution N (power of two)")
	fs.Float64Var(&c.PatchLength, "patch", c.PatchLength, "patch length L in metres")
	fs.Float64Var(&c.Amplitude, "amplitude", c.Amplitude, "Phillips amplitude A")
	fs.Float64Var(&c.Gravity, "gravity", c.Gravity, "gravitational acceleration")
	fs.Float64Var(&c.WindSpeed, "wind-speed", c.WindSpeed, "wind speed in m/s")
	fs.Float64Var(&c.WindAngle, "wind-deg", c.WindAngle, "wind heading in degrees from +x")
	fs.Float64Var(&c.Choppiness, "chop", c.Choppiness, "horizontal displacement scale")
	fs.IntVar(&c.Workers, "workers", c.Workers, "worker goroutines per stage (0 = NumCPU)")
	fs.StringVar(&c.Backend, "backend", c.Backend, "FFT backend: cpu or opencl")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "noise seed")
	fs.StringVar(&c.NoiseDir, "noise-dir", c.NoiseDir, "directory to cache noise grids in (empty disables)")
	fs.IntVar(&c.Scale, "scale", c.Scale, "window pixel scale")
	fs.IntVar(&c.TPS, "tps", c.TPS, "ticks per second")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "show FPS and surface statistics overlay")
	fs.StringVar(&c.CPUProfile, "cpuprofile", c.CPUProfile, "write a CPU profile of the first seconds to this file")
	fs.StringVar(&c.DumpHalf, "dump-half", c.DumpHalf, "write the first frame as RGBA16F displacement and normal data to this file")
}

// Ocean converts the flags into a simulator configuration.
func (c *Config) Ocean() ocean.Config {
	rad := c.WindAngle * math.Pi / 180
	return ocean.Config{
		Resolution:    c.Resolution,
		PatchLength:   c.PatchLength,
		Amplitude:     c.Amplitude,
		Gravity:       c.Gravity,
		WindSpeed:     c.WindSpeed,
		WindDirection: [2]float64{math.Cos(rad), math.Sin(rad)},
		Choppiness:    c.Choppiness,
		Workers:       c.Workers,
		Backend:       c.Backend,
	}
}

// Validate checks the viewer-only settings; the rest is checked by ocean.New.
func (c *Config) Validate() error {
	if c.Scale < 1 {
		return fmt.Errorf("scale %d must be at least 1", c.Scale)
	}
	if c.TPS < 1 {
		return fmt.Errorf("tps %d must be at least 1", c.TPS)
	}
	return nil
}
