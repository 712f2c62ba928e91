package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"oceanfft/internal/ocean"
)

func main() {
	cfg := NewConfig()
	cfg.Bind(flag.CommandLine)
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid flags: %v", err)
	}

	if cfg.CPUProfile != "" {
		stop, err := startCPUProfile(cfg.CPUProfile, profileDuration)
		if err != nil {
			log.Fatalf("CPU profile: %v", err)
		}
		defer stop()
	}

	noise := ocean.NewGaussianNoise(cfg.Seed, cfg.NoiseDir)
	sim, err := ocean.New(cfg.Ocean(), noise)
	if err != nil {
		log.Fatalf("ocean initialization failed: %v", err)
	}
	defer sim.Close()
	log.Printf("ocean simulator ready (device: %s, N=%d, L=%.0fm)", sim.DeviceName(), sim.Resolution(), cfg.PatchLength)

	if cfg.DumpHalf != "" {
		if err := dumpHalfFrame(cfg.DumpHalf, sim); err != nil {
			log.Fatalf("dump-half: %v", err)
		}
		log.Printf("wrote RGBA16F frame to %s", cfg.DumpHalf)
	}

	n := sim.Resolution()
	ebiten.SetWindowSize(n*cfg.Scale, n*cfg.Scale)
	ebiten.SetWindowTitle("Ocean FFT")
	ebiten.SetTPS(cfg.TPS)
	if err := ebiten.RunGame(newGame(cfg, sim)); err != nil {
		log.Printf("viewer stopped: %v", err)
	}
}

// dumpHalfFrame advances to t=0 and writes the displacement texels followed by
// the normal texels as little-endian binary16 values.
func dumpHalfFrame(path string, sim *ocean.Simulator) error {
	disp, normals, err := sim.Advance(0)
	if err != nil {
		return err
	}
	n := sim.Resolution()
	dispTexels := make([]uint16, n*n*4)
	if err := disp.PackHalf(dispTexels); err != nil {
		return err
	}
	normalTexels := make([]uint16, n*n*4)
	if err := normals.PackHalf(normalTexels); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	for _, texels := range [][]uint16{dispTexels, normalTexels} {
		if err := binary.Write(f, binary.LittleEndian, texels); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return f.Close()
}
