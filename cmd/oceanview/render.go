package main

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"oceanfft/internal/ocean"
)

var (
	deepColor = mgl32.Vec3{0.02, 0.10, 0.22}
	peakColor = mgl32.Vec3{0.15, 0.45, 0.60}
	foamColor = mgl32.Vec3{0.90, 0.95, 1.00}
)

// Draw blits the shaded surface and the optional overlay.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.WritePixels(g.pixels)

	if g.cfg.Debug || g.status != "" {
		msg := fmt.Sprintf("FPS: %.1f  TPS: %.1f\nDevice: %s  N=%d\nTick: %.2f ms  t=%.1fs x%.2f\nWind: %.1f m/s @ %.0f deg  A=%.3g  chop=%.1f\nHeight: mean %.3f var %.3f [%.2f, %.2f]",
			ebiten.ActualFPS(), ebiten.ActualTPS(), g.sim.DeviceName(), g.n,
			g.lastTick.Seconds()*1000, g.simTime, g.timeScale,
			g.windSpeed, g.windAngle, g.amplitude, g.chop,
			g.stats.Mean, g.stats.Variance, g.stats.Min, g.stats.Max)
		if g.status != "" {
			msg += "\n" + g.status
		}
		ebitenutil.DebugPrint(screen, msg)
	}
}

// shadeSurface writes RGBA pixels for the displacement and normal fields:
// colour follows height relative to the current range, brightness follows a
// Lambert term, and steep texels blend towards foam.
func shadeSurface(dst []byte, disp *ocean.DisplacementField, normals *ocean.NormalField, stats ocean.Stats) {
	if len(dst) != len(disp.Data)*4 || len(normals.Data) != len(disp.Data) {
		return
	}
	light := mgl32.Vec3(lightDir).Normalize()
	span := float32(stats.Max - stats.Min)
	for i, d := range disp.Data {
		rel := float32(0.5)
		if span > 0 {
			rel = (d.Y() - float32(stats.Min)) / span
		}
		n := normals.Data[i]
		lambert := max(n.Dot(light), 0)
		c := deepColor.Add(peakColor.Sub(deepColor).Mul(rel))
		c = c.Mul(ambientLight + heightShadeWeight*rel + lightShadeWeight*lambert)
		if n.Y() < foamSlopeThreshold {
			t := (foamSlopeThreshold - n.Y()) / foamSlopeThreshold
			c = c.Add(foamColor.Sub(c).Mul(min(t, 1)))
		}
		base := i * 4
		dst[base] = toByte(c.X())
		dst[base+1] = toByte(c.Y())
		dst[base+2] = toByte(c.Z())
		dst[base+3] = 255
	}
}

func toByte(v float32) byte {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(v*255 + 0.5)
}
