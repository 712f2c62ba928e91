package main

import "time"

// Viewer constants. The simulation itself is configured through flags.
const (
	defaultScale       = 2
	defaultTPS         = 60
	windAngleStepDeg   = 15.0
	windSpeedStep      = 2.0
	minWindSpeed       = 1.0
	amplitudeFactor    = 1.25
	timeScaleStep      = 0.25
	maxTimeScale       = 8.0
	profileDuration    = 15 * time.Second
	statsLogInterval   = 5 * time.Second
	ambientLight       = 0.25
	heightShadeWeight  = 0.45
	lightShadeWeight   = 0.55
	foamSlopeThreshold = 0.75
)

// lightDir is the normalised direction towards the sun used for shading.
var lightDir = [3]float32{0.4, 0.8, 0.45}
