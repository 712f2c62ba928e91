package main

import (
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"sync"
	"time"
)

// startCPUProfile writes a CPU profile to path until limit elapses or the
// returned stop function runs, whichever comes first. stop is idempotent.
func startCPUProfile(path string, limit time.Duration) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("starting profile: %w", err)
	}
	var once sync.Once
	var timer *time.Timer
	stop := func() {
		once.Do(func() {
			if timer != nil {
				timer.Stop()
			}
			pprof.StopCPUProfile()
			if err := f.Close(); err != nil {
				log.Printf("closing profile %s: %v", path, err)
				return
			}
			log.Printf("CPU profile written to %s", path)
		})
	}
	if limit > 0 {
		timer = time.AfterFunc(limit, stop)
	}
	return stop, nil
}
