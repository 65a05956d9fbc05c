package dashboard

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Stats holds the simulated portal counters keyed by stat name.
type Stats map[string]int

// statRange yields Base plus a uniform value in [0, Spread).
type statRange struct {
	Base   int
	Spread int
}

var statRanges = map[string]statRange{
	"notify-users":         {Base: 100, Spread: 50},
	"notify-notifications": {Base: 1000, Spread: 500},
	"whisper-keys":         {Base: 70, Spread: 20},
	"wof-pets":             {Base: 450, Spread: 100},
	"wof-found":            {Base: 8, Spread: 5},
	"admin-users":          {Base: 3},
	"admin-activity":       {Base: 95, Spread: 5},
}

type statsBoard struct {
	mu        sync.RWMutex
	intN      func(int) int
	current   Stats
	updatedAt time.Time
}

func newStatsBoard(intN func(int) int) *statsBoard {
	if intN == nil {
		intN = rand.IntN
	}
	return &statsBoard{intN: intN}
}

func (b *statsBoard) refresh(now time.Time) {
	next := make(Stats, len(statRanges))
	for name, r := range statRanges {
		v := r.Base
		if r.Spread > 0 {
			v += b.intN(r.Spread)
		}
		next[name] = v
	}
	b.mu.Lock()
	b.current = next
	b.updatedAt = now
	b.mu.Unlock()
}

func (b *statsBoard) snapshot() (Stats, time.Time) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(Stats, len(b.current))
	for k, v := range b.current {
		out[k] = v
	}
	return out, b.updatedAt
}
