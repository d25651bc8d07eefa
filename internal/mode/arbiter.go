// Package mode holds the manual/autonomous operating mode flag.
//
// The flag is advisory. Drive commands are never refused based on it; the
// most recent command from either source wins, and an autonomous host is
// expected to check the flag and yield when a human drives manually.
package mode

import (
	"sync"

	"RoverCore/internal/model"
	"RoverCore/internal/util"
)

// Arbiter owns the process-wide operating mode. The zero value is Manual.
type Arbiter struct {
	mu   sync.RWMutex
	mode model.OperatingMode
}

// NewArbiter returns an Arbiter in Manual mode.
func NewArbiter() *Arbiter {
	return &Arbiter{mode: model.Manual}
}

// EnableAutonomous switches to Autonomous. Idempotent.
func (a *Arbiter) EnableAutonomous() { a.set(model.Autonomous) }

// DisableAutonomous switches to Manual. Idempotent.
func (a *Arbiter) DisableAutonomous() { a.set(model.Manual) }

// IsAutonomous reports whether autonomous mode is enabled.
func (a *Arbiter) IsAutonomous() bool {
	return a.Mode() == model.Autonomous
}

// Mode returns the current operating mode.
func (a *Arbiter) Mode() model.OperatingMode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

func (a *Arbiter) set(m model.OperatingMode) {
	a.mu.Lock()
	prev := a.mode
	a.mode = m
	a.mu.Unlock()
	if prev != m {
		util.Info("[mode] %s -> %s", prev, m)
	}
}
