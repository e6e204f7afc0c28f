package monitor

import (
	"time"

	"github.com/goliatone/go-twitterkit/core"
)

// VerificationInterval is the minimum time between two sweeps on the same
// UTC day.
const VerificationInterval = 8 * time.Hour

// VerificationLease bounds how long a claimed sweep may hold the state. A
// sweep whose task was dropped or dead-lettered never ends, so its claim is
// reclaimable once the lease runs out.
const VerificationLease = time.Hour

type monitorSnapshot struct {
	lastVerification time.Time
	startedAt        time.Time
	verifying        bool
}

// MonitorState tracks the last completed sweep and whether one is running.
// The zero value is ready to use.
type MonitorState struct {
	cell core.AtomicCell[monitorSnapshot]
}

func NewMonitorState() *MonitorState {
	return &MonitorState{}
}

// BeginVerification claims the right to run a sweep at now. It never blocks.
// A claim older than VerificationLease is treated as abandoned.
func (s *MonitorState) BeginVerification(now time.Time) bool {
	for {
		current := s.cell.Load()
		if current.verifying && now.Sub(current.startedAt) < VerificationLease {
			return false
		}
		if !current.lastVerification.IsZero() &&
			now.Sub(current.lastVerification) < VerificationInterval &&
			sameUTCDay(current.lastVerification, now) {
			return false
		}
		next := monitorSnapshot{lastVerification: current.lastVerification, startedAt: now, verifying: true}
		if s.cell.CompareAndSet(current, next) {
			return true
		}
	}
}

// EndVerification records now as the last sweep and releases the claim.
func (s *MonitorState) EndVerification(now time.Time) {
	s.cell.Store(monitorSnapshot{lastVerification: now})
}

// CancelVerification releases the claim without recording a sweep.
func (s *MonitorState) CancelVerification() {
	for {
		current := s.cell.Load()
		if !current.verifying {
			return
		}
		if s.cell.CompareAndSet(current, monitorSnapshot{lastVerification: current.lastVerification}) {
			return
		}
	}
}

func (s *MonitorState) IsVerifying() bool {
	return s.cell.Load().verifying
}

func (s *MonitorState) LastVerification() time.Time {
	return s.cell.Load().lastVerification
}

func sameUTCDay(a time.Time, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
