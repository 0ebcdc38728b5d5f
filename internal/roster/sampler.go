// Package roster periodically samples the profile store and publishes
// membership gauges.
package roster

import (
	"context"
	"log/slog"
	"time"

	"github.com/sparkfbla/chapter/internal/metrics"
	"github.com/sparkfbla/chapter/internal/profile"
)

// Lister reads every profile with elevated access.
type Lister interface {
	List(ctx context.Context) ([]profile.Profile, error)
}

// Snapshot is the result of one sample.
type Snapshot struct {
	ByRole  map[profile.Role]int
	Pending int
}

// Sampler polls the profile store on an interval.
type Sampler struct {
	profiles Lister
	metrics  *metrics.Metrics
	interval time.Duration
}

// NewSampler creates a new Sampler.
func NewSampler(profiles Lister, m *metrics.Metrics, interval time.Duration) *Sampler {
	return &Sampler{
		profiles: profiles,
		metrics:  m,
		interval: interval,
	}
}

// Start samples immediately and then on every tick. It blocks until ctx is cancelled.
func (s *Sampler) Start(ctx context.Context) {
	slog.Info("roster sampler started", "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sample(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("roster sampler stopped")
			return
		case <-ticker.C:
			s.sample(ctx)
		}
	}
}

func (s *Sampler) sample(ctx context.Context) {
	snap, err := s.Sample(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("roster sampler: failed to list profiles", "error", err)
		}
		return
	}

	counts := make(map[string]int, len(snap.ByRole))
	for role, n := range snap.ByRole {
		counts[role.String()] = n
	}
	s.metrics.SetRoster(counts, snap.Pending)
	slog.Debug("roster sampled", "pending", snap.Pending)
}

// Sample reads the store once and summarises it.
func (s *Sampler) Sample(ctx context.Context) (Snapshot, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Summarise(profiles), nil
}

// Summarise counts profiles by effective role. A request is pending while
// requested_role is set and differs from the effective role.
func Summarise(profiles []profile.Profile) Snapshot {
	snap := Snapshot{ByRole: make(map[profile.Role]int)}
	for i := range profiles {
		p := &profiles[i]
		role := p.EffectiveRole()
		snap.ByRole[role]++
		if p.RequestedRole != nil && *p.RequestedRole != "" && *p.RequestedRole != role {
			snap.Pending++
		}
	}
	return snap
}
