package service

import (
	"context"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/passari/web-ui/internal/config"
	"github.com/passari/web-ui/internal/domain"
	"github.com/passari/web-ui/internal/heartbeat"
)

// HeartbeatStatus describes one heartbeat source.
type HeartbeatStatus struct {
	Source   domain.HeartbeatSource
	LastSeen *time.Time
	Interval time.Duration
	State    domain.HeartbeatState
	// LastSeenText reads like "2 hours ago", or "Never".
	LastSeenText string
	// IntervalText reads like "1 day".
	IntervalText string
}

// Recent reports whether the source reported within its interval.
func (h HeartbeatStatus) Recent() bool { return h.State == domain.HeartbeatActive }

// SystemStatus is a snapshot of all heartbeats.
type SystemStatus struct {
	Heartbeats []HeartbeatStatus
}

// AllOK is true when every source has reported recently. A source that never
// reported is not OK.
func (s *SystemStatus) AllOK() bool {
	for _, hb := range s.Heartbeats {
		if hb.State != domain.HeartbeatActive {
			return false
		}
	}
	return true
}

// AnyOverdue is true when a source that has reported before is late.
// Sources that never reported don't count.
func (s *SystemStatus) AnyOverdue() bool {
	for _, hb := range s.Heartbeats {
		if hb.State == domain.HeartbeatInactive {
			return true
		}
	}
	return false
}

// SystemStatusService classifies heartbeats against their expected intervals.
type SystemStatusService struct {
	store heartbeat.Store
	cfg   config.HeartbeatConfig
	now   func() time.Time
}

// NewSystemStatusService builds the service.
func NewSystemStatusService(store heartbeat.Store, cfg config.HeartbeatConfig) *SystemStatusService {
	return &SystemStatusService{store: store, cfg: cfg, now: time.Now}
}

// Status reads the heartbeats and classifies each of them.
func (s *SystemStatusService) Status(ctx context.Context) (*SystemStatus, error) {
	beats, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	return BuildSystemStatus(beats, s.cfg, s.now()), nil
}

// BuildSystemStatus classifies heartbeats as of now.
func BuildSystemStatus(beats domain.Heartbeats, cfg config.HeartbeatConfig, now time.Time) *SystemStatus {
	status := &SystemStatus{}
	for _, source := range domain.HeartbeatSources {
		interval := cfg.Interval(string(source))
		last := beats[source]
		hb := HeartbeatStatus{
			Source:       source,
			LastSeen:     last,
			Interval:     interval,
			State:        ClassifyHeartbeat(last, interval, now),
			LastSeenText: "Never",
			IntervalText: strings.TrimSpace(humanize.RelTime(now.Add(-interval), now, "", "")),
		}
		if last != nil {
			hb.LastSeenText = humanize.RelTime(*last, now, "ago", "from now")
		}
		status.Heartbeats = append(status.Heartbeats, hb)
	}
	return status
}

// ClassifyHeartbeat returns active when the heartbeat is newer than interval,
// inactive when it is older and never-run when there is none.
func ClassifyHeartbeat(last *time.Time, interval time.Duration, now time.Time) domain.HeartbeatState {
	if last == nil {
		return domain.HeartbeatNeverRun
	}
	if last.After(now.Add(-interval)) {
		return domain.HeartbeatActive
	}
	return domain.HeartbeatInactive
}
