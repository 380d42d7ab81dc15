package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passari/web-ui/internal/config"
	"github.com/passari/web-ui/internal/domain"
)

func TestClassifyHeartbeat(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	interval := time.Hour

	recent := now.Add(-30 * time.Minute)
	overdue := now.Add(-2 * time.Hour)
	boundary := now.Add(-interval)

	assert.Equal(t, domain.HeartbeatActive, ClassifyHeartbeat(&recent, interval, now))
	assert.Equal(t, domain.HeartbeatInactive, ClassifyHeartbeat(&overdue, interval, now))
	assert.Equal(t, domain.HeartbeatInactive, ClassifyHeartbeat(&boundary, interval, now))
	assert.Equal(t, domain.HeartbeatNeverRun, ClassifyHeartbeat(nil, interval, now))
}

func TestBuildSystemStatus(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cfg := config.HeartbeatConfig{IntervalSeconds: map[string]int{
		"sync_processed_sips": 3600,
		"sync_objects":        3600,
	}}

	twoHoursAgo := now.Add(-2 * time.Hour)
	tenMinutesAgo := now.Add(-10 * time.Minute)
	beats := domain.Heartbeats{
		domain.HeartbeatSyncProcessedSIPs: &tenMinutesAgo,
		domain.HeartbeatSyncObjects:       &twoHoursAgo,
		domain.HeartbeatSyncAttachments:   &tenMinutesAgo,
		domain.HeartbeatSyncHashes:        nil,
	}

	status := BuildSystemStatus(beats, cfg, now)
	require.Len(t, status.Heartbeats, 4)

	byName := map[domain.HeartbeatSource]HeartbeatStatus{}
	for _, hb := range status.Heartbeats {
		byName[hb.Source] = hb
	}

	assert.Equal(t, domain.HeartbeatActive, byName[domain.HeartbeatSyncProcessedSIPs].State)
	assert.Equal(t, domain.HeartbeatInactive, byName[domain.HeartbeatSyncObjects].State)
	assert.Equal(t, "2 hours ago", byName[domain.HeartbeatSyncObjects].LastSeenText)
	assert.Equal(t, domain.HeartbeatNeverRun, byName[domain.HeartbeatSyncHashes].State)
	assert.Equal(t, "Never", byName[domain.HeartbeatSyncHashes].LastSeenText)

	// Unconfigured sources fall back to a day.
	assert.Equal(t, 24*time.Hour, byName[domain.HeartbeatSyncAttachments].Interval)
	assert.Equal(t, "1 day", byName[domain.HeartbeatSyncAttachments].IntervalText)
	assert.Equal(t, "1 hour", byName[domain.HeartbeatSyncObjects].IntervalText)

	assert.False(t, status.AllOK())
	assert.True(t, status.AnyOverdue())
}

func TestSystemStatusNeverRunIsNotOverdue(t *testing.T) {
	now := time.Now()
	recent := now.Add(-time.Minute)
	status := BuildSystemStatus(domain.Heartbeats{
		domain.HeartbeatSyncProcessedSIPs: &recent,
	}, config.HeartbeatConfig{}, now)

	assert.False(t, status.AllOK())
	assert.False(t, status.AnyOverdue())

	all := domain.Heartbeats{}
	for _, source := range domain.HeartbeatSources {
		all[source] = &recent
	}
	status = BuildSystemStatus(all, config.HeartbeatConfig{}, now)
	assert.True(t, status.AllOK())
	assert.False(t, status.AnyOverdue())
}
