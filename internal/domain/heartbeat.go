package domain

import "time"

// HeartbeatSource names an automated procedure that reports liveness.
type HeartbeatSource string

const (
	HeartbeatSyncProcessedSIPs HeartbeatSource = "sync_processed_sips"
	HeartbeatSyncObjects       HeartbeatSource = "sync_objects"
	HeartbeatSyncAttachments   HeartbeatSource = "sync_attachments"
	HeartbeatSyncHashes        HeartbeatSource = "sync_hashes"
)

// HeartbeatSources lists every known source.
var HeartbeatSources = []HeartbeatSource{
	HeartbeatSyncProcessedSIPs,
	HeartbeatSyncObjects,
	HeartbeatSyncAttachments,
	HeartbeatSyncHashes,
}

// Heartbeats maps each source to its last timestamp, nil when never submitted.
type Heartbeats map[HeartbeatSource]*time.Time

// HeartbeatState classifies a heartbeat against its expected interval.
type HeartbeatState string

const (
	HeartbeatActive   HeartbeatState = "active"
	HeartbeatInactive HeartbeatState = "inactive"
	HeartbeatNeverRun HeartbeatState = "never"
)
