// Package queue reads and writes the workflow's job queues. The layout
// follows rq: a list of pending job ids per queue, sorted-set registries for
// started and failed jobs, and one hash per job.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/passari/web-ui/internal/domain"
)

const (
	keyPrefix     = "rq:"
	queuesSetKey  = keyPrefix + "queues"
	jobFuncPrefix = "passari_workflow.jobs."
)

// QueueKey is the list holding pending job ids of a queue.
func QueueKey(q domain.QueueType) string { return keyPrefix + "queue:" + string(q) }

// StartedRegistryKey is the sorted set of jobs a worker has picked up.
func StartedRegistryKey(q domain.QueueType) string { return keyPrefix + "wip:" + string(q) }

// FailedRegistryKey is the sorted set of jobs that raised an error.
func FailedRegistryKey(q domain.QueueType) string { return keyPrefix + "failed:" + string(q) }

// JobKey is the hash describing a single job.
func JobKey(jobID string) string { return keyPrefix + "job:" + jobID }

// Backend exposes the queue operations the web UI needs.
type Backend interface {
	PendingCount(ctx context.Context, q domain.QueueType) (int64, error)
	StartedCount(ctx context.Context, q domain.QueueType) (int64, error)
	FailedCount(ctx context.Context) (int64, error)
	ObjectIDToQueues(ctx context.Context, objectIDs []int64) (map[int64][]string, error)
	EnqueuedObjectIDs(ctx context.Context) ([]int64, error)
	StartedObjectIDs(ctx context.Context, objectIDs []int64) ([]int64, error)
	Push(ctx context.Context, q domain.QueueType, objectID int64) (string, error)
	RemovePendingJobs(ctx context.Context, objectIDs []int64) (int64, error)
}

type redisBackend struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisBackend returns a Backend on top of the shared Redis client.
func NewRedisBackend(client *redis.Client) Backend {
	return &redisBackend{client: client, now: time.Now}
}

func (b *redisBackend) PendingCount(ctx context.Context, q domain.QueueType) (int64, error) {
	return b.client.LLen(ctx, QueueKey(q)).Result()
}

func (b *redisBackend) StartedCount(ctx context.Context, q domain.QueueType) (int64, error) {
	return b.client.ZCard(ctx, StartedRegistryKey(q)).Result()
}

// FailedCount sums the failed registries of every queue.
func (b *redisBackend) FailedCount(ctx context.Context) (int64, error) {
	pipe := b.client.Pipeline()
	cmds := make([]*redis.IntCmd, 0, len(domain.QueueTypes))
	for _, q := range domain.QueueTypes {
		cmds = append(cmds, pipe.ZCard(ctx, FailedRegistryKey(q)))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return 0, fmt.Errorf("count failed jobs: %w", err)
	}

	var total int64
	for _, cmd := range cmds {
		total += cmd.Val()
	}
	return total, nil
}

// jobLocations maps every object id that has a job in the workflow to the
// queues holding it, in pipeline order. Failed jobs are reported under
// domain.FailedQueueName.
func (b *redisBackend) jobLocations(ctx context.Context, includeFailed bool) (map[int64][]string, error) {
	type location struct {
		name string
		cmd  *redis.StringSliceCmd
	}

	pipe := b.client.Pipeline()
	var locations []location
	for _, q := range domain.QueueTypes {
		locations = append(locations,
			location{name: string(q), cmd: pipe.LRange(ctx, QueueKey(q), 0, -1)},
			location{name: string(q), cmd: pipe.ZRange(ctx, StartedRegistryKey(q), 0, -1)},
		)
	}
	if includeFailed {
		for _, q := range domain.QueueTypes {
			locations = append(locations,
				location{name: domain.FailedQueueName, cmd: pipe.ZRange(ctx, FailedRegistryKey(q), 0, -1)})
		}
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("read job registries: %w", err)
	}

	result := map[int64][]string{}
	for _, loc := range locations {
		for _, jobID := range loc.cmd.Val() {
			id, ok := domain.ObjectIDFromJobID(jobID)
			if !ok || contains(result[id], loc.name) {
				continue
			}
			result[id] = append(result[id], loc.name)
		}
	}
	return result, nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// ObjectIDToQueues returns the queue names of every given object that is
// currently in the workflow. Objects without a job are absent from the map.
func (b *redisBackend) ObjectIDToQueues(ctx context.Context, objectIDs []int64) (map[int64][]string, error) {
	result := map[int64][]string{}
	if len(objectIDs) == 0 {
		return result, nil
	}
	all, err := b.jobLocations(ctx, true)
	if err != nil {
		return nil, err
	}
	for _, id := range objectIDs {
		if names, ok := all[id]; ok {
			result[id] = names
		}
	}
	return result, nil
}

// EnqueuedObjectIDs lists objects with a pending, started or failed job.
func (b *redisBackend) EnqueuedObjectIDs(ctx context.Context) ([]int64, error) {
	all, err := b.jobLocations(ctx, true)
	if err != nil {
		return nil, err
	}
	return sortedKeys(all), nil
}

// StartedObjectIDs returns the subset of objectIDs a worker is processing.
func (b *redisBackend) StartedObjectIDs(ctx context.Context, objectIDs []int64) ([]int64, error) {
	if len(objectIDs) == 0 {
		return []int64{}, nil
	}
	wanted := make(map[int64]struct{}, len(objectIDs))
	for _, id := range objectIDs {
		wanted[id] = struct{}{}
	}

	pipe := b.client.Pipeline()
	cmds := make([]*redis.StringSliceCmd, 0, len(domain.QueueTypes))
	for _, q := range domain.QueueTypes {
		cmds = append(cmds, pipe.ZRange(ctx, StartedRegistryKey(q), 0, -1))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("read started registries: %w", err)
	}

	found := map[int64]string{}
	for _, cmd := range cmds {
		for _, jobID := range cmd.Val() {
			if id, ok := domain.ObjectIDFromJobID(jobID); ok {
				if _, ok := wanted[id]; ok {
					found[id] = jobID
				}
			}
		}
	}
	return sortedKeys(found), nil
}

type jobData struct {
	Func   string         `json:"func"`
	Kwargs map[string]any `json:"kwargs"`
}

// Push enqueues a job for objectID and returns its job id.
func (b *redisBackend) Push(ctx context.Context, q domain.QueueType, objectID int64) (string, error) {
	jobID := domain.JobID(q, objectID)
	funcName := fmt.Sprintf("%s%s.%s", jobFuncPrefix, q, q)
	data, err := json.Marshal(jobData{Func: funcName, Kwargs: map[string]any{"object_id": objectID}})
	if err != nil {
		return "", err
	}
	now := b.now().UTC().Format(time.RFC3339Nano)

	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, JobKey(jobID), map[string]any{
			"origin":      string(q),
			"status":      "queued",
			"description": fmt.Sprintf("%s(object_id=%d)", funcName, objectID),
			"data":        data,
			"created_at":  now,
			"enqueued_at": now,
		})
		pipe.SAdd(ctx, queuesSetKey, QueueKey(q))
		pipe.RPush(ctx, QueueKey(q), jobID)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("push job %s: %w", jobID, err)
	}
	return jobID, nil
}

// RemovePendingJobs drops queued, not yet started jobs of the given objects
// from every queue and returns the number of removed list entries.
func (b *redisBackend) RemovePendingJobs(ctx context.Context, objectIDs []int64) (int64, error) {
	if len(objectIDs) == 0 {
		return 0, nil
	}

	pipe := b.client.TxPipeline()
	var removed []*redis.IntCmd
	for _, q := range domain.QueueTypes {
		for _, id := range objectIDs {
			jobID := domain.JobID(q, id)
			removed = append(removed, pipe.LRem(ctx, QueueKey(q), 0, jobID))
		}
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return 0, fmt.Errorf("remove pending jobs: %w", err)
	}

	var total int64
	var jobKeys []string
	i := 0
	for _, q := range domain.QueueTypes {
		for _, id := range objectIDs {
			if n := removed[i].Val(); n > 0 {
				total += n
				jobKeys = append(jobKeys, JobKey(domain.JobID(q, id)))
			}
			i++
		}
	}
	if len(jobKeys) > 0 {
		if err := b.client.Del(ctx, jobKeys...).Err(); err != nil {
			return total, fmt.Errorf("delete job hashes: %w", err)
		}
	}
	return total, nil
}

func sortedKeys[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
