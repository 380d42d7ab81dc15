package queue

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passari/web-ui/internal/domain"
)

func newTestBackend(t *testing.T) (*miniredis.Miniredis, Backend) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisBackend(client)
}

func addStarted(t *testing.T, mr *miniredis.Miniredis, q domain.QueueType, objectID int64) {
	t.Helper()
	_, err := mr.ZAdd(StartedRegistryKey(q), 1, domain.JobID(q, objectID))
	require.NoError(t, err)
}

func addFailed(t *testing.T, mr *miniredis.Miniredis, q domain.QueueType, objectID int64) {
	t.Helper()
	_, err := mr.ZAdd(FailedRegistryKey(q), 1, domain.JobID(q, objectID))
	require.NoError(t, err)
}

func TestPushAddsJobToQueue(t *testing.T) {
	mr, backend := newTestBackend(t)
	ctx := context.Background()

	jobID, err := backend.Push(ctx, domain.QueueDownloadObject, 42)
	require.NoError(t, err)
	assert.Equal(t, "download_object_42", jobID)

	list, err := mr.List(QueueKey(domain.QueueDownloadObject))
	require.NoError(t, err)
	assert.Equal(t, []string{"download_object_42"}, list)
	assert.Equal(t, "download_object", mr.HGet(JobKey(jobID), "origin"))
	assert.Equal(t, "queued", mr.HGet(JobKey(jobID), "status"))

	count, err := backend.PendingCount(ctx, domain.QueueDownloadObject)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestCounts(t *testing.T) {
	mr, backend := newTestBackend(t)
	ctx := context.Background()

	_, err := backend.Push(ctx, domain.QueueConfirmSIP, 1)
	require.NoError(t, err)
	addStarted(t, mr, domain.QueueConfirmSIP, 2)
	addFailed(t, mr, domain.QueueCreateSIP, 3)
	addFailed(t, mr, domain.QueueSubmitSIP, 4)

	pending, err := backend.PendingCount(ctx, domain.QueueConfirmSIP)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)

	started, err := backend.StartedCount(ctx, domain.QueueConfirmSIP)
	require.NoError(t, err)
	assert.EqualValues(t, 1, started)

	failed, err := backend.FailedCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, failed)
}

func TestObjectIDToQueues(t *testing.T) {
	mr, backend := newTestBackend(t)
	ctx := context.Background()

	_, err := backend.Push(ctx, domain.QueueDownloadObject, 10)
	require.NoError(t, err)
	addStarted(t, mr, domain.QueueSubmitSIP, 11)
	addFailed(t, mr, domain.QueueCreateSIP, 12)
	addStarted(t, mr, domain.QueueConfirmSIP, 12)

	result, err := backend.ObjectIDToQueues(ctx, []int64{10, 11, 12, 13})
	require.NoError(t, err)
	assert.Equal(t, map[int64][]string{
		10: {"download_object"},
		11: {"submit_sip"},
		12: {"confirm_sip", "failed"},
	}, result)

	empty, err := backend.ObjectIDToQueues(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEnqueuedAndStartedObjectIDs(t *testing.T) {
	mr, backend := newTestBackend(t)
	ctx := context.Background()

	_, err := backend.Push(ctx, domain.QueueDownloadObject, 5)
	require.NoError(t, err)
	addStarted(t, mr, domain.QueueCreateSIP, 3)
	addFailed(t, mr, domain.QueueConfirmSIP, 7)

	enqueued, err := backend.EnqueuedObjectIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5, 7}, enqueued)

	started, err := backend.StartedObjectIDs(ctx, []int64{3, 5, 7})
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, started)
}

func TestRemovePendingJobs(t *testing.T) {
	mr, backend := newTestBackend(t)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		_, err := backend.Push(ctx, domain.QueueDownloadObject, id)
		require.NoError(t, err)
	}

	removed, err := backend.RemovePendingJobs(ctx, []int64{1, 3, 99})
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	list, err := mr.List(QueueKey(domain.QueueDownloadObject))
	require.NoError(t, err)
	assert.Equal(t, []string{"download_object_2"}, list)
	assert.False(t, mr.Exists(JobKey("download_object_1")))
	assert.True(t, mr.Exists(JobKey("download_object_2")))
}
