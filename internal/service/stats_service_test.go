package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/passari/web-ui/internal/cache"
	"github.com/passari/web-ui/internal/domain"
	"github.com/passari/web-ui/internal/queue"
	"github.com/passari/web-ui/internal/repository"
)

type countingObjects struct {
	repository.ObjectRepository
	counts       repository.ObjectCounts
	pending      int
	countsCalled int
}

func (c *countingObjects) Counts(context.Context) (repository.ObjectCounts, error) {
	c.countsCalled++
	return c.counts, nil
}

func (c *countingObjects) CountPreservationPending(context.Context) (int, error) {
	return c.pending, nil
}

func newStatsFixture(t *testing.T, objects repository.ObjectRepository) (*miniredis.Miniredis, queue.Backend, *StatsService) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	backend := queue.NewRedisBackend(client)
	return mr, backend, NewStatsService(objects, backend, cache.New(client, zap.NewNop()))
}

func TestOverviewStats(t *testing.T) {
	objects := &countingObjects{counts: repository.ObjectCounts{
		Total: 26, Frozen: 4, Submitted: 5, Rejected: 3, Preserved: 2,
	}}
	mr, backend, svc := newStatsFixture(t, objects)
	ctx := context.Background()

	next := int64(100)
	for i, q := range domain.QueueTypes {
		for n := 0; n <= i; n++ {
			next++
			_, err := backend.Push(ctx, q, next)
			require.NoError(t, err)
		}
	}
	_, err := mr.ZAdd(queue.FailedRegistryKey(domain.QueueCreateSIP), 1, domain.JobID(domain.QueueCreateSIP, 1))
	require.NoError(t, err)

	stats, err := svc.Overview(ctx)
	require.NoError(t, err)

	assert.Equal(t, 26, stats.TotalCount)
	assert.Equal(t, 1, stats.Steps["download_object"].Count)
	assert.Equal(t, 2, stats.Steps["create_sip"].Count)
	assert.Equal(t, 3, stats.Steps["submit_sip"].Count)
	assert.Equal(t, 4, stats.Steps["confirm_sip"].Count)
	assert.Equal(t, 1, stats.Steps["failed"].Count)
	assert.Equal(t, 4, stats.Steps["frozen"].Count)
	assert.Equal(t, 5, stats.Steps["submitted"].Count)
	assert.Equal(t, 3, stats.Steps["rejected"].Count)
	assert.Equal(t, 2, stats.Steps["preserved"].Count)
	assert.Equal(t, 1, stats.Steps["pending"].Count)
}

func TestOverviewStatsAreCached(t *testing.T) {
	objects := &countingObjects{counts: repository.ObjectCounts{Total: 3}}
	_, backend, svc := newStatsFixture(t, objects)
	ctx := context.Background()

	first, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Steps["pending"].Count)

	_, err = backend.Push(ctx, domain.QueueDownloadObject, 1)
	require.NoError(t, err)

	second, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, objects.countsCalled)
}

func TestOverviewPendingIsNotClamped(t *testing.T) {
	objects := &countingObjects{counts: repository.ObjectCounts{Total: 2, Frozen: 2, Preserved: 1}}
	_, _, svc := newStatsFixture(t, objects)

	stats, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -1, stats.Steps["pending"].Count)
}

func TestNavbarStats(t *testing.T) {
	mr, backend, svc := newStatsFixture(t, &countingObjects{})
	ctx := context.Background()

	_, err := backend.Push(ctx, domain.QueueConfirmSIP, 1)
	require.NoError(t, err)
	_, err = mr.ZAdd(queue.StartedRegistryKey(domain.QueueConfirmSIP), 1, domain.JobID(domain.QueueConfirmSIP, 2))
	require.NoError(t, err)
	_, err = mr.ZAdd(queue.FailedRegistryKey(domain.QueueSubmitSIP), 1, domain.JobID(domain.QueueSubmitSIP, 3))
	require.NoError(t, err)

	stats, err := svc.Navbar(ctx)
	require.NoError(t, err)
	assert.Equal(t, QueueStats{Pending: 1, Processing: 1}, stats.Queues["confirm_sip"])
	assert.Equal(t, QueueStats{}, stats.Queues["download_object"])
	assert.Len(t, stats.Queues, len(domain.QueueTypes))
	assert.Equal(t, 1, stats.Failed)
}

func TestAvailableObjectCount(t *testing.T) {
	_, backend, svc := newStatsFixture(t, &countingObjects{pending: 5})
	ctx := context.Background()

	_, err := backend.Push(ctx, domain.QueueDownloadObject, 1)
	require.NoError(t, err)
	_, err = backend.Push(ctx, domain.QueueCreateSIP, 2)
	require.NoError(t, err)

	available, err := svc.AvailableObjectCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, available)
}
