package heartbeat

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passari/web-ui/internal/domain"
)

func TestSubmitAndGet(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Submit(ctx, domain.HeartbeatSyncObjects, at))
	require.NoError(t, mr.Set(Key(domain.HeartbeatSyncHashes), "garbage"))

	beats, err := store.Get(ctx)
	require.NoError(t, err)
	require.Len(t, beats, len(domain.HeartbeatSources))

	require.NotNil(t, beats[domain.HeartbeatSyncObjects])
	assert.True(t, at.Equal(*beats[domain.HeartbeatSyncObjects]))
	assert.Nil(t, beats[domain.HeartbeatSyncProcessedSIPs])
	assert.Nil(t, beats[domain.HeartbeatSyncHashes])
}

func TestGetAcceptsFractionalTimestamps(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	require.NoError(t, mr.Set(Key(domain.HeartbeatSyncAttachments), "1700000000.75"))

	beats, err := NewRedisStore(client).Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, beats[domain.HeartbeatSyncAttachments])
	assert.EqualValues(t, 1700000000, beats[domain.HeartbeatSyncAttachments].Unix())
}
