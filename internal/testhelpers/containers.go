//go:build container

// Package testhelpers starts throwaway Postgres and Redis containers for
// integration tests. Run them with `go test -tags container ./...`; a Docker
// daemon must be reachable.
package testhelpers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage = "postgres:16-alpine"
	redisImage    = "redis:7-alpine"

	startupTimeout = 90 * time.Second
)

// WorkflowSchema creates the tables the preservation workflow owns, with the
// columns the web UI reads.
const WorkflowSchema = `
CREATE TABLE IF NOT EXISTS museum_object (
    id BIGINT PRIMARY KEY,
    title TEXT,
    preserved BOOLEAN NOT NULL DEFAULT FALSE,
    frozen BOOLEAN NOT NULL DEFAULT FALSE,
    freeze_reason TEXT,
    freeze_source TEXT,
    created_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    modified_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    latest_package_id BIGINT
);

CREATE TABLE IF NOT EXISTS museum_package (
    id BIGSERIAL PRIMARY KEY,
    sip_filename TEXT NOT NULL UNIQUE,
    sip_id TEXT,
    museum_object_id BIGINT NOT NULL REFERENCES museum_object(id),
    object_modified_date TIMESTAMPTZ,
    downloaded BOOLEAN NOT NULL DEFAULT FALSE,
    packaged BOOLEAN NOT NULL DEFAULT FALSE,
    uploaded BOOLEAN NOT NULL DEFAULT FALSE,
    rejected BOOLEAN NOT NULL DEFAULT FALSE,
    preserved BOOLEAN NOT NULL DEFAULT FALSE,
    cancelled BOOLEAN NOT NULL DEFAULT FALSE,
    created_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// start runs the container and returns host:port of its exposed port.
func start(t *testing.T, req testcontainers.ContainerRequest) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start %s", req.Image)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate %s: %v", req.Image, err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

// StartPostgres runs Postgres, applies the workflow schema plus any extra
// statements and returns a pool connected to it.
func StartPostgres(t *testing.T, statements ...string) *pgxpool.Pool {
	t.Helper()

	addr := start(t, testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "passari",
			"POSTGRES_PASSWORD": "passari",
			"POSTGRES_DB":       "passari",
		},
		// The server restarts once after initdb.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(startupTimeout),
	})

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, fmt.Sprintf("postgres://passari:passari@%s/passari?sslmode=disable", addr))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	for _, stmt := range append([]string{WorkflowSchema}, statements...) {
		_, err := pool.Exec(ctx, stmt)
		require.NoError(t, err)
	}
	return pool
}

// StartRedis runs Redis and returns a client connected to it.
func StartRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := start(t, testcontainers.ContainerRequest{
		Image:        redisImage,
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(startupTimeout),
	})

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}
