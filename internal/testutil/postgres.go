// Package testutil provides test helpers including container management.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/emberwild/emberwild/internal/config"
	"github.com/emberwild/emberwild/internal/storage/postgres"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	container testcontainers.Container
	Pool      *postgres.Pool
	RawPool   *pgxpool.Pool
	Config    config.DatabaseConfig
}

// NewPostgresContainer starts a PostgreSQL test container and returns
// a connected Pool.
//
// Precondition: Docker must be available.
// Postcondition: Returns a running container with a connected pool,
// or fails the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v [%s]", err, time.Since(start))
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("getting container host: %v", err)
	}

	mappedPort, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("getting mapped port: %v", err)
	}

	dbCfg := config.DatabaseConfig{
		Host:            host,
		Port:            mappedPort.Int(),
		User:            "test",
		Password:        "test",
		Name:            "test",
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}

	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		t.Fatalf("connecting to test postgres: %v [%s]", err, time.Since(start))
	}

	t.Logf("postgres container started [%s]", time.Since(start))

	pc := &PostgresContainer{
		container: container,
		Pool:      pool,
		RawPool:   pool.DB(),
		Config:    dbCfg,
	}

	t.Cleanup(func() {
		pool.Close()
		_ = container.Terminate(ctx)
	})

	return pc
}

// ApplyMigrations runs the schema creation SQL directly for tests.
// This avoids requiring the migrate tool in the test environment.
//
// Precondition: Pool must be connected.
// Postcondition: The combat-core tables exist in the test database.
func (pc *PostgresContainer) ApplyMigrations(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	schema := `
		CREATE TABLE IF NOT EXISTS actors (
			id          TEXT        PRIMARY KEY,
			location    TEXT        NOT NULL,
			x           INTEGER     NOT NULL DEFAULT 0,
			y           INTEGER     NOT NULL DEFAULT 0,
			hp          INTEGER     NOT NULL DEFAULT 10 CHECK (hp >= 0),
			armor_level INTEGER     NOT NULL DEFAULT 0,
			resistances JSONB       NOT NULL DEFAULT '{}'::jsonb,
			stats       JSONB       NOT NULL DEFAULT '{}'::jsonb,
			alive       BOOLEAN     NOT NULL DEFAULT TRUE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_actors_location ON actors (location);

		CREATE TABLE IF NOT EXISTS battle_sessions (
			id           UUID        PRIMARY KEY,
			location     TEXT        NOT NULL,
			state        TEXT        NOT NULL DEFAULT 'running',
			turn_index   INTEGER     NOT NULL DEFAULT 0,
			active_actor TEXT,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_battle_sessions_running_location
			ON battle_sessions (location) WHERE state = 'running';

		CREATE TABLE IF NOT EXISTS battle_participants (
			session_id UUID    NOT NULL REFERENCES battle_sessions(id) ON DELETE CASCADE,
			actor_id   TEXT    NOT NULL REFERENCES actors(id),
			team       TEXT    NOT NULL DEFAULT '',
			initiative INTEGER NOT NULL DEFAULT 0,
			alive      BOOLEAN NOT NULL DEFAULT TRUE,
			join_order BIGINT  GENERATED ALWAYS AS IDENTITY,
			PRIMARY KEY (session_id, actor_id)
		);

		CREATE TABLE IF NOT EXISTS battle_skills (
			id              BIGSERIAL PRIMARY KEY,
			session_id      UUID      NOT NULL REFERENCES battle_sessions(id) ON DELETE CASCADE,
			actor_id        TEXT      NOT NULL,
			skill_id        TEXT      NOT NULL,
			applied_at_turn INTEGER   NOT NULL,
			duration_turns  INTEGER   NOT NULL,
			note            TEXT      NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_battle_skills_session ON battle_skills (session_id);

		CREATE TABLE IF NOT EXISTS combat_events (
			id         BIGSERIAL   PRIMARY KEY,
			session_id UUID        REFERENCES battle_sessions(id) ON DELETE CASCADE,
			turn_index INTEGER     NOT NULL DEFAULT 0,
			event_type TEXT        NOT NULL,
			payload    JSONB       NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_combat_events_session ON combat_events (session_id, id);
	`

	_, err := pc.RawPool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	t.Logf("migrations applied [%s]", time.Since(start))
}

// DSN returns the connection string for the test database.
func (pc *PostgresContainer) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pc.Config.User, pc.Config.Password,
		pc.Config.Host, pc.Config.Port,
		pc.Config.Name, pc.Config.SSLMode,
	)
}
