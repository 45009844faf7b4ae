// Package integration runs the history store against a real PostgreSQL
// started with testcontainers. These tests require Docker to be running
// and are skipped with -short.
//
// Usage:
//
//	go test ./tests/integration/
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tropicaldog17/vngold/internal/db"
)

const (
	testDatabase = "vngold_test"
	testUser     = "vngold_user"
	testPassword = "vngold_password"
)

// SetupPostgres starts a PostgreSQL container and returns a config pointing
// at it. The container is terminated when the test ends.
func SetupPostgres(t *testing.T) *db.Config {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-based DB tests in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
	defer cancel()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase(testDatabase),
		postgres.WithUsername(testUser),
		postgres.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	return &db.Config{
		Driver:   db.DriverPostgres,
		Host:     host,
		Port:     port.Port(),
		User:     testUser,
		Password: testPassword,
		Name:     testDatabase,
		SSLMode:  "disable",
	}
}
