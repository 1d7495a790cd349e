package app

import (
	"database/sql"
	"go-session-api/config"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// TestApp is the fully wired application used by integration tests.
type TestApp struct {
	DB     *sql.DB
	Router http.Handler
}

// NewTestApp wires the application against an existing database and an
// optional redis client.
func NewTestApp(db *sql.DB, rdb *redis.Client, cfg *config.Config) *TestApp {
	return &TestApp{
		DB:     db,
		Router: build(db, rdb, cfg),
	}
}
