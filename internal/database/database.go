// Package database manages the PostgreSQL connection pool.
package database

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"corpdesk-backend/internal/config"
)

// Service exposes the database to handlers without tying them to the
// concrete pool type.
type Service interface {
	GetPool() *pgxpool.Pool
	Health() map[string]string
	Close()
}

type service struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and returns a Service.
// Fatal on connection failure.
func New(cfg *config.DBConfig) Service {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		log.Fatalf("Invalid database config: %v", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	log.Printf("Connected to database %s", cfg.Name)
	return &service{pool: pool}
}

// GetPool returns the underlying pgx pool.
func (s *service) GetPool() *pgxpool.Pool {
	return s.pool
}

// Health reports connectivity and pool stats for the /api/health endpoint.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "up"}
	if err := s.pool.Ping(ctx); err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
		return status
	}

	stats := s.pool.Stat()
	status["totalConns"] = strconv.Itoa(int(stats.TotalConns()))
	status["idleConns"] = strconv.Itoa(int(stats.IdleConns()))
	return status
}

// Close releases all pool connections.
func (s *service) Close() {
	s.pool.Close()
}
