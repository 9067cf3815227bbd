// Package handlers implements the HTTP endpoints of the API.
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PaginatedResponse wraps a list payload with pagination metadata.
type PaginatedResponse struct {
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// PaginationMeta describes the page window of a list response.
type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// JSONError writes a JSON error message with the given status code.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// isDuplicateKeyError checks if a PostgreSQL error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "23505")
}

// nilIfEmptyStr returns nil for empty strings (for nullable DB columns)
func nilIfEmptyStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// logActivity records an audit entry. Failures are logged and swallowed —
// the audit trail never blocks the main operation.
func logActivity(pool *pgxpool.Pool, userID, action, entityType, entityID string, details map[string]interface{}) {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte(`{}`)
	}

	_, err = pool.Exec(context.Background(), `
		INSERT INTO activity_log (user_id, action, entity_type, entity_id, details)
		VALUES ($1, $2, $3, $4, $5)
	`, nilIfEmptyStr(userID), action, entityType, entityID, string(detailsJSON))
	if err != nil {
		log.Printf("Error writing activity log: %v", err)
	}
}
