// Package ctxkeys defines typed context keys shared between middleware and handlers.
// This avoids import cycles: both middleware and handlers import this package,
// but neither imports the other for context key types.
package ctxkeys

import "context"

// Key is a typed string used as context key to prevent collisions.
type Key string

const (
	UserID      Key = "userID"
	UserRole    Key = "userRole"
	ClientScope Key = "clientScope"
)

// GetClientScope returns the list of contact IDs the current user is
// assigned to. Returns nil for admin/super_admin (meaning "all clients").
func GetClientScope(ctx context.Context) []string {
	v := ctx.Value(ClientScope)
	if v == nil {
		return nil
	}
	ids, _ := v.([]string)
	return ids
}

// IsGlobalScope returns true if the user has access to all clients (admin/super_admin).
func IsGlobalScope(ctx context.Context) bool {
	return ctx.Value(ClientScope) == nil
}

// ValidRoles lists all valid role strings.
var ValidRoles = map[string]bool{
	"viewer":      true,
	"staff":       true,
	"admin":       true,
	"super_admin": true,
}

// RoleLevel maps role names to permission levels.
var RoleLevel = map[string]int{
	"viewer":      1,
	"staff":       2,
	"admin":       3,
	"super_admin": 4,
}
