package handlers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"corpdesk-backend/internal/ctxkeys"
)

// appendClientScope adds a contact-ID scope filter to a dynamic WHERE clause.
// colExpr is the SQL column expression to filter on (e.g. "c.id", "d.contact_id").
// If the user has global scope (admin/super_admin), nothing is added.
func appendClientScope(ctx context.Context, where string, args []interface{}, argIdx int, colExpr string) (string, []interface{}, int) {
	scope := ctxkeys.GetClientScope(ctx)
	if scope == nil {
		return where, args, argIdx
	}
	where += fmt.Sprintf(" AND %s = ANY($%d)", colExpr, argIdx)
	args = append(args, scope)
	argIdx++
	return where, args, argIdx
}

// checkContactAccess verifies that the given contactID is within the user's scope.
func checkContactAccess(ctx context.Context, contactID string) bool {
	scope := ctxkeys.GetClientScope(ctx)
	if scope == nil {
		return true
	}
	for _, id := range scope {
		if id == contactID {
			return true
		}
	}
	return false
}

// checkDocumentAccess looks up the document's contact and checks scope.
func checkDocumentAccess(ctx context.Context, pool *pgxpool.Pool, documentID string) bool {
	if ctxkeys.IsGlobalScope(ctx) {
		return true
	}
	var contactID string
	err := pool.QueryRow(ctx,
		"SELECT contact_id::text FROM documents WHERE id = $1",
		documentID,
	).Scan(&contactID)
	if err != nil {
		return false
	}
	return checkContactAccess(ctx, contactID)
}
