// Package pg is the direct PostgreSQL data plane. It reads and writes the
// same tables as the REST API, and every statement runs as the current
// viewer so the row-level security policies decide what is visible.
package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/imgr-dev/imgr/shared/domain"
	"github.com/imgr-dev/imgr/shared/logger"
	"github.com/imgr-dev/imgr/shared/storage/pg"
	"github.com/lib/pq"
)

// anonRole is assumed when nobody is signed in.
const anonRole = "anon"

// Viewer supplies the identity statements run as.
type Viewer interface {
	Identity() domain.Identity
}

type Storage struct {
	db      *sql.DB
	viewer  Viewer
	rlsRole string
	sq      sq.StatementBuilderType
	log     *slog.Logger
}

// New wraps an open pool. rlsRole is the database role assumed for
// signed-in viewers.
func New(db *sql.DB, viewer Viewer, rlsRole string) *Storage {
	return &Storage{
		db:      db,
		viewer:  viewer,
		rlsRole: rlsRole,
		sq:      sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		log:     logger.Component("pg"),
	}
}

func (s *Storage) Close() error {
	return s.db.Close()
}

type jwtClaims struct {
	Sub  string `json:"sub,omitempty"`
	Role string `json:"role"`
}

// asViewer runs fn in a transaction that carries the viewer's claims and
// role, the way the REST gateway does for each request.
func (s *Storage) asViewer(ctx context.Context, fn func(q pg.Querier) error) error {
	identity := s.viewer.Identity()
	claims := jwtClaims{Role: anonRole}
	if identity.LoggedIn() {
		claims = jwtClaims{Sub: identity.UserId, Role: s.rlsRole}
	}
	encoded, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("failed to encode claims: %w", err)
	}

	return pg.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "SELECT set_config('request.jwt.claims', $1, true)", string(encoded)); err != nil {
			return fmt.Errorf("failed to set claims: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "SET LOCAL ROLE "+pq.QuoteIdentifier(claims.Role)); err != nil {
			return fmt.Errorf("failed to assume role %s: %w", claims.Role, err)
		}
		return fn(tx)
	})
}

// validIds drops ids that are not UUIDs; such rows cannot exist.
func validIds(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	return valid
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
