package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/imgr-dev/imgr/shared/api"
	"github.com/imgr-dev/imgr/shared/domain"
	internal_errors "github.com/imgr-dev/imgr/shared/errors"
	"github.com/imgr-dev/imgr/shared/storage/pg"
)

func (s *Storage) GetProfile(ctx context.Context, userId domain.UserId) (domain.Profile, error) {
	if !isUUID(userId) {
		return domain.Profile{}, internal_errors.NewNotFound("profile %s not found", userId)
	}
	query, args, err := s.sq.
		Select("id", "username", "full_name", "avatar_url", "role").
		From("profiles").
		Where(sq.Eq{"id": userId}).
		ToSql()
	if err != nil {
		return domain.Profile{}, fmt.Errorf("failed to build query: %w", err)
	}

	var r api.ProfileRow
	err = s.asViewer(ctx, func(q pg.Querier) error {
		return q.QueryRowContext(ctx, query, args...).Scan(&r.Id, &r.Username, &r.FullName, &r.AvatarUrl, &r.Role)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Profile{}, internal_errors.NewNotFound("profile %s not found", userId)
		}
		return domain.Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	return r.ToDomain(), nil
}
