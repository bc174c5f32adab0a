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

func (s *Storage) selectThreads() sq.SelectBuilder {
	return s.sq.
		Select("t.id", "t.title", "t.caption", "t.image_url", "t.user_id", "t.created_at", "p.username").
		From("threads t").
		Join("profiles p ON p.id = t.user_id")
}

func scanThread(row interface{ Scan(...any) error }) (domain.Thread, error) {
	var r api.ThreadRow
	var username *string
	if err := row.Scan(&r.Id, &r.Title, &r.Caption, &r.ImageUrl, &r.UserId, &r.CreatedAt, &username); err != nil {
		return domain.Thread{}, err
	}
	r.Profiles = &api.ProfileUsername{Username: username}
	return r.ToDomain(), nil
}

func (s *Storage) ListThreads(ctx context.Context, offset, limit int) ([]domain.Thread, error) {
	query, args, err := s.selectThreads().
		OrderBy("t.created_at DESC", "t.id DESC").
		Offset(uint64(offset)).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var threads []domain.Thread
	err = s.asViewer(ctx, func(q pg.Querier) error {
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to list threads: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanThread(rows)
			if err != nil {
				return fmt.Errorf("failed to scan thread: %w", err)
			}
			threads = append(threads, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return threads, nil
}

func (s *Storage) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	if !isUUID(id) {
		return domain.Thread{}, internal_errors.NewNotFound("thread %s not found", id)
	}
	var thread domain.Thread
	err := s.asViewer(ctx, func(q pg.Querier) error {
		var err error
		thread, err = s.getThread(ctx, q, id)
		return err
	})
	return thread, err
}

func (s *Storage) getThread(ctx context.Context, q pg.Querier, id domain.ThreadId) (domain.Thread, error) {
	query, args, err := s.selectThreads().Where(sq.Eq{"t.id": id}).ToSql()
	if err != nil {
		return domain.Thread{}, fmt.Errorf("failed to build query: %w", err)
	}
	thread, err := scanThread(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Thread{}, internal_errors.NewNotFound("thread %s not found", id)
		}
		return domain.Thread{}, fmt.Errorf("failed to get thread: %w", err)
	}
	return thread, nil
}

func (s *Storage) InsertThread(ctx context.Context, data domain.ThreadCreationData) (domain.Thread, error) {
	query, args, err := s.sq.
		Insert("threads").
		Columns("title", "caption", "image_url", "user_id").
		Values(data.Title, data.Caption, data.ImageUrl, data.AuthorId).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.Thread{}, fmt.Errorf("failed to build query: %w", err)
	}

	var thread domain.Thread
	err = s.asViewer(ctx, func(q pg.Querier) error {
		var id domain.ThreadId
		if err := q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return fmt.Errorf("failed to insert thread: %w", err)
		}
		thread, err = s.getThread(ctx, q, id)
		return err
	})
	return thread, err
}

func (s *Storage) DeleteThread(ctx context.Context, id domain.ThreadId) error {
	return s.deleteById(ctx, "threads", "thread", id)
}

// deleteById reports NotFound when no row was removed, whether it was
// absent or hidden by row-level security.
func (s *Storage) deleteById(ctx context.Context, table, entity, id string) error {
	if !isUUID(id) {
		return internal_errors.NewNotFound("%s %s not found or access denied", entity, id)
	}
	query, args, err := s.sq.Delete(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	return s.asViewer(ctx, func(q pg.Querier) error {
		result, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", entity, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if affected == 0 {
			return internal_errors.NewNotFound("%s %s not found or access denied", entity, id)
		}
		s.log.Debug("row deleted", "table", table, "id", id)
		return nil
	})
}
