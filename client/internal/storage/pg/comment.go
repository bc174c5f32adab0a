package pg

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/imgr-dev/imgr/shared/api"
	"github.com/imgr-dev/imgr/shared/domain"
	"github.com/imgr-dev/imgr/shared/storage/pg"
)

func (s *Storage) selectComments() sq.SelectBuilder {
	return s.sq.
		Select("c.id", "c.thread_id", "c.user_id", "c.content", "c.created_at", "p.username").
		From("comments c").
		Join("profiles p ON p.id = c.user_id")
}

func scanComment(row interface{ Scan(...any) error }) (domain.Comment, error) {
	var r api.CommentRow
	var username *string
	if err := row.Scan(&r.Id, &r.ThreadId, &r.UserId, &r.Content, &r.CreatedAt, &username); err != nil {
		return domain.Comment{}, err
	}
	r.Profiles = &api.ProfileUsername{Username: username}
	return r.ToDomain(), nil
}

func (s *Storage) ListComments(ctx context.Context, threadId domain.ThreadId) ([]domain.Comment, error) {
	if !isUUID(threadId) {
		return nil, nil
	}
	query, args, err := s.selectComments().
		Where(sq.Eq{"c.thread_id": threadId}).
		OrderBy("c.created_at ASC", "c.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var comments []domain.Comment
	err = s.asViewer(ctx, func(q pg.Querier) error {
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to list comments: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			c, err := scanComment(rows)
			if err != nil {
				return fmt.Errorf("failed to scan comment: %w", err)
			}
			comments = append(comments, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// CountComments groups in one query. Every requested id is present in the
// result, zero when it has no comments.
func (s *Storage) CountComments(ctx context.Context, threadIds []domain.ThreadId) (map[domain.ThreadId]int, error) {
	counts := make(map[domain.ThreadId]int, len(threadIds))
	for _, id := range threadIds {
		counts[id] = 0
	}
	valid := validIds(threadIds)
	if len(valid) == 0 {
		return counts, nil
	}

	query, args, err := s.sq.
		Select("thread_id", "count(*)").
		From("comments").
		Where(sq.Eq{"thread_id": valid}).
		GroupBy("thread_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	err = s.asViewer(ctx, func(q pg.Querier) error {
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to count comments: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var id domain.ThreadId
			var n int
			if err := rows.Scan(&id, &n); err != nil {
				return fmt.Errorf("failed to scan count: %w", err)
			}
			counts[id] = n
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (s *Storage) InsertComment(ctx context.Context, data domain.CommentCreationData) (domain.Comment, error) {
	query, args, err := s.sq.
		Insert("comments").
		Columns("thread_id", "user_id", "content").
		Values(data.ThreadId, data.AuthorId, data.Content).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.Comment{}, fmt.Errorf("failed to build query: %w", err)
	}

	var comment domain.Comment
	err = s.asViewer(ctx, func(q pg.Querier) error {
		var id domain.CommentId
		if err := q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}

		selectQuery, selectArgs, err := s.selectComments().Where(sq.Eq{"c.id": id}).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build query: %w", err)
		}
		comment, err = scanComment(q.QueryRowContext(ctx, selectQuery, selectArgs...))
		if err != nil {
			return fmt.Errorf("failed to read inserted comment: %w", err)
		}
		return nil
	})
	return comment, err
}

func (s *Storage) DeleteComment(ctx context.Context, id domain.CommentId) error {
	return s.deleteById(ctx, "comments", "comment", id)
}
