package api

import (
	"time"

	"github.com/imgr-dev/imgr/shared/domain"
)

const CommentColumns = "id,thread_id,user_id,content,created_at,profiles!inner(username)"

type CommentRow struct {
	Id        string           `json:"id"`
	ThreadId  string           `json:"thread_id"`
	UserId    string           `json:"user_id"`
	Content   string           `json:"content"`
	CreatedAt time.Time        `json:"created_at"`
	Profiles  *ProfileUsername `json:"profiles"`
}

func (r CommentRow) ToDomain() domain.Comment {
	return domain.Comment{
		Id:             r.Id,
		ThreadId:       r.ThreadId,
		AuthorId:       r.UserId,
		AuthorUsername: joinedUsername(r.Profiles),
		Content:        r.Content,
		CreatedAt:      r.CreatedAt,
	}
}

// CommentThreadRow is the minimal projection used for batched counts.
type CommentThreadRow struct {
	ThreadId string `json:"thread_id"`
}

// Request DTOs

type CreateCommentRequest struct {
	ThreadId string `json:"thread_id"`
	UserId   string `json:"user_id"`
	Content  string `json:"content"`
}

// DeletedRow is what return=representation yields for deletes; only the id matters.
type DeletedRow struct {
	Id string `json:"id"`
}
