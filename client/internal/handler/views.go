package handler

import (
	"time"

	"github.com/imgr-dev/imgr/client/internal/compose"
	"github.com/imgr-dev/imgr/client/internal/detail"
	"github.com/imgr-dev/imgr/client/internal/feed"
	"github.com/imgr-dev/imgr/client/internal/state"
	"github.com/imgr-dev/imgr/shared/domain"
)

type ThreadView struct {
	Id             string    `json:"id"`
	Title          string    `json:"title"`
	Caption        string    `json:"caption,omitempty"`
	ImageUrl       string    `json:"image_url"`
	AuthorId       string    `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	CreatedAt      time.Time `json:"created_at"`
	CommentCount   int       `json:"comment_count"`
	CanDelete      bool      `json:"can_delete"`
	CanModerate    bool      `json:"can_moderate"`
}

func threadView(t domain.ThreadWithPermissions) ThreadView {
	return ThreadView{
		Id:             t.Id,
		Title:          t.Title,
		Caption:        t.Caption,
		ImageUrl:       t.ImageUrl,
		AuthorId:       t.AuthorId,
		AuthorUsername: t.AuthorUsername,
		CreatedAt:      t.CreatedAt,
		CommentCount:   t.CommentCount,
		CanDelete:      t.CanDelete,
		CanModerate:    t.CanModerate,
	}
}

func threadViews(threads []domain.ThreadWithPermissions) []ThreadView {
	views := make([]ThreadView, len(threads))
	for i, t := range threads {
		views[i] = threadView(t)
	}
	return views
}

type CommentView struct {
	Id             string    `json:"id"`
	ThreadId       string    `json:"thread_id"`
	AuthorId       string    `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	CanDelete      bool      `json:"can_delete"`
}

func commentViews(comments []domain.CommentWithPermissions) []CommentView {
	views := make([]CommentView, len(comments))
	for i, c := range comments {
		views[i] = CommentView{
			Id:             c.Id,
			ThreadId:       c.ThreadId,
			AuthorId:       c.AuthorId,
			AuthorUsername: c.AuthorUsername,
			Content:        c.Content,
			CreatedAt:      c.CreatedAt,
			CanDelete:      c.CanDelete,
		}
	}
	return views
}

// FeedSnapshot is the feed state tagged by name.
type FeedSnapshot struct {
	State   string       `json:"state"`
	Threads []ThreadView `json:"threads,omitempty"`
	HasMore bool         `json:"has_more"`
	Message string       `json:"message,omitempty"`
	Query   string       `json:"query"`
	Delete  state.Op     `json:"delete"`
}

func (h *Handler) feedSnapshot() FeedSnapshot {
	s := h.feed.State()
	snap := FeedSnapshot{State: feed.Name(s), Query: h.feed.Query(), Delete: h.feed.DeleteState()}
	switch s := s.(type) {
	case feed.Refreshing:
		snap.Threads = threadViews(s.Threads)
	case feed.LoadingMore:
		snap.Threads = threadViews(s.Threads)
	case feed.Success:
		snap.Threads = threadViews(s.Threads)
		snap.HasMore = s.HasMore
	case feed.Error:
		snap.Message = s.Message
	}
	return snap
}

type DetailSnapshot struct {
	State           string        `json:"state"`
	Thread          *ThreadView   `json:"thread,omitempty"`
	Comments        []CommentView `json:"comments,omitempty"`
	CanModerate     bool          `json:"can_moderate"`
	CanDeleteThread bool          `json:"can_delete_thread"`
	Message         string        `json:"message,omitempty"`
	DeletedThreadId string        `json:"deleted_thread_id,omitempty"`
	Post            state.Op      `json:"post"`
	DeleteComment   state.Op      `json:"delete_comment"`
	DeleteThread    state.Op      `json:"delete_thread"`
}

func (h *Handler) detailSnapshot() DetailSnapshot {
	s := h.detail.State()
	snap := DetailSnapshot{
		State:         detail.Name(s),
		Post:          h.detail.PostState(),
		DeleteComment: h.detail.DeleteCommentState(),
		DeleteThread:  h.detail.DeleteThreadState(),
	}
	switch s := s.(type) {
	case detail.Success:
		thread := threadView(s.Thread)
		snap.Thread = &thread
		snap.Comments = commentViews(s.Comments)
		snap.CanModerate = s.CanModerate
		snap.CanDeleteThread = s.CanDeleteThread
	case detail.Error:
		snap.Message = s.Message
	case detail.Deleted:
		snap.DeletedThreadId = s.ThreadId
	}
	return snap
}

type ComposeSnapshot struct {
	State   state.Status `json:"state"`
	Message string       `json:"message,omitempty"`
	Thread  *ThreadView  `json:"thread,omitempty"`
}

func composeSnapshot(s compose.Snapshot) ComposeSnapshot {
	snap := ComposeSnapshot{State: s.Status, Message: s.Message}
	if s.Thread != nil {
		// a freshly created thread belongs to the viewer
		view := threadView(domain.ThreadWithPermissions{Thread: *s.Thread, CanDelete: true, CanModerate: true})
		snap.Thread = &view
	}
	return snap
}
