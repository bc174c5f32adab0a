// Package detail is the single-thread view: the thread, its comments and the
// post/delete side machines.
package detail

import (
	"context"
	"log/slog"
	"sync"

	"github.com/imgr-dev/imgr/client/internal/permission"
	"github.com/imgr-dev/imgr/client/internal/state"
	"github.com/imgr-dev/imgr/shared/domain"
	internal_errors "github.com/imgr-dev/imgr/shared/errors"
	"github.com/imgr-dev/imgr/shared/logger"
	"github.com/imgr-dev/imgr/shared/messages"
)

type ThreadSource interface {
	GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	ListComments(ctx context.Context, threadId domain.ThreadId) ([]domain.Comment, error)
	PostComment(ctx context.Context, threadId domain.ThreadId, content string) (domain.Comment, error)
	DeleteComment(ctx context.Context, id domain.CommentId) error
	DeleteThread(ctx context.Context, id domain.ThreadId) error
	Identity() domain.Identity
}

// Detail publishes while mu is held; subscribers must not call back into it.
type Detail struct {
	mu     sync.Mutex
	source ThreadSource

	threadId   domain.ThreadId
	thread     *domain.Thread
	comments   []domain.Comment
	deleted    map[domain.ThreadId]struct{}
	generation uint64

	state         *state.Store[State]
	postState     *state.Store[state.Op]
	deleteComment *state.Store[state.Op]
	deleteThread  *state.Store[state.Op]
	log           *slog.Logger
}

func New(source ThreadSource) *Detail {
	return &Detail{
		source:        source,
		deleted:       make(map[domain.ThreadId]struct{}),
		state:         state.NewStore[State](Loading{}),
		postState:     state.NewStore(state.OpIdle()),
		deleteComment: state.NewStore(state.OpIdle()),
		deleteThread:  state.NewStore(state.OpIdle()),
		log:           logger.Component("detail"),
	}
}

func (d *Detail) State() State                    { return d.state.Get() }
func (d *Detail) PostState() state.Op             { return d.postState.Get() }
func (d *Detail) DeleteCommentState() state.Op    { return d.deleteComment.Get() }
func (d *Detail) DeleteThreadState() state.Op     { return d.deleteThread.Get() }
func (d *Detail) Subscribe(fn func(State)) func() { return d.state.Subscribe(fn) }

func (d *Detail) ThreadId() domain.ThreadId {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.threadId
}

// LoadDetail fetches the thread, then its comments. Either failure yields
// Error; nothing partial is shown. A thread deleted from this machine is
// never reloaded.
func (d *Detail) LoadDetail(ctx context.Context, id domain.ThreadId) {
	d.mu.Lock()
	d.generation++
	gen := d.generation
	if _, gone := d.deleted[id]; gone {
		d.threadId = ""
		d.thread, d.comments = nil, nil
		d.state.Set(Deleted{ThreadId: id})
		d.mu.Unlock()
		return
	}
	if id != d.threadId {
		d.thread, d.comments = nil, nil
	}
	d.threadId = id
	d.state.Set(Loading{})
	d.mu.Unlock()

	thread, comments, err := d.fetch(ctx, id)

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.generation {
		d.log.Debug("discarding superseded detail load", "thread_id", id)
		return
	}
	if err != nil {
		d.log.Warn("detail load failed", "thread_id", id, "error", err)
		d.state.Set(Error{Message: internal_errors.Message(err, messages.DetailFailed)})
		return
	}
	d.thread = &thread
	d.comments = comments
	d.state.Set(d.project())
}

func (d *Detail) fetch(ctx context.Context, id domain.ThreadId) (domain.Thread, []domain.Comment, error) {
	thread, err := d.source.GetThread(ctx, id)
	if err != nil {
		return domain.Thread{}, nil, err
	}
	comments, err := d.source.ListComments(ctx, id)
	if err != nil {
		return domain.Thread{}, nil, err
	}
	thread.CommentCount = len(comments)
	return thread, comments, nil
}

// PostComment validates and posts, then reloads the thread.
func (d *Detail) PostComment(ctx context.Context, threadId domain.ThreadId, content string) {
	d.postState.Set(state.OpLoading())
	if _, err := d.source.PostComment(ctx, threadId, content); err != nil {
		d.log.Warn("comment post failed", "thread_id", threadId, "error", err)
		d.postState.Set(state.OpError(internal_errors.Message(err, messages.CommentPostFailed)))
		return
	}
	d.postState.Set(state.OpSuccess())
	d.LoadDetail(ctx, threadId)
}

func (d *Detail) DeleteComment(ctx context.Context, id domain.CommentId) {
	d.deleteComment.Set(state.OpLoading())
	if err := d.source.DeleteComment(ctx, id); err != nil {
		d.log.Warn("comment delete failed", "comment_id", id, "error", err)
		d.deleteComment.Set(state.OpError(internal_errors.Message(err, messages.CommentDelFailed)))
		return
	}
	d.deleteComment.Set(state.OpSuccess())
	if threadId := d.ThreadId(); threadId != "" {
		d.LoadDetail(ctx, threadId)
	}
}

// DeleteThread publishes Deleted on success. Loads still in flight for the
// thread are discarded.
func (d *Detail) DeleteThread(ctx context.Context, id domain.ThreadId) {
	d.deleteThread.Set(state.OpLoading())
	if err := d.source.DeleteThread(ctx, id); err != nil {
		d.log.Warn("thread delete failed", "thread_id", id, "error", err)
		d.deleteThread.Set(state.OpError(internal_errors.Message(err, messages.ThreadDelFailed)))
		return
	}

	d.mu.Lock()
	d.deleted[id] = struct{}{}
	if d.threadId == id {
		d.generation++
		d.threadId = ""
		d.thread, d.comments = nil, nil
		d.state.Set(Deleted{ThreadId: id})
	}
	d.mu.Unlock()
	d.deleteThread.Set(state.OpSuccess())
}

func (d *Detail) ResetPostState()          { d.postState.Set(state.OpIdle()) }
func (d *Detail) ResetDeleteCommentState() { d.deleteComment.Set(state.OpIdle()) }
func (d *Detail) ResetDeleteThreadState()  { d.deleteThread.Set(state.OpIdle()) }

// OnIdentityChanged re-projects the cached thread for the new viewer.
func (d *Detail) OnIdentityChanged(domain.Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.state.Get().(Success); ok && d.thread != nil {
		d.state.Set(d.project())
	}
}

// project builds Success from the cache. Callers hold mu.
func (d *Detail) project() Success {
	identity := d.source.Identity()
	thread := permission.ProjectThread(*d.thread, identity.UserId, identity.IsAdmin())
	return Success{
		Thread:          thread,
		Comments:        permission.ProjectComments(d.comments, d.thread.AuthorId, identity),
		CanModerate:     thread.CanModerate,
		CanDeleteThread: thread.CanDelete,
	}
}
