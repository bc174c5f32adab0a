// Package feed is the paginated, searchable thread list.
package feed

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/imgr-dev/imgr/client/internal/permission"
	"github.com/imgr-dev/imgr/client/internal/state"
	"github.com/imgr-dev/imgr/shared/domain"
	internal_errors "github.com/imgr-dev/imgr/shared/errors"
	"github.com/imgr-dev/imgr/shared/logger"
	"github.com/imgr-dev/imgr/shared/messages"
)

type ThreadSource interface {
	ListThreads(ctx context.Context, offset, limit int) ([]domain.Thread, error)
	CountComments(ctx context.Context, threadIds []domain.ThreadId) (map[domain.ThreadId]int, error)
	DeleteThread(ctx context.Context, id domain.ThreadId) error
	Identity() domain.Identity
}

// Feed owns allThreads; it only changes through Feed's methods. States are
// published while mu is held, so subscribers must not call back into Feed.
type Feed struct {
	mu       sync.Mutex
	source   ThreadSource
	pageSize int

	all         []domain.Thread
	query       string
	offset      int
	hasMore     bool
	started     bool
	loadingMore bool
	// incremented by every Load and Reset; results from older generations are dropped
	generation uint64

	state       *state.Store[State]
	deleteState *state.Store[state.Op]
	log         *slog.Logger
}

func New(source ThreadSource, pageSize int) *Feed {
	return &Feed{
		source:      source,
		pageSize:    pageSize,
		hasMore:     true,
		state:       state.NewStore[State](Loading{}),
		deleteState: state.NewStore(state.OpIdle()),
		log:         logger.Component("feed"),
	}
}

func (f *Feed) State() State          { return f.state.Get() }
func (f *Feed) DeleteState() state.Op { return f.deleteState.Get() }

func (f *Feed) Subscribe(fn func(State)) func()          { return f.state.Subscribe(fn) }
func (f *Feed) SubscribeDelete(fn func(state.Op)) func() { return f.deleteState.Subscribe(fn) }

func (f *Feed) Query() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.query
}

// AllThreads is a copy of the unfiltered cache.
func (f *Feed) AllThreads() []domain.Thread {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Thread(nil), f.all...)
}

// Load fetches page one and replaces the cache. The first call shows
// Loading; later calls show Refreshing with the current threads. When
// loads overlap, the last one started wins.
func (f *Feed) Load(ctx context.Context) {
	f.mu.Lock()
	f.generation++
	gen := f.generation
	f.loadingMore = false
	if !f.started {
		f.started = true
		f.state.Set(Loading{})
	} else {
		f.state.Set(Refreshing{Threads: f.displayed()})
	}
	f.mu.Unlock()

	threads, err := f.fetchPage(ctx, 0)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		f.log.Debug("discarding superseded load", "generation", gen)
		return
	}
	if err != nil {
		f.log.Warn("feed load failed", "error", err)
		f.state.Set(Error{Message: internal_errors.Message(err, messages.FeedFailed)})
		return
	}

	f.all = threads
	f.offset = len(threads)
	f.hasMore = len(threads) >= f.pageSize
	f.state.Set(Success{Threads: f.displayed(), HasMore: f.hasMore})
}

// LoadMore appends the next page. It does nothing unless the feed is in
// Success with more pages and no other LoadMore in flight.
func (f *Feed) LoadMore(ctx context.Context) {
	f.mu.Lock()
	current, ok := f.state.Get().(Success)
	if !ok || f.loadingMore || !f.hasMore {
		f.mu.Unlock()
		return
	}
	f.loadingMore = true
	gen := f.generation
	offset := f.offset
	f.state.Set(LoadingMore{Threads: current.Threads})
	f.mu.Unlock()

	threads, err := f.fetchPage(ctx, offset)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		return
	}
	f.loadingMore = false
	if err != nil {
		f.log.Warn("feed load more failed", "offset", offset, "error", err)
		f.hasMore = false
		f.state.Set(Success{Threads: f.displayed(), HasMore: false})
		return
	}

	f.all = appendUnique(f.all, threads)
	f.offset += len(threads)
	f.hasMore = len(threads) >= f.pageSize
	f.state.Set(Success{Threads: f.displayed(), HasMore: f.hasMore})
}

// UpdateSearchQuery filters the cached threads locally; no request is made.
func (f *Feed) UpdateSearchQuery(query string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.query = query
	if _, ok := f.state.Get().(Success); ok {
		f.state.Set(Success{Threads: f.displayed(), HasMore: f.hasMore})
	}
}

func (f *Feed) ClearSearch() {
	f.UpdateSearchQuery("")
}

// DeleteThread runs the delete side machine and reloads on success.
func (f *Feed) DeleteThread(ctx context.Context, id domain.ThreadId) {
	f.deleteState.Set(state.OpLoading())
	if err := f.source.DeleteThread(ctx, id); err != nil {
		f.log.Warn("thread delete failed", "thread_id", id, "error", err)
		f.deleteState.Set(state.OpError(internal_errors.Message(err, messages.ThreadDelFailed)))
		return
	}
	f.deleteState.Set(state.OpSuccess())
	f.Load(ctx)
}

func (f *Feed) ResetDeleteState() {
	f.deleteState.Set(state.OpIdle())
}

// Reset drops the cache, query and cursor. In-flight loads are discarded.
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
	f.all = nil
	f.query = ""
	f.offset = 0
	f.hasMore = true
	f.started = false
	f.loadingMore = false
	f.state.Set(Loading{})
	f.deleteState.Set(state.OpIdle())
}

// OnIdentityChanged re-projects permissions for the new viewer without
// refetching.
func (f *Feed) OnIdentityChanged(domain.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch s := f.state.Get().(type) {
	case Success:
		f.state.Set(Success{Threads: f.displayed(), HasMore: s.HasMore})
	case Refreshing:
		f.state.Set(Refreshing{Threads: f.displayed()})
	case LoadingMore:
		f.state.Set(LoadingMore{Threads: f.displayed()})
	}
}

// fetchPage lists a page and annotates it with comment counts. Counts are
// cosmetic: if they fail the page is still shown with zeros.
func (f *Feed) fetchPage(ctx context.Context, offset int) ([]domain.Thread, error) {
	threads, err := f.source.ListThreads(ctx, offset, f.pageSize)
	if err != nil {
		return nil, err
	}

	counts, err := f.source.CountComments(ctx, domain.ThreadIds(threads))
	if err != nil {
		f.log.Warn("comment counts unavailable", "error", err)
		counts = nil
	}
	for i := range threads {
		threads[i].CommentCount = counts[threads[i].Id]
	}
	return threads, nil
}

// displayed projects the cache for the current identity and applies the
// query. Callers hold mu.
func (f *Feed) displayed() []domain.ThreadWithPermissions {
	return permission.ProjectThreads(Filter(f.all, f.query), f.source.Identity())
}

// Filter keeps threads whose title, caption or author username contains
// query, ignoring case. Only the empty query keeps everything.
func Filter(threads []domain.Thread, query string) []domain.Thread {
	if query == "" {
		return append([]domain.Thread(nil), threads...)
	}
	query = strings.ToLower(query)
	filtered := make([]domain.Thread, 0, len(threads))
	for _, t := range threads {
		if strings.Contains(strings.ToLower(t.Title), query) ||
			strings.Contains(strings.ToLower(t.Caption), query) ||
			strings.Contains(strings.ToLower(t.AuthorUsername), query) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// appendUnique skips threads already cached; offset pagination can repeat
// rows when new threads are posted between pages. The offset still advances
// by the rows fetched, so rows deleted between pages can still be skipped.
func appendUnique(all, page []domain.Thread) []domain.Thread {
	seen := make(map[domain.ThreadId]struct{}, len(all))
	for _, t := range all {
		seen[t.Id] = struct{}{}
	}
	for _, t := range page {
		if _, dup := seen[t.Id]; !dup {
			all = append(all, t)
			seen[t.Id] = struct{}{}
		}
	}
	return all
}
