package feed

import "github.com/imgr-dev/imgr/shared/domain"

// State is one of Loading, Refreshing, LoadingMore, Success or Error.
type State interface {
	isFeedState()
}

// Loading is the first load; nothing is displayed yet.
type Loading struct{}

// Refreshing reloads page one while the previous threads stay visible.
type Refreshing struct {
	Threads []domain.ThreadWithPermissions
}

type LoadingMore struct {
	Threads []domain.ThreadWithPermissions
}

type Success struct {
	Threads []domain.ThreadWithPermissions
	HasMore bool
}

type Error struct {
	Message string
}

func (Loading) isFeedState()     {}
func (Refreshing) isFeedState()  {}
func (LoadingMore) isFeedState() {}
func (Success) isFeedState()     {}
func (Error) isFeedState()       {}

// Name is the tag used when a state is serialized.
func Name(s State) string {
	switch s.(type) {
	case Loading:
		return "loading"
	case Refreshing:
		return "refreshing"
	case LoadingMore:
		return "loading_more"
	case Success:
		return "success"
	case Error:
		return "error"
	}
	return "unknown"
}
