package detail

import "github.com/imgr-dev/imgr/shared/domain"

// State is one of Loading, Success, Error or Deleted.
type State interface {
	isDetailState()
}

type Loading struct{}

type Success struct {
	Thread          domain.ThreadWithPermissions
	Comments        []domain.CommentWithPermissions
	CanModerate     bool
	CanDeleteThread bool
}

type Error struct {
	Message string
}

// Deleted tells the presentation to navigate away from ThreadId.
type Deleted struct {
	ThreadId domain.ThreadId
}

func (Loading) isDetailState() {}
func (Success) isDetailState() {}
func (Error) isDetailState()   {}
func (Deleted) isDetailState() {}

func Name(s State) string {
	switch s.(type) {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	case Deleted:
		return "deleted"
	}
	return "unknown"
}
