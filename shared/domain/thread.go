package domain

import "time"

// to iterate thru layers: state machine -> service -> storage
type ThreadCreationData struct {
	Title    string
	Caption  *string
	ImageUrl string
	AuthorId UserId
}

type Thread struct {
	Id             ThreadId
	Title          string
	Caption        string // empty when the thread has no caption
	ImageUrl       string
	AuthorId       UserId
	AuthorUsername Username
	CreatedAt      time.Time
	CommentCount   int
}

// ThreadWithPermissions is a thread projected for the current identity.
type ThreadWithPermissions struct {
	Thread
	CanDelete   bool
	CanModerate bool // may delete any comment in the thread
}
