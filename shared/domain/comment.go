package domain

import "time"

type CommentCreationData struct {
	ThreadId ThreadId
	AuthorId UserId
	Content  string
}

type Comment struct {
	Id             CommentId
	ThreadId       ThreadId
	AuthorId       UserId
	AuthorUsername Username
	Content        string
	CreatedAt      time.Time
}

type CommentWithPermissions struct {
	Comment
	CanDelete bool
}
