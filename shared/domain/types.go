package domain

type (
	UserId    = string
	ThreadId  = string
	CommentId = string
	Email     = string
	Password  = string
	Username  = string
)
