// Package permission decides what the current viewer may do with a thread
// or comment. The result is advisory: row-level security on the backend
// is what actually allows or rejects a delete.
package permission

import "github.com/imgr-dev/imgr/shared/domain"

func owns(authorId, uid domain.UserId) bool {
	return uid != "" && authorId == uid
}

// ProjectThread: owners and admins may delete a thread and moderate its comments.
func ProjectThread(thread domain.Thread, uid domain.UserId, isAdmin bool) domain.ThreadWithPermissions {
	allowed := owns(thread.AuthorId, uid) || isAdmin
	return domain.ThreadWithPermissions{
		Thread:      thread,
		CanDelete:   allowed,
		CanModerate: allowed,
	}
}

// ProjectComment: a comment may be deleted by its author, the thread owner or an admin.
func ProjectComment(comment domain.Comment, uid, threadOwnerId domain.UserId, isAdmin bool) domain.CommentWithPermissions {
	return domain.CommentWithPermissions{
		Comment:   comment,
		CanDelete: owns(comment.AuthorId, uid) || owns(threadOwnerId, uid) || isAdmin,
	}
}

func ProjectThreads(threads []domain.Thread, identity domain.Identity) []domain.ThreadWithPermissions {
	projected := make([]domain.ThreadWithPermissions, len(threads))
	for i, t := range threads {
		projected[i] = ProjectThread(t, identity.UserId, identity.IsAdmin())
	}
	return projected
}

func ProjectComments(comments []domain.Comment, threadOwnerId domain.UserId, identity domain.Identity) []domain.CommentWithPermissions {
	projected := make([]domain.CommentWithPermissions, len(comments))
	for i, c := range comments {
		projected[i] = ProjectComment(c, identity.UserId, threadOwnerId, identity.IsAdmin())
	}
	return projected
}
