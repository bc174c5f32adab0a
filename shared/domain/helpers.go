package domain

import (
	"fmt"
	"time"
)

// for debug
func (t *Thread) String() string {
	return fmt.Sprintf("[id:%s, title:%s, author:%s(%s), comments:%d, created:%s]",
		t.Id, t.Title, t.AuthorUsername, t.AuthorId, t.CommentCount, t.CreatedAt.Format(time.StampMilli))
}

func (c *Comment) String() string {
	return fmt.Sprintf("[id:%s, thread:%s, author:%s(%s), content:%s, created:%s]",
		c.Id, c.ThreadId, c.AuthorUsername, c.AuthorId, c.Content, c.CreatedAt.Format(time.StampMilli))
}

// ThreadIds returns ids in the order of threads.
func ThreadIds(threads []Thread) []ThreadId {
	ids := make([]ThreadId, len(threads))
	for i, t := range threads {
		ids[i] = t.Id
	}
	return ids
}
