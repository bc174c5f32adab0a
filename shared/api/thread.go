package api

import (
	"time"

	"github.com/imgr-dev/imgr/shared/domain"
	"github.com/imgr-dev/imgr/shared/messages"
)

// ThreadColumns is the PostgREST select list for threads with the author join.
const ThreadColumns = "id,title,caption,image_url,user_id,created_at,profiles!inner(username)"

// ProfileUsername is the embedded profiles join.
type ProfileUsername struct {
	Username *string `json:"username"`
}

type ThreadRow struct {
	Id        string           `json:"id"`
	Title     string           `json:"title"`
	Caption   *string          `json:"caption"`
	ImageUrl  string           `json:"image_url"`
	UserId    string           `json:"user_id"`
	CreatedAt time.Time        `json:"created_at"`
	Profiles  *ProfileUsername `json:"profiles"`
}

func (r ThreadRow) ToDomain() domain.Thread {
	t := domain.Thread{
		Id:             r.Id,
		Title:          r.Title,
		ImageUrl:       r.ImageUrl,
		AuthorId:       r.UserId,
		AuthorUsername: joinedUsername(r.Profiles),
		CreatedAt:      r.CreatedAt,
	}
	if r.Caption != nil {
		t.Caption = *r.Caption
	}
	return t
}

// Request DTOs

type CreateThreadRequest struct {
	Title    string  `json:"title"`
	Caption  *string `json:"caption"`
	ImageUrl string  `json:"image_url"`
	UserId   string  `json:"user_id"`
}

func joinedUsername(p *ProfileUsername) string {
	if p == nil || p.Username == nil || *p.Username == "" {
		return messages.AnonymousUser
	}
	return *p.Username
}
