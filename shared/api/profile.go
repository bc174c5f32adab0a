package api

import "github.com/imgr-dev/imgr/shared/domain"

const ProfileColumns = "id,username,full_name,avatar_url,role"

type ProfileRow struct {
	Id        string  `json:"id"`
	Username  string  `json:"username"`
	FullName  *string `json:"full_name"`
	AvatarUrl *string `json:"avatar_url"`
	Role      string  `json:"role"`
}

func (r ProfileRow) ToDomain() domain.Profile {
	p := domain.Profile{
		Id:       r.Id,
		Username: r.Username,
		Role:     domain.NormalizeRole(r.Role),
	}
	if r.FullName != nil {
		p.FullName = *r.FullName
	}
	if r.AvatarUrl != nil {
		p.AvatarUrl = *r.AvatarUrl
	}
	return p
}
