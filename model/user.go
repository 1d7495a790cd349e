package model

import (
	"strconv"
	"time"
)

type BanInfo struct {
	IsBanned  bool       `json:"isBanned"`
	BanDate   *time.Time `json:"banDate"`
	BanReason *string    `json:"banReason"`
}

// User is a row of the users table. RefreshToken is the revocation marker:
// the last refresh token issued to the user, empty when none is valid.
type User struct {
	ID           int       `json:"id"`
	Login        string    `json:"login"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	BanInfo      BanInfo   `json:"banInfo"`
}

// UserView is what the admin API exposes for a user.
type UserView struct {
	ID        string    `json:"id"`
	Login     string    `json:"login"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	BanInfo   BanInfo   `json:"banInfo"`
}

func (u *User) View() UserView {
	return UserView{
		ID:        strconv.Itoa(u.ID),
		Login:     u.Login,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		BanInfo:   u.BanInfo,
	}
}

// MeView is the payload of GET /auth/me.
type MeView struct {
	UserID string `json:"userId"`
	Login  string `json:"login"`
	Email  string `json:"email"`
}

type Paginated[T any] struct {
	PagesCount int `json:"pagesCount"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
	Items      []T `json:"items"`
}
