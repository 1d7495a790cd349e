// file: model/request.go

package model

// RegisterRequest defines the payload for creating a new user.
type RegisterRequest struct {
	Login    string `json:"login" validate:"required,min=3,max=10,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=20"`
}

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	LoginOrEmail string `json:"loginOrEmail" validate:"required"`
	Password     string `json:"password" validate:"required"`
}

type BanUserRequest struct {
	IsBanned  bool   `json:"isBanned"`
	BanReason string `json:"banReason" validate:"required_if=IsBanned true"`
}

type BanStatus string

const (
	BanStatusAll       BanStatus = "all"
	BanStatusBanned    BanStatus = "banned"
	BanStatusNotBanned BanStatus = "notBanned"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Paging limits. maxPageNumber keeps (PageNumber-1)*PageSize far from
// overflowing the SQL OFFSET.
const (
	defaultPageSize = 10
	maxPageSize     = 100
	maxPageNumber   = 1_000_000
)

// UserQuery is the admin user listing filter, read from the query string.
type UserQuery struct {
	BanStatus       BanStatus
	SearchLoginTerm string
	SearchEmailTerm string
	SortBy          string
	SortDirection   SortDirection
	PageNumber      int
	PageSize        int
}

// Normalize fills defaults and clamps paging values.
func (q UserQuery) Normalize() UserQuery {
	if q.BanStatus == "" {
		q.BanStatus = BanStatusAll
	}
	if q.SortBy == "" {
		q.SortBy = "createdAt"
	}
	if q.SortDirection != SortAsc {
		q.SortDirection = SortDesc
	}
	if q.PageNumber < 1 {
		q.PageNumber = 1
	}
	if q.PageNumber > maxPageNumber {
		q.PageNumber = maxPageNumber
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	return q
}
