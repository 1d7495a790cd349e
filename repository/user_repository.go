package repository

import (
	"context"
	"database/sql"
	"fmt"
	"go-session-api/logger"
	"go-session-api/model"
	"strings"

	"github.com/sirupsen/logrus"
)

// IUserRepository defines the contract for user database operations.
type IUserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int) (*model.User, error)
	GetUserByLoginOrEmail(ctx context.Context, loginOrEmail string) (*model.User, error)
	UpdateRefreshToken(ctx context.Context, userID int, refreshToken string) error
	UpdateBanInfo(ctx context.Context, userID int, ban model.BanInfo) error
	FindAllUsers(ctx context.Context, q model.UserQuery) ([]*model.User, int, error)
}

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, login, email, password_hash, refresh_token, created_at, is_banned, ban_date, ban_reason`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	user := &model.User{}
	var banDate sql.NullTime
	var banReason sql.NullString
	err := row.Scan(&user.ID, &user.Login, &user.Email, &user.PasswordHash, &user.RefreshToken,
		&user.CreatedAt, &user.BanInfo.IsBanned, &banDate, &banReason)
	if err != nil {
		return nil, err
	}
	if banDate.Valid {
		t := banDate.Time
		user.BanInfo.BanDate = &t
	}
	if banReason.Valid {
		s := banReason.String
		user.BanInfo.BanReason = &s
	}
	return user, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) error {
	log := logger.Log.WithFields(logrus.Fields{
		"login": user.Login,
		"email": user.Email,
	})
	log.Info("Executing query to create a new user")

	query := `INSERT INTO users (login, email, password_hash) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.DB.QueryRowContext(ctx, query, user.Login, user.Email, user.PasswordHash).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create user query")
		return err
	}
	return nil
}

// GetUserByID returns sql.ErrNoRows if the user does not exist.
func (r *UserRepository) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, id))
	if err != nil && err != sql.ErrNoRows {
		logger.Log.WithError(err).WithField("user_id", id).Error("Failed to execute get user by ID query")
	}
	return user, err
}

func (r *UserRepository) GetUserByLoginOrEmail(ctx context.Context, loginOrEmail string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE login = $1 OR email = $1`
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, loginOrEmail))
	if err != nil && err != sql.ErrNoRows {
		logger.Log.WithError(err).Error("Failed to execute get user by login or email query")
	}
	return user, err
}

// UpdateRefreshToken stores the revocation marker; an empty string means no
// refresh token is currently valid for the user.
func (r *UserRepository) UpdateRefreshToken(ctx context.Context, userID int, refreshToken string) error {
	log := logger.Log.WithField("user_id", userID)
	log.Debug("Executing query to update user refresh token marker")

	query := `UPDATE users SET refresh_token = $2 WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, userID, refreshToken)
	if err != nil {
		log.WithError(err).Error("Failed to execute update refresh token query")
		return err
	}
	return requireOneRow(res)
}

func (r *UserRepository) UpdateBanInfo(ctx context.Context, userID int, ban model.BanInfo) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":   userID,
		"is_banned": ban.IsBanned,
	})
	log.Info("Executing query to update user ban info")

	query := `UPDATE users SET is_banned = $2, ban_date = $3, ban_reason = $4 WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, userID, ban.IsBanned, ban.BanDate, ban.BanReason)
	if err != nil {
		log.WithError(err).Error("Failed to execute update ban info query")
		return err
	}
	return requireOneRow(res)
}

var sortColumns = map[string]string{
	"createdAt": `created_at`,
	"login":     `login COLLATE "C"`,
	"email":     `email`,
	"banDate":   `ban_date`,
}

// buildUserFilter turns the query into a WHERE clause and its arguments.
// Search terms are always bound as parameters, never spliced into the SQL.
func buildUserFilter(q model.UserQuery) (string, []any) {
	var args []any
	var search []string

	if q.SearchLoginTerm != "" {
		args = append(args, q.SearchLoginTerm)
		search = append(search, fmt.Sprintf(`login ILIKE '%%' || $%d || '%%'`, len(args)))
	}
	if q.SearchEmailTerm != "" {
		args = append(args, q.SearchEmailTerm)
		search = append(search, fmt.Sprintf(`email ILIKE '%%' || $%d || '%%'`, len(args)))
	}

	var terms []string
	if len(search) > 0 {
		terms = append(terms, "("+strings.Join(search, " OR ")+")")
	}
	switch q.BanStatus {
	case model.BanStatusBanned:
		terms = append(terms, `is_banned = TRUE`)
	case model.BanStatusNotBanned:
		terms = append(terms, `is_banned = FALSE`)
	}

	if len(terms) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(terms, " AND "), args
}

func buildUserOrder(q model.UserQuery) string {
	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = sortColumns["createdAt"]
	}
	direction := "DESC"
	if q.SortDirection == model.SortAsc {
		direction = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", column, direction)
}

// FindAllUsers returns one page of users plus the total match count.
func (r *UserRepository) FindAllUsers(ctx context.Context, q model.UserQuery) ([]*model.User, int, error) {
	q = q.Normalize()
	log := logger.Log.WithFields(logrus.Fields{
		"page":       q.PageNumber,
		"page_size":  q.PageSize,
		"ban_status": q.BanStatus,
	})
	log.Info("Executing query to list users")

	where, args := buildUserFilter(q)

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		log.WithError(err).Error("Failed to execute count users query")
		return nil, 0, err
	}

	args = append(args, q.PageSize, (q.PageNumber-1)*q.PageSize)
	query := `SELECT ` + userColumns + ` FROM users` + where + buildUserOrder(q) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.WithError(err).Error("Failed to execute list users query")
		return nil, 0, err
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			log.WithError(err).Error("Failed to scan user row")
			return nil, 0, err
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
