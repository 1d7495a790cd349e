package handler

import (
	"errors"
	"go-session-api/common"
	"go-session-api/model"
	"go-session-api/service"
	"net/http"
	"strconv"
)

// UserHandler serves the /sa user administration routes.
type UserHandler struct {
	users service.IUserService
}

func NewUserHandler(users service.IUserService) *UserHandler {
	return &UserHandler{users: users}
}

func parseUserQuery(r *http.Request) model.UserQuery {
	v := r.URL.Query()
	pageNumber, _ := strconv.Atoi(v.Get("pageNumber"))
	pageSize, _ := strconv.Atoi(v.Get("pageSize"))
	return model.UserQuery{
		BanStatus:       model.BanStatus(v.Get("banStatus")),
		SearchLoginTerm: v.Get("searchLoginTerm"),
		SearchEmailTerm: v.Get("searchEmailTerm"),
		SortBy:          v.Get("sortBy"),
		SortDirection:   model.SortDirection(v.Get("sortDirection")),
		PageNumber:      pageNumber,
		PageSize:        pageSize,
	}.Normalize()
}

// ListUsers godoc
// @Summary      List users
// @Tags         sa-users
// @Produce      json
// @Param        banStatus       query string false "all | banned | notBanned"
// @Param        searchLoginTerm query string false "Login substring"
// @Param        searchEmailTerm query string false "Email substring"
// @Param        sortBy          query string false "createdAt | login | email | banDate"
// @Param        sortDirection   query string false "asc | desc"
// @Param        pageNumber      query int    false "Page, from 1"
// @Param        pageSize        query int    false "Page size"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  common.AppError
// @Router       /sa/users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) *common.AppError {
	page, err := h.users.ListUsers(r.Context(), parseUserQuery(r))
	if err != nil {
		return serviceError(err)
	}

	writeJSON(w, http.StatusOK, page)
	return nil
}

// CreateUser godoc
// @Summary      Create a user
// @Tags         sa-users
// @Accept       json
// @Produce      json
// @Param        user body model.RegisterRequest true "New user"
// @Success      201  {object}  model.UserView
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError
// @Router       /sa/users [post]
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RegisterRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	user, err := h.users.CreateUser(r.Context(), req)
	if err != nil {
		return serviceError(err)
	}

	writeJSON(w, http.StatusCreated, user)
	return nil
}

// BanUser godoc
// @Summary      Ban or unban a user
// @Description  Banning terminates every session of the user.
// @Tags         sa-users
// @Accept       json
// @Param        id  path int true "User ID"
// @Param        ban body model.BanUserRequest true "Ban info"
// @Success      204
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /sa/users/{id}/ban [put]
func (h *UserHandler) BanUser(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid user ID in URL path", err)
	}

	var req model.BanUserRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	if err := h.users.BanUser(r.Context(), userID, req); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return common.NewAppError(http.StatusNotFound, err.Error(), err)
		}
		return serviceError(err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
