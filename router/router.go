package router

import (
	"go-session-api/config"
	_ "go-session-api/docs"
	"go-session-api/handler"
	"go-session-api/service"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Health *handler.HealthHandler
	Auth   *handler.AuthHandler
	Device *handler.DeviceHandler
	User   *handler.UserHandler
}

func NewRouter(h Handlers, tokens service.ITokenService, admin config.AdminConfig) http.Handler {
	mux := http.NewServeMux()

	withAccess := handler.AuthMiddleware(tokens)
	withRefresh := handler.RefreshTokenMiddleware(tokens)
	withAdmin := handler.AdminMiddleware(admin)

	mux.HandleFunc("GET /health", h.Health.HealthCheck)
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	mux.Handle("POST /auth/registration", handler.ErrorHandlingMiddleware(h.Auth.Register))
	mux.Handle("POST /auth/login", handler.ErrorHandlingMiddleware(h.Auth.Login))
	mux.Handle("POST /auth/refresh-token", withRefresh(handler.ErrorHandlingMiddleware(h.Auth.RefreshToken)))
	mux.Handle("POST /auth/logout", withRefresh(handler.ErrorHandlingMiddleware(h.Auth.Logout)))
	mux.Handle("GET /auth/me", withAccess(handler.ErrorHandlingMiddleware(h.Auth.Me)))

	mux.Handle("GET /security/devices", withRefresh(handler.ErrorHandlingMiddleware(h.Device.ListDevices)))
	mux.Handle("DELETE /security/devices", withRefresh(handler.ErrorHandlingMiddleware(h.Device.DeleteOtherDevices)))
	mux.Handle("DELETE /security/devices/{deviceId}", withRefresh(handler.ErrorHandlingMiddleware(h.Device.DeleteDevice)))

	mux.Handle("GET /sa/users", withAdmin(handler.ErrorHandlingMiddleware(h.User.ListUsers)))
	mux.Handle("POST /sa/users", withAdmin(handler.ErrorHandlingMiddleware(h.User.CreateUser)))
	mux.Handle("PUT /sa/users/{id}/ban", withAdmin(handler.ErrorHandlingMiddleware(h.User.BanUser)))

	return mux
}
