package handler

import (
	"go-session-api/common"
	"net/http"

	"github.com/sirupsen/logrus"
)

func requestFields(r *http.Request) logrus.Fields {
	return logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}
}

// ErrorHandlingMiddleware adapts an error-returning handler to http.Handler.
// A returned AppError is logged with the request method and path and sent
// as JSON.
func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w, requestFields(r))
		}
	}
}
