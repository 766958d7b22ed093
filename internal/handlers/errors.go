// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/nutechnocrats/clubhub/internal/apperror"
)

const MsgServerError = "Server Error"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler renders errors returned by handlers and middleware. With
// development set, the underlying error text is included as details.
func ErrorHandler(development bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorResponse(err, development)
		if status >= http.StatusInternalServerError {
			slog.Error("request_failed",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"error", err,
			)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			slog.Error("error_response_failed", "error", writeErr)
		}
	}
}

func errorResponse(err error, development bool) (int, ErrorResponse) {
	if appErr, ok := apperror.As(err); ok {
		body := ErrorResponse{Error: appErr.Message, Code: appErr.Code}
		if body.Error == "" {
			body.Error = MsgServerError
		}
		if development && appErr.Err != nil {
			body.Details = appErr.Err.Error()
		}
		return appErr.Kind.Status(), body
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		body := ErrorResponse{Error: http.StatusText(he.Code)}
		if msg, ok := he.Message.(string); ok && msg != "" {
			body.Error = msg
		} else if he.Message != nil {
			body.Error = fmt.Sprint(he.Message)
		}
		if development && he.Internal != nil {
			body.Details = he.Internal.Error()
		}
		return he.Code, body
	}

	body := ErrorResponse{Error: MsgServerError}
	if development {
		body.Details = err.Error()
	}
	return http.StatusInternalServerError, body
}
