package controller

import (
	"errors"
	"net/http"

	"exam_portal_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors to HTTP status codes. Anything unlisted is
// an internal error.
var statusFor = []struct {
	err  error
	code int
}{
	{util.ErrUserNotFound, http.StatusNotFound},
	{util.ErrInvalidCredentials, http.StatusUnauthorized},
	{util.ErrNotLoggedIn, http.StatusUnauthorized},
	{util.ErrEmailRegistered, http.StatusConflict},
	{util.ErrPermissionDenied, http.StatusForbidden},
	{util.ErrEntitlementExpired, http.StatusForbidden},
	{util.ErrExamNotFound, http.StatusNotFound},
	{util.ErrSubjectNotFound, http.StatusNotFound},
	{util.ErrQuestionNotFound, http.StatusNotFound},
	{util.ErrSessionNotFound, http.StatusNotFound},
	{util.ErrAttemptNotFound, http.StatusNotFound},
	{util.ErrNoQuestions, http.StatusUnprocessableEntity},
	{util.ErrPaymentNotPending, http.StatusConflict},
	{util.ErrSessionNotActive, http.StatusConflict},
	{util.ErrInvalidQuestion, http.StatusBadRequest},
	{util.ErrInvalidUserCommand, http.StatusBadRequest},
	{util.ErrInvalidOption, http.StatusBadRequest},
	{util.ErrQuestionOutOfRange, http.StatusBadRequest},
}

func respondError(ctx *gin.Context, err error) {
	for _, e := range statusFor {
		if errors.Is(err, e.err) {
			util.Error(ctx, e.code, err.Error())
			return
		}
	}
	util.LogInternalError(ctx, err)
}
