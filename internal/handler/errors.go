package handler

import (
    "errors"   // errors.As/Is unwrap service and framework errors
    "net/http" // status codes

    "github.com/labstack/echo/v4" // echo error handler signature

    "github.com/iliyamo/taskflow/internal/apperror"
    "github.com/iliyamo/taskflow/internal/service"
)

// errorBody is the single JSON error shape.  Errors is present only for
// validation failures.
type errorBody struct {
    Error  string                `json:"error"`
    Errors []apperror.FieldError `json:"errors,omitempty"`
}

// ErrorHandler is the terminal error layer installed as e.HTTPErrorHandler.
// It normalizes every error returned by handlers and middleware, logs
// internal failures with detail and renders only client-safe messages.
func ErrorHandler(err error, c echo.Context) { // matches echo.HTTPErrorHandler
    if c.Response().Committed {
        return
    }
    ae := normalize(err)
    if ae.Kind == apperror.KindInternal {
        c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
    }
    body := errorBody{Error: ae.Message, Errors: ae.Fields}
    if ae.Kind == apperror.KindInternal {
        body.Error = http.StatusText(http.StatusInternalServerError)
    }

    var werr error
    if c.Request().Method == http.MethodHead {
        werr = c.NoContent(ae.Status)
    } else {
        werr = c.JSON(ae.Status, body)
    }
    if werr != nil {
        c.Logger().Errorf("write error response: %v", werr)
    }
}

// normalize maps any error to the tagged apperror.Error.
func normalize(err error) *apperror.Error {
    var ae *apperror.Error
    if errors.As(err, &ae) {
        return ae
    }
    if mapped := fromService(err); mapped != nil {
        return mapped
    }
    var he *echo.HTTPError
    if errors.As(err, &he) {
        msg, ok := he.Message.(string)
        if !ok || msg == "" {
            msg = http.StatusText(he.Code)
        }
        if he.Code >= http.StatusInternalServerError {
            return apperror.Internal(msg, err)
        }
        return apperror.Domain(he.Code, msg)
    }
    return apperror.Internal("unhandled error", err)
}

// fromService translates service sentinels into client errors.
func fromService(err error) *apperror.Error {
    switch {
    case errors.Is(err, service.ErrEmailInUse):
        return apperror.EmailInUse()
    case errors.Is(err, service.ErrInvalidCredentials):
        return apperror.InvalidCredentials()
    case errors.Is(err, service.ErrInvalidRefreshToken):
        return apperror.InvalidRefreshToken()
    case errors.Is(err, service.ErrUserNotFound):
        return apperror.Domain(http.StatusNotFound, "User not found")
    case errors.Is(err, service.ErrSelfDelete):
        return apperror.Domain(http.StatusBadRequest, "Cannot delete your own account")
    case errors.Is(err, service.ErrNoFieldsToUpdate):
        return apperror.Domain(http.StatusBadRequest, "No fields to update")
    case errors.Is(err, service.ErrWrongPassword):
        return apperror.Domain(http.StatusUnauthorized, "Current password is incorrect")
    case errors.Is(err, service.ErrSamePassword):
        return apperror.Domain(http.StatusBadRequest, "New password must be different from current password")
    case errors.Is(err, service.ErrTaskNotFound):
        return apperror.Domain(http.StatusNotFound, "Task not found")
    case errors.Is(err, service.ErrTaskForbidden):
        return apperror.Domain(http.StatusForbidden, "You are not allowed to modify this task")
    case errors.Is(err, service.ErrDueDateInPast):
        return apperror.Domain(http.StatusBadRequest, "Due date cannot be in the past")
    case errors.Is(err, service.ErrAssigneeNotFound):
        return apperror.Domain(http.StatusBadRequest, "Assignee not found")
    case errors.Is(err, service.ErrTeamNotFound):
        return apperror.Domain(http.StatusNotFound, "Team not found")
    case errors.Is(err, service.ErrNotTeamMember):
        return apperror.Domain(http.StatusForbidden, "You are not a member of this team")
    case errors.Is(err, service.ErrAlreadyInTeam):
        return apperror.Domain(http.StatusConflict, "User already in team")
    case errors.Is(err, service.ErrNotificationNotFound):
        return apperror.Domain(http.StatusNotFound, "Notification not found")
    }
    return nil
}
