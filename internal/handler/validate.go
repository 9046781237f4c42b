package handler

import (
    "net/mail"
    "strings"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/taskflow/internal/apperror"
    "github.com/iliyamo/taskflow/internal/model"
)

const (
    minPasswordLen = 8
    maxPasswordLen = 72 // bcrypt ignores input past 72 bytes
)

// fieldErrors collects per-field validation messages in request order.
type fieldErrors []apperror.FieldError

func (f *fieldErrors) add(field, msg string) {
    *f = append(*f, apperror.FieldError{Field: field, Message: msg})
}

// err returns nil when no field failed.
func (f fieldErrors) err() error {
    if len(f) == 0 {
        return nil
    }
    return apperror.Validation(f...)
}

// bind decodes the request body into dst.
func bind(c echo.Context, dst any) error {
    if err := c.Bind(dst); err != nil {
        return apperror.Validation(apperror.FieldError{Field: "body", Message: "Invalid request body"})
    }
    return nil
}

func (f *fieldErrors) email(field, v string) {
    v = strings.TrimSpace(v)
    if v == "" {
        f.add(field, "Email is required")
        return
    }
    addr, err := mail.ParseAddress(v)
    if err != nil || addr.Address != v || !strings.Contains(v[strings.LastIndex(v, "@")+1:], ".") {
        f.add(field, "Valid email is required")
    }
}

func (f *fieldErrors) password(field, v string) {
    switch {
    case len(v) < minPasswordLen:
        f.add(field, "Password must be at least 8 characters")
    case len(v) > maxPasswordLen:
        f.add(field, "Password must be at most 72 bytes")
    }
}

func (f *fieldErrors) required(field, v, msg string) {
    if strings.TrimSpace(v) == "" {
        f.add(field, msg)
    }
}

func (f *fieldErrors) role(field, v string) model.Role {
    r, ok := model.ParseRole(v)
    if !ok {
        f.add(field, "Role must be one of: admin, member")
    }
    return r
}

// idParam reads a UUID path parameter and returns it in canonical
// lowercase form, the form ids are stored and compared in.
func idParam(c echo.Context, name string) (string, error) {
    id, err := uuid.Parse(c.Param(name))
    if err != nil {
        return "", apperror.Validation(apperror.FieldError{Field: name, Message: "Invalid id"})
    }
    return id.String(), nil
}
