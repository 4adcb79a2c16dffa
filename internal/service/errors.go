package service

import (
	"fmt"
	"strings"

	"go-admin-users/internal/authz"
)

// ValidationError 字段级校验失败（大部分校验走 binding，这里是跨字段规则）
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalidField(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// AuthorizationError 硬 403，固定提示语
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

func errForbidden() *AuthorizationError {
	return &AuthorizationError{Message: authz.ForbiddenMessage}
}

type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// PersistenceError 存储层失败，对外统一话术，细节进日志
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }
