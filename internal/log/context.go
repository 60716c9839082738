// SPDX-License-Identifier: MIT

package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// scope is the set of correlation fields carried by a context. It is copied
// on every change so parents never see a child's fields.
type scope struct {
	requestID   string
	settingPath string
}

func scopeOf(ctx context.Context) scope {
	if ctx == nil {
		return scope{}
	}
	s, _ := ctx.Value(ctxKey{}).(scope)
	return s
}

func withScope(ctx context.Context, edit func(*scope)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	s := scopeOf(ctx)
	edit(&s)
	return context.WithValue(ctx, ctxKey{}, s)
}

// ContextWithRequestID stores the request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return withScope(ctx, func(s *scope) { s.requestID = id })
}

// ContextWithSettingPath marks ctx as acting on one setting.
func ContextWithSettingPath(ctx context.Context, path string) context.Context {
	return withScope(ctx, func(s *scope) { s.settingPath = path })
}

// RequestIDFromContext returns the request ID, or "".
func RequestIDFromContext(ctx context.Context) string { return scopeOf(ctx).requestID }

// SettingPathFromContext returns the setting path, or "".
func SettingPathFromContext(ctx context.Context) string { return scopeOf(ctx).settingPath }

// WithContext adds the correlation fields of ctx to logger.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	s := scopeOf(ctx)
	if s == (scope{}) {
		return logger
	}
	b := logger.With()
	if s.requestID != "" {
		b = b.Str(FieldRequestID, s.requestID)
	}
	if s.settingPath != "" {
		b = b.Str(FieldSettingPath, s.settingPath)
	}
	return b.Logger()
}

// WithComponentFromContext returns a component logger carrying the
// correlation fields of ctx.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	return WithContext(ctx, WithComponent(component))
}

// FromContext returns the logger attached to ctx by zerolog, or the base
// logger with the correlation fields of ctx.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return Base()
	}
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return WithContext(ctx, Base())
}
