package middleware

import (
	"context"

	"github.com/angelmondragon/roastery-backend/internal/authz"
)

type contextKey string

const ctxSubject contextKey = "subject"

// WithSubject injects the resolved caller into the context.
func WithSubject(ctx context.Context, subject authz.Subject) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSubject, subject)
}

func SubjectFromContext(ctx context.Context) (authz.Subject, bool) {
	if ctx == nil {
		return authz.Subject{}, false
	}
	subject, ok := ctx.Value(ctxSubject).(authz.Subject)
	return subject, ok
}

// UserIDFromContext returns the signed-in user's id, or "" for the local operator.
func UserIDFromContext(ctx context.Context) string {
	subject, ok := SubjectFromContext(ctx)
	if !ok || subject.Kind != authz.SubjectUser {
		return ""
	}
	return subject.UserID
}

// ActorFromContext names the caller for audit columns and outbox rows.
func ActorFromContext(ctx context.Context) string {
	subject, ok := SubjectFromContext(ctx)
	if !ok {
		return ""
	}
	return subject.ID()
}
