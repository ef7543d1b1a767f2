package logging

import (
	"context"

	"github.com/google/uuid"
)

func GetRequestIDFromCtx(ctx context.Context) string {
	if s, ok := ctx.Value(reqKey).(string); ok {
		return s
	}
	return ""
}

func MakeContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, reqKey, requestID)
}

// MakeContextWithNewRequestID tags ctx with a random request id. FUSE
// callbacks and status requests each get one.
func MakeContextWithNewRequestID(ctx context.Context) context.Context {
	return MakeContextWithRequestID(ctx, uuid.NewString())
}
