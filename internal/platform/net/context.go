// Package net carries request scoped identifiers and the transport envelope
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey uint8

const (
	keyUserID ctxKey = iota + 1
	keyBatchID
)

// WithRequest stores the request id where chi expects it plus the caller's user id
func WithRequest(ctx context.Context, reqID, userID string) context.Context {
	if reqID != "" {
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	return WithUser(ctx, userID)
}

// WithUser stores the user id a classify batch is attributed to
func WithUser(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, keyUserID, userID)
}

// WithBatch stores the batch id minted for a classify call
func WithBatch(ctx context.Context, batchID string) context.Context {
	if batchID == "" {
		return ctx
	}
	return context.WithValue(ctx, keyBatchID, batchID)
}

// RequestID returns the chi request id or ""
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// UserID returns the user id or ""
func UserID(ctx context.Context) string {
	v, _ := ctx.Value(keyUserID).(string)
	return v
}

// BatchID returns the batch id or ""
func BatchID(ctx context.Context) string {
	v, _ := ctx.Value(keyBatchID).(string)
	return v
}
