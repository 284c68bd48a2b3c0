// Package agent – context.go carries per-turn identity through tool
// execution, so handlers can act on behalf of the right user without
// threading ids through every argument schema.
package agent

import "context"

type ctxKey int

const (
	ctxKeyUserID ctxKey = iota
	ctxKeyChatID
)

// WithTurn attaches the turn's user and chat ids to a context.
func WithTurn(ctx context.Context, userID, chatID string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUserID, userID)
	return context.WithValue(ctx, ctxKeyChatID, chatID)
}

// UserIDFrom extracts the turn's user id, or "" when absent.
func UserIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyUserID).(string)
	return id
}

// ChatIDFrom extracts the turn's chat id, or "" when absent.
func ChatIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyChatID).(string)
	return id
}
