package core

import (
	"context"

	"github.com/huddlechat/huddle/internal/domain"
)

// Directory is the external identity/friend-graph collaborator.
// The coordination layer only ever asks it two questions.
type Directory interface {
	Lookup(ctx context.Context, id domain.UserID) (domain.User, error)
	FriendIDs(ctx context.Context, id domain.UserID) (map[domain.UserID]struct{}, error)
}

// HistorySink records call system messages ("X joined the call").
// Callers submit through app.History, never directly: logging is
// fire-and-forget and a sink failure must never reach the relay.
type HistorySink interface {
	LogCallEvent(ctx context.Context, ev domain.CallEvent) error
}
