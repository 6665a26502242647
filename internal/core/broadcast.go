package core

import "github.com/huddlechat/huddle/internal/domain"

// Broadcaster is the delivery capability the coordination services
// run on. Every emission targets one connection, all connections of
// one user, or every connected session; there is no persisted
// subscriber list. Delivery is best-effort, at-most-once: a target
// that is gone or backpressured is silently skipped.
type Broadcaster interface {
	SendToConnection(id ConnectionID, v any)
	SendToUser(userID domain.UserID, v any)
	SendToAll(v any)
}
