package core

// Frame is a raw outbound payload, already encoded for the wire.
type Frame []byte

// ConnectionID identifies one live transport connection. A user may
// own several at once (multiple tabs/devices).
type ConnectionID string

// SignalConnection abstracts the system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
