package chat

// Conn is the transport handle owned by exactly one session. Send is
// best-effort: a failure means the frame was not queued and the caller is
// free to ignore it.
type Conn interface {
	Send(frame any) error
	Close() error
	PeerAddr() string
}

// Session is one connected, possibly-named participant. It exists in the
// registry only between a completed handshake and disconnect or kick.
type Session struct {
	UserID string
	Name   string
	Conn   Conn

	// Authenticated gates the anonymity prefix on rename. No code path
	// sets it yet; it models the intended authentication hook.
	Authenticated bool
}
