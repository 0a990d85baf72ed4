package chat

import (
	"encoding/json"
	"fmt"
)

// FrameType tags every frame exchanged over a chat websocket.
type FrameType string

const (
	TypeConnectAck    FrameType = "ACK"  // server -> client, carries issued user id
	TypeSessionCreate FrameType = "SRC"  // client -> server
	TypeSessionAck    FrameType = "SRP"  // server -> client
	TypeMsgRequest    FrameType = "REQ"  // client -> server
	TypeMsgResponse   FrameType = "RESP" // server -> client broadcast
	TypeNameChange    FrameType = "NAME" // client -> server
	TypeNameChangeAck FrameType = "NACK" // server -> client
	TypeUserKick      FrameType = "KICK" // server -> client, moderation
	TypeRateLimited   FrameType = "RATE" // server -> client, limiter tripped
)

// SenderKind distinguishes user messages from bot messages in a broadcast.
type SenderKind int

const (
	SenderUser SenderKind = iota
	SenderBot
)

// ConnectAck is sent right after admission. The user id it carries is the
// only id the server will accept back on this connection.
type ConnectAck struct {
	Type   FrameType `json:"type"`
	UserID string    `json:"userId"`
}

// SessionCreate promotes an admitted connection into a named session.
type SessionCreate struct {
	Type        FrameType `json:"type"`
	UserID      string    `json:"userId"`
	DesiredName string    `json:"desiredName"`
}

// SessionAck confirms session registration.
type SessionAck struct {
	Type FrameType `json:"type"`
}

// MsgRequest is an inbound chat message from a registered session.
type MsgRequest struct {
	Type    FrameType `json:"type"`
	UserID  string    `json:"userId"`
	Message string    `json:"message"`
}

// MsgResponse is the broadcast form of a chat message. It intentionally
// carries no user id so internal identities never leak to other clients.
type MsgResponse struct {
	Type     FrameType  `json:"type"`
	UserType SenderKind `json:"userType"`
	UserName string     `json:"userName"`
	Message  string     `json:"message"`
}

// NameChange asks for a new display name.
type NameChange struct {
	Type    FrameType `json:"type"`
	UserID  string    `json:"userId"`
	NewName string    `json:"newName"`
}

// NameChangeAck reports the outcome of a rename.
type NameChangeAck struct {
	Type    FrameType `json:"type"`
	Success bool      `json:"success"`
	NewName string    `json:"newName"`
}

// UserKick notifies a client it is being removed by moderation.
type UserKick struct {
	Type    FrameType `json:"type"`
	Message string    `json:"message"`
}

// RateLimited tells a sender its message was dropped by the limiter.
type RateLimited struct {
	Type FrameType `json:"type"`
}

// Inbound is the closed set of frames a client may send.
type Inbound interface {
	inbound()
}

func (SessionCreate) inbound() {}
func (MsgRequest) inbound()    {}
func (NameChange) inbound()    {}

// ErrUnknownFrameType reports a valid JSON frame whose type tag is not part
// of the protocol, as opposed to malformed JSON.
type ErrUnknownFrameType struct {
	Tag string
}

func (e ErrUnknownFrameType) Error() string {
	return fmt.Sprintf("unknown frame type %q", e.Tag)
}

// DecodeInbound validates the type tag before interpreting the payload, so
// malformed frames surface as decode errors rather than silent dispatch
// misses.
func DecodeInbound(data []byte) (Inbound, error) {
	var envelope struct {
		Type FrameType `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch envelope.Type {
	case TypeSessionCreate:
		var f SessionCreate
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("malformed %s frame: %w", envelope.Type, err)
		}
		return f, nil
	case TypeMsgRequest:
		var f MsgRequest
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("malformed %s frame: %w", envelope.Type, err)
		}
		return f, nil
	case TypeNameChange:
		var f NameChange
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("malformed %s frame: %w", envelope.Type, err)
		}
		return f, nil
	default:
		return nil, ErrUnknownFrameType{Tag: string(envelope.Type)}
	}
}
