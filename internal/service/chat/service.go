package chat

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/driftlabs/relaychat/internal/config"
	"github.com/driftlabs/relaychat/internal/metrics"
	chatmodel "github.com/driftlabs/relaychat/internal/model/chat"
)

// Service owns all relay state: the session registry, the reverse index
// from transport handle to issued id, the rate limiter and the ban list.
//
// Every transport event (connect, frame, disconnect) and every moderation
// call runs to completion under one mutex, so registry mutations are
// serialized and frames belonging to different inbound messages never
// interleave on the wire. Bot hooks run inside that critical section on
// purpose: their latency is attributed to the one message being handled,
// exactly like the single-threaded loop this design comes from.
type Service struct {
	mu       sync.Mutex
	cfg      config.ChatConfig
	sessions map[string]*chatmodel.Session // registered sessions by user id
	issued   map[chatmodel.Conn]string     // admitted conns -> issued id
	limiter  *RateLimiter
	bans     *BanList
	bots     []Bot
}

// NewService builds an empty relay service.
func NewService(cfg config.ChatConfig) *Service {
	return &Service{
		cfg:      cfg,
		sessions: make(map[string]*chatmodel.Session),
		issued:   make(map[chatmodel.Conn]string),
		limiter:  NewRateLimiter(),
		bans:     NewBanList(),
	}
}

// RegisterBot appends a bot hook. Bots are offered messages in
// registration order. Not safe to call once the service is serving.
func (s *Service) RegisterBot(bot Bot) {
	s.bots = append(s.bots, bot)
}

// Run drives the rate limiter reset timer until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	s.limiter.Run(ctx, s.cfg.ResetInterval)
}

// Connect admits a new transport. Banned peers are closed immediately
// without any frame; everyone else gets an ACK carrying a freshly issued
// user id. The session is not registered until the client completes the
// handshake with that id.
func (s *Service) Connect(conn chatmodel.Conn) (string, bool) {
	addr := conn.PeerAddr()
	if s.bans.IsBanned(addr) {
		log.Printf("[chat] banned address %s tried to connect", addr)
		_ = conn.Close()
		return "", false
	}

	id := uuid.NewString()

	s.mu.Lock()
	s.issued[conn] = id
	s.mu.Unlock()

	log.Printf("[chat] connection admitted: %s (%s)", id, addr)
	metrics.ConnectionsTotal.Inc()

	if err := conn.Send(chatmodel.ConnectAck{Type: chatmodel.TypeConnectAck, UserID: id}); err != nil {
		log.Printf("[chat] failed to send connect ack to %s: %v", id, err)
	}
	return id, true
}

// Disconnect removes all state for a closed transport. It is idempotent;
// a handle that was never admitted is a no-op.
func (s *Service) Disconnect(conn chatmodel.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.issued[conn]
	if !ok {
		return
	}
	delete(s.issued, conn)

	if sess, ok := s.sessions[id]; ok {
		delete(s.sessions, id)
		metrics.ActiveSessions.Dec()
		log.Printf("[chat] user disconnected: %s (%d online)", sess.Name, len(s.sessions))
	}
}

// HandleFrame decodes one inbound frame and dispatches it. Malformed or
// state-illegal frames are dropped with a warning; they never take the
// connection down.
func (s *Service) HandleFrame(conn chatmodel.Conn, data []byte) {
	frame, err := chatmodel.DecodeInbound(data)
	if err != nil {
		log.Printf("[chat] dropping frame: %v", err)
		metrics.MessagesDropped.WithLabelValues(metrics.DropDecode).Inc()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch f := frame.(type) {
	case chatmodel.SessionCreate:
		s.handleSessionCreate(conn, f)
	case chatmodel.MsgRequest:
		s.handleMsgRequest(conn, f)
	case chatmodel.NameChange:
		s.handleNameChange(conn, f)
	}
}

// handleSessionCreate registers the session. The supplied id must be the
// one issued to this very connection at ACK time; ids are never trusted
// across connections.
func (s *Service) handleSessionCreate(conn chatmodel.Conn, f chatmodel.SessionCreate) {
	if s.issued[conn] != f.UserID {
		log.Printf("[chat] session create with foreign or stale id, dropping")
		metrics.MessagesDropped.WithLabelValues(metrics.DropProtocol).Inc()
		return
	}

	s.sessions[f.UserID] = &chatmodel.Session{
		UserID: f.UserID,
		Name:   f.DesiredName,
		Conn:   conn,
	}
	metrics.ActiveSessions.Inc()
	log.Printf("[chat] session created for %s with id %s (%d online)", f.DesiredName, f.UserID, len(s.sessions))

	if err := conn.Send(chatmodel.SessionAck{Type: chatmodel.TypeSessionAck}); err != nil {
		log.Printf("[chat] failed to send session ack to %s: %v", f.UserID, err)
	}
}

// handleMsgRequest runs the broadcast pipeline: sender lookup, rate gate,
// bot hooks, then fan-out. All user-message sends finish before any bot
// sends start.
func (s *Service) handleMsgRequest(conn chatmodel.Conn, f chatmodel.MsgRequest) {
	sender := s.lookupSession(conn, f.UserID)
	if sender == nil {
		log.Printf("[chat] message from unknown session, dropping")
		metrics.MessagesDropped.WithLabelValues(metrics.DropUnknownSender).Inc()
		return
	}

	if count := s.limiter.Touch(conn.PeerAddr()); count > s.cfg.MessageBudget() {
		log.Printf("[chat] rate limit exceeded for %s", sender.Name)
		metrics.MessagesDropped.WithLabelValues(metrics.DropRateLimited).Inc()
		if err := conn.Send(chatmodel.RateLimited{Type: chatmodel.TypeRateLimited}); err != nil {
			log.Printf("[chat] failed to send rate notice to %s: %v", sender.Name, err)
		}
		return
	}

	log.Printf("[chat] -> %s %s", sender.Name, f.Message)

	userMsg := chatmodel.MsgResponse{
		Type:     chatmodel.TypeMsgResponse,
		UserType: chatmodel.SenderUser,
		UserName: sender.Name,
		Message:  f.Message,
	}

	reply := s.runBots(f.Message, sender.Name, f.UserID)

	for id, sess := range s.sessions {
		if id == f.UserID {
			// The sender renders its own message locally.
			continue
		}
		_ = sess.Conn.Send(userMsg)
	}
	metrics.MessagesBroadcast.Inc()

	if reply == nil {
		return
	}

	botMsg := chatmodel.MsgResponse{
		Type:     chatmodel.TypeMsgResponse,
		UserType: chatmodel.SenderBot,
		UserName: reply.BotName,
		Message:  reply.Message,
	}
	if reply.OnlyToSender {
		_ = sender.Conn.Send(botMsg)
	} else {
		for _, sess := range s.sessions {
			_ = sess.Conn.Send(botMsg)
		}
	}
	metrics.BotRepliesTotal.Inc()
}

// handleNameChange arbitrates display-name uniqueness. Unauthenticated
// renames get the anonymity prefix applied to the accepted name.
func (s *Service) handleNameChange(conn chatmodel.Conn, f chatmodel.NameChange) {
	sess := s.lookupSession(conn, f.UserID)
	if sess == nil {
		log.Printf("[chat] name change from unknown session, dropping")
		metrics.MessagesDropped.WithLabelValues(metrics.DropUnknownSender).Inc()
		return
	}

	duplicate := false
	for id, other := range s.sessions {
		if id != f.UserID && other.Name == f.NewName {
			duplicate = true
			break
		}
	}

	ack := chatmodel.NameChangeAck{Type: chatmodel.TypeNameChangeAck}
	if duplicate {
		ack.Success = false
		ack.NewName = f.NewName
	} else {
		name := f.NewName
		if !sess.Authenticated {
			name = s.cfg.AnonPrefix + f.NewName
		}
		log.Printf("[chat] user %s changed name to %s", sess.Name, name)
		sess.Name = name
		ack.Success = true
		ack.NewName = name
	}

	if err := conn.Send(ack); err != nil {
		log.Printf("[chat] failed to send name change ack to %s: %v", f.UserID, err)
	}
}

// lookupSession returns the registered session for userID, but only when
// that id was issued on this same connection.
func (s *Service) lookupSession(conn chatmodel.Conn, userID string) *chatmodel.Session {
	if s.issued[conn] != userID {
		return nil
	}
	return s.sessions[userID]
}

// Kick removes a session by user id or display name (id wins when both are
// given), notifies it, closes its transport and bans its peer address. It
// reports false when no session matched.
func (s *Service) Kick(userID, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target *chatmodel.Session
	if userID != "" {
		target = s.sessions[userID]
	}
	if target == nil && name != "" {
		for _, sess := range s.sessions {
			if sess.Name == name {
				target = sess
				break
			}
		}
	}
	if target == nil {
		return false
	}

	// Best effort only; the kick proceeds even when the notice fails.
	_ = target.Conn.Send(chatmodel.UserKick{
		Type:    chatmodel.TypeUserKick,
		Message: "You have been kicked from the chat",
	})
	_ = target.Conn.Close()

	delete(s.sessions, target.UserID)
	delete(s.issued, target.Conn)
	s.bans.Ban(target.Conn.PeerAddr())

	metrics.ActiveSessions.Dec()
	metrics.KicksTotal.Inc()
	log.Printf("[chat] kicked %s (%s), banned %s", target.Name, target.UserID, target.Conn.PeerAddr())
	return true
}

// Restore lifts the ban on a peer address. It reports false when the
// address was not banned.
func (s *Service) Restore(addr string) bool {
	if !s.bans.Unban(addr) {
		log.Printf("[chat] restore for unbanned address %s", addr)
		return false
	}
	log.Printf("[chat] restored access for %s", addr)
	return true
}

// IsBanned reports whether a peer address is currently banned.
func (s *Service) IsBanned(addr string) bool {
	return s.bans.IsBanned(addr)
}

// ConnectedCount returns the number of registered sessions.
func (s *Service) ConnectedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
