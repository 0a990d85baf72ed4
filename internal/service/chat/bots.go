package chat

import (
	"context"
	"log"
	"time"
)

// Reply is what a bot hands back for one chat message. It lives only for
// the duration of that message's fan-out.
type Reply struct {
	BotName      string
	Message      string
	OnlyToSender bool
}

// Bot is a pluggable post-processing hook invoked for every accepted chat
// message. Returning (nil, nil) means the bot has nothing to say.
type Bot func(ctx context.Context, message, sender, userID string) (*Reply, error)

// botTimeout bounds a single message's bot processing so a stalled hook
// cannot wedge the relay forever.
const botTimeout = 5 * time.Second

// runBots offers the message to every registered bot in order. Every hook
// sees the message; the first non-nil reply is the one fanned out. Errors
// are logged and treated as no reply.
func (s *Service) runBots(message, sender, userID string) *Reply {
	if len(s.bots) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), botTimeout)
	defer cancel()

	var winner *Reply
	for _, bot := range s.bots {
		reply, err := bot(ctx, message, sender, userID)
		if err != nil {
			log.Printf("[chat] bot error: %v", err)
			continue
		}
		if reply != nil && winner == nil {
			winner = reply
		}
	}
	return winner
}

// PingBot answers "!ping" with a pong broadcast. It doubles as the smallest
// possible example of the bot contract.
func PingBot(_ context.Context, message, _, _ string) (*Reply, error) {
	if message != "!ping" {
		return nil, nil
	}
	return &Reply{
		BotName:      "~Pong~",
		Message:      "Pong!",
		OnlyToSender: false,
	}, nil
}
