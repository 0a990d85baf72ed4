package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/driftlabs/relaychat/internal/config"
	"github.com/driftlabs/relaychat/internal/handler"
	"github.com/driftlabs/relaychat/internal/handler/admin"
	"github.com/driftlabs/relaychat/internal/handler/ws"
	"github.com/driftlabs/relaychat/internal/service/ai"
	chatservice "github.com/driftlabs/relaychat/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if cfg.Chat.AdminKey == "" {
		log.Println("CHAT_ADMIN_KEY not set, moderation endpoints disabled")
	}

	chatSvc := chatservice.NewService(cfg.Chat)
	chatSvc.RegisterBot(chatservice.PingBot)

	if cfg.AI.Enabled() {
		aiSvc, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without the ask bot")
		} else {
			chatSvc.RegisterBot(aiSvc.Bot())
			log.Println("AI ask bot enabled")
		}
	} else {
		log.Println("ark credentials not configured, skipping the ask bot")
	}

	go chatSvc.Run(ctx)

	router := handler.NewRouter(
		ws.New(chatSvc, cfg.WS),
		admin.New(chatSvc, cfg.Chat.AdminKey),
	)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("relaychat listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
