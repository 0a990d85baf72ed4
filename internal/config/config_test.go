package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Blank values take the default path, so a polluted environment
	// cannot skew the test.
	for _, key := range []string{"PORT", "ANON_PREFIX", "CHAT_RATE_MSG_PER_MINUTE", "CHAT_RATE_RESET_MINUTES", "WS_FRAMES_PER_SECOND", "WS_FRAME_BURST", "ARK_API_KEY", "ARK_MODEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.Server.Addr)
	}
	if cfg.Chat.AnonPrefix != "anon-" {
		t.Fatalf("expected default anon prefix, got %q", cfg.Chat.AnonPrefix)
	}
	if cfg.Chat.MsgPerMinute != 20 || cfg.Chat.ResetInterval != 60*time.Minute {
		t.Fatalf("unexpected rate defaults: %d per minute, reset %s", cfg.Chat.MsgPerMinute, cfg.Chat.ResetInterval)
	}
	if cfg.WS.FramesPerSecond != 100 || cfg.WS.FrameBurst != 200 {
		t.Fatalf("unexpected ws defaults: %v/%d", cfg.WS.FramesPerSecond, cfg.WS.FrameBurst)
	}
	if cfg.AI.Enabled() {
		t.Fatal("AI must be disabled without credentials")
	}
}

func TestPortForms(t *testing.T) {
	tests := []struct {
		port    string
		want    string
		wantErr bool
	}{
		{port: "9000", want: ":9000"},
		{port: ":9000", want: ":9000"},
		{port: "127.0.0.1:9000", want: "127.0.0.1:9000"},
		{port: "bad port", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.port, func(t *testing.T) {
			t.Setenv("PORT", tt.port)
			cfg, err := loadServerConfig()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.port)
				}
				return
			}
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if cfg.Addr != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, cfg.Addr)
			}
		})
	}
}

func TestMessageBudgetIsWindowProduct(t *testing.T) {
	t.Setenv("CHAT_RATE_MSG_PER_MINUTE", "5")
	t.Setenv("CHAT_RATE_RESET_MINUTES", "30")

	cfg, err := loadChatConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.MessageBudget(); got != 150 {
		t.Fatalf("expected budget 150, got %d", got)
	}
}

func TestInvalidRateValuesRejected(t *testing.T) {
	t.Setenv("CHAT_RATE_MSG_PER_MINUTE", "0")
	if _, err := loadChatConfig(); err == nil {
		t.Fatal("expected error for a zero rate")
	}

	t.Setenv("CHAT_RATE_MSG_PER_MINUTE", "abc")
	if _, err := loadChatConfig(); err == nil {
		t.Fatal("expected error for a non-numeric rate")
	}
}

func TestAIEnabledForms(t *testing.T) {
	t.Setenv("ARK_MODEL", "test-model")
	t.Setenv("ARK_API_KEY", "key")
	if cfg := loadAIConfig(); !cfg.Enabled() {
		t.Fatal("expected API key + model to enable AI")
	}

	t.Setenv("ARK_API_KEY", "")
	if cfg := loadAIConfig(); cfg.Enabled() {
		t.Fatal("expected AI disabled without any key")
	}

	t.Setenv("ARK_ACCESS_KEY", "ak")
	t.Setenv("ARK_SECRET_KEY", "sk")
	if cfg := loadAIConfig(); !cfg.Enabled() {
		t.Fatal("expected AK/SK pair + model to enable AI")
	}
}
