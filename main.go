package main

import (
	"context"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"admitchat/internal/backend"
	"admitchat/internal/chat"
	"admitchat/internal/config"
	"admitchat/internal/transport"
	"admitchat/internal/ui"
)

func main() {
	// .env is optional; credentials may come from the real environment.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("ADMITCHAT_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	creds, err := config.LoadCredentials()
	if err != nil {
		log.Fatalf("load credentials: %v", err)
	}
	if creds.Token == "" || creds.UserID == "" {
		log.Fatal("ADMITCHAT_TOKEN and ADMITCHAT_USER_ID must be set")
	}

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	api := backend.NewClient(cfg.Backend.BaseURL, creds.Token, cfg.Backend.Timeout(), logger)
	rt := transport.NewClient(transport.Config{
		URL:            cfg.Realtime.URL,
		Token:          creds.Token,
		ReconnectDelay: cfg.Realtime.ReconnectInterval(),
		Heartbeat:      cfg.Realtime.HeartbeatInterval(),
	}, logger)

	ctrl := chat.NewController(api, rt, creds.UserID, logger)
	rt.Start()
	defer rt.Close()
	ctrl.Start(context.Background())

	program := tea.NewProgram(ui.New(ctrl), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		logger.Error("shell stopped", zap.Error(err))
		os.Exit(1)
	}
}

// newLogger writes structured logs to a file so they do not tear the
// terminal UI.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"admitchat.log"}
	cfg.ErrorOutputPaths = []string{"admitchat.log"}
	return cfg.Build()
}
