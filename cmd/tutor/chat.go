package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ai9campus/smarttutor/internal/chat"
	"github.com/ai9campus/smarttutor/internal/config"
	"github.com/ai9campus/smarttutor/internal/tutor"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the tutor in the terminal",
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg := config.LoadFrom(v)
	// Logs would interleave with the conversation, so only warnings and
	// above reach the terminal unless debug was asked for.
	level := cfg.LogLevel
	if level != "debug" {
		level = "warn"
	}
	logger := setupLogging(os.Stderr, level, cfg.LogFormat)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	tc := a.template
	tc.SessionID = uuid.NewString()
	ctrl := tutor.New(tc)

	repl, err := chat.New(chat.Config{
		Controller: ctrl,
		Index:      a.index,
		Out:        os.Stdout,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	in, err := chat.NewTerminalReader(historyFile())
	if err != nil {
		return err
	}
	return repl.Run(ctx, in)
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "smarttutor")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}
