package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rhom001/database-messenger/internal/cli"
	"github.com/rhom001/database-messenger/internal/config"
	"github.com/rhom001/database-messenger/internal/ratelimit"
	"github.com/rhom001/database-messenger/internal/util"
	"github.com/rhom001/database-messenger/pkg/account"
	"github.com/rhom001/database-messenger/pkg/chat"
	"github.com/rhom001/database-messenger/pkg/directory"
	"github.com/rhom001/database-messenger/pkg/message"
	"github.com/rhom001/database-messenger/pkg/relationship"
	"github.com/rhom001/database-messenger/pkg/store"
)

func main() {
	configPath := flag.String("config", config.ConfigPath, "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}
	util.InitLogger(cfg.LogLevel)

	var dataStore store.Store
	if cfg.DatabaseURL != "" {
		gormStore, err := store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			util.Fatal("failed to init postgres store", "err", err)
		}
		dataStore = gormStore
		slog.Info("using postgres store")
	} else {
		dataStore = store.NewMemoryStore()
		slog.Info("no databaseURL configured, using in-memory store")
	}

	sessionTTL := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	var sessions store.SessionStore
	if cfg.RedisAddr != "" {
		sessions = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, sessionTTL)
		slog.Info("using redis session store", "addr", cfg.RedisAddr)
	} else {
		sessions = store.NewMemorySessionStore(sessionTTL)
	}

	var loginLimiter *ratelimit.FixedWindowLimiter
	if cfg.RedisAddr != "" && cfg.LoginRateLimit > 0 {
		window := time.Duration(cfg.LoginRateWindowSeconds) * time.Second
		loginLimiter, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "messenger:login", cfg.LoginRateLimit, window)
		if err != nil {
			util.Fatal("failed to init login rate limiter", "err", err)
		}
		slog.Info("login rate limiting enabled", "limit", cfg.LoginRateLimit, "windowSeconds", cfg.LoginRateWindowSeconds)
	}

	dir := directory.NewService(dataStore)
	menu := cli.New(cli.Config{
		Directory:    dir,
		Relationship: relationship.NewService(dataStore, dir),
		Chats:        chat.NewService(dataStore, dir),
		Messages:     message.NewService(dataStore),
		Accounts:     account.NewService(dataStore),
		Sessions:     sessions,
		LoginLimiter: loginLimiter,
		In:           os.Stdin,
		Out:          os.Stdout,
	})
	menu.Run()
}
