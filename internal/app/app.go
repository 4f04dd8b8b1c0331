// Package app wires configuration, stores and clients into the youi
// subcommands.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/youi/backend/internal/chat"
	"github.com/youi/backend/internal/client"
	"github.com/youi/backend/internal/config"
	"github.com/youi/backend/internal/handlers"
	"github.com/youi/backend/internal/httpserver"
	"github.com/youi/backend/internal/localstate"
	"github.com/youi/backend/internal/logging"
	"github.com/youi/backend/internal/mcpserver"
	"github.com/youi/backend/internal/middleware"
)

// Version is reported by `youi version` and the MCP handshake.
var Version = "dev"

const usage = "expected command: serve, chat, mcp, migrate, hash-key or version"

// Run bootstraps the YOUI application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "chat":
		return runChat(ctx, os.Stdin, os.Stdout)
	case "mcp":
		return runMCP(ctx)
	case "migrate":
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx = logging.WithLogger(ctx, logging.New(os.Stderr, cfg.LogLevel))
		return runMigrations(ctx, cfg, args[1:], os.Stdout)
	case "hash-key":
		return hashKey(args[1:], os.Stdin, os.Stdout)
	case "version":
		fmt.Println(Version)
		return nil
	default:
		return fmt.Errorf("unknown command %q: %s", args[0], usage)
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)
	ctx = logging.WithLogger(ctx, logger)

	store, closeStore, err := openCredentialStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	b, err := buildBackend(cfg, store, &http.Client{Timeout: cfg.Upstream.Timeout})
	if err != nil {
		return err
	}
	if err := b.session.Restore(ctx, cfg.OAuth.RefreshToken); err != nil {
		return err
	}

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, buildDependencies(b, cfg))

	handler := middleware.RequestLogger(logger)(middleware.CORS(cfg.AllowedOrigin)(mux))

	srv := httpserver.New(cfg.AppPort, handler, httpserver.WriteTimeoutFor(cfg.Upstream.Timeout, cfg.Upstream.MaxRetries))

	logger.Info("starting http server",
		"port", cfg.AppPort,
		"tokenStore", cfg.TokenStore.Kind,
		"completionProvider", cfg.Completion.Provider,
		"loggedIn", b.session.LoggedIn(),
	)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested, stopping server")
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// runMCP serves the tools on stdio. Logs go to stderr because stdout carries
// the protocol.
func runMCP(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)
	ctx = logging.WithLogger(ctx, logger)

	store, closeStore, err := openCredentialStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	b, err := buildBackend(cfg, store, &http.Client{Timeout: cfg.Upstream.Timeout})
	if err != nil {
		return err
	}
	if err := b.session.Restore(ctx, cfg.OAuth.RefreshToken); err != nil {
		return err
	}
	if !b.session.LoggedIn() {
		logger.Warn("no platform credential; log in through `youi serve` at /auth/login")
	}

	logger.Info("serving mcp on stdio", "version", Version)
	err = mcpserver.Run(ctx, b.dispatcher, Version)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runChat drives the terminal chat client against a running backend.
func runChat(ctx context.Context, in io.Reader, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx = logging.WithLogger(ctx, logging.New(os.Stderr, "warn"))

	backend := client.New(cfg.Client.BackendURL, cfg.Client.APIKey, &http.Client{}, upstreamPolicy(cfg))

	state, err := localstate.Open(ctx, cfg.Client.StatePath)
	if err != nil {
		return err
	}
	defer state.Close()

	loggedIn, err := backend.LoggedIn(ctx)
	switch {
	case err != nil:
		fmt.Fprintf(out, "⚠️ Backend at %s is unreachable: %v\n", cfg.Client.BackendURL, err)
	case !loggedIn:
		fmt.Fprintf(out, "🔑 Not logged in. Open %s in a browser to connect YouTube.\n", backend.LoginURL())
	}

	return chat.NewREPL(chat.NewSession(backend, state), in, out).Run(ctx)
}

// hashKey prints the bcrypt hash of the key given as an argument or on stdin.
func hashKey(args []string, in io.Reader, out io.Writer) error {
	var key string
	if len(args) > 0 {
		key = args[0]
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read key: %w", err)
		}
		key = line
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("hash-key: key must not be empty")
	}

	hashed, err := middleware.HashAPIKey(key)
	if err != nil {
		return fmt.Errorf("hash key: %w", err)
	}
	fmt.Fprintln(out, hashed)
	return nil
}
