package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hangout-chat/go-client/internal/channel"
	"hangout-chat/go-client/internal/client"
	"hangout-chat/go-client/internal/config"
	"hangout-chat/go-client/internal/platform/privacylog"
	"hangout-chat/go-client/internal/platform/ratelimiter"
	"hangout-chat/go-client/internal/session"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "Path to hangout.yaml (optional)")
	endpoint := flag.String("endpoint", "", "Channel endpoint override (ws url or multiaddr, or mock)")
	dataDir := flag.String("data-dir", "", "Directory for the durable relationship record (optional)")
	metricsAddr := flag.String("metrics-addr", "127.0.0.1:9464", "Prometheus metrics listen address (empty to disable)")
	username := flag.String("username", "", "Session username")
	email := flag.String("email", "", "Session email")
	token := flag.String("token", "", "Session token (or HANGOUT_SESSION_TOKEN)")
	flag.Parse()
	if *showVersion {
		fmt.Printf("hangoutd version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadFromPath(*configPath)
	if err != nil {
		log.Fatalf("hangoutd failed to load config: %v", err)
	}
	if *endpoint != "" {
		cfg.Channel.Endpoint = *endpoint
	}
	if *dataDir != "" {
		cfg.Storage.DataDir = *dataDir
	}

	sessionToken := *token
	if sessionToken == "" {
		sessionToken = os.Getenv("HANGOUT_SESSION_TOKEN")
	}
	identity := session.Identity{Username: *username, Email: *email, Token: sessionToken}
	if err := identity.Validate(); err != nil {
		log.Fatalf("hangoutd requires -username and -email: %v", err)
	}

	logger := slog.New(privacylog.Wrap(slog.NewJSONHandler(os.Stdout, nil)))

	ch, err := dialChannel(ctx, cfg.Channel.Endpoint)
	if err != nil {
		log.Fatalf("hangoutd failed to connect: %v", err)
	}
	defer ch.Close()

	c, err := client.New(client.Options{
		Identity:     identity,
		Channel:      ch,
		DirectoryURL: cfg.Directory.BaseURL,
		HTTPClient:   &http.Client{Timeout: cfg.Directory.Timeout},
		DataDir:      cfg.Storage.DataDir,
		Secret:       cfg.Storage.Secret,
		Limiter:      ratelimiter.New(cfg.Limits.CommandsPerSecond, cfg.Limits.CommandBurst, cfg.Limits.LimiterIdleTTL),
		Logger:       logger,
	})
	if err != nil {
		log.Fatalf("hangoutd failed to initialize: %v", err)
	}
	if err := c.Bootstrap(); err != nil {
		log.Fatalf("hangoutd failed to load the relationship cache: %v", err)
	}

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, logger)
	}

	logger.Info("hangoutd started", "version", version, "screen", string(c.ActiveScreen()))
	<-ctx.Done()
	logger.Info("hangoutd stopped")
}

// dialChannel connects the realtime channel. "mock" wires an in-process
// loopback for local development.
func dialChannel(ctx context.Context, endpoint string) (channel.Channel, error) {
	if endpoint == "mock" {
		return channel.NewLoopback(), nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return channel.Dial(dialCtx, endpoint)
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", "error", err)
	}
}
