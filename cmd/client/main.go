package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	router "github.com/dkeye/chatcube/internal/adapters/http"
	"github.com/dkeye/chatcube/internal/adapters/term"
	"github.com/dkeye/chatcube/internal/adapters/ws"
	"github.com/dkeye/chatcube/internal/app"
	"github.com/dkeye/chatcube/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chatcube",
		Short: "Terminal client for the chatcube chat server",
		Long: `chatcube connects to a chat server over a websocket, keeps the
connection alive and reconnects when it drops. Type /help once connected.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	flags := rootCmd.Flags()
	flags.String("server", "ws://localhost:8080/ws", "chat server websocket URL")
	flags.StringP("username", "u", "", "display name (prompted when empty)")
	flags.String("status-addr", "", "address for the local status endpoint, empty to disable")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	stdin := bufio.NewReader(os.Stdin)
	name := cfg.Username
	if name == "" {
		if name, err = prompt(stdin, "Your name: "); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	dialer := ws.NewDialer(cfg.ServerURL)
	dialer.DialTimeout = cfg.DialTimeout
	dialer.WriteWait = cfg.WriteWait
	dialer.ReadLimit = cfg.ReadLimit
	dialer.SendBuffer = cfg.SendBuffer

	screen := term.NewPresenter(os.Stdout)
	client := app.NewClient(app.Options{
		Dialer:               dialer,
		Presenter:            screen,
		Metrics:              app.NewMetrics(reg),
		Limiter:              app.NewRateLimiter(cfg.SendRateLimit, cfg.SendRateInterval),
		ReconnectDelay:       cfg.ReconnectDelay,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		PingPeriod:           cfg.PingPeriod,
	})

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- client.Run(ctx)
	}()

	var srv *http.Server
	if cfg.StatusAddr != "" {
		srv = &http.Server{
			Addr:    cfg.StatusAddr,
			Handler: router.SetupRouter(cfg, client.Session(), reg),
		}
		go func() {
			log.Info().Str("addr", cfg.StatusAddr).Msg("status endpoint started")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("status server error")
			}
		}()
	}

	if err := client.RequestConnect(name); err != nil {
		cancel()
		<-loopDone
		return err
	}
	log.Info().Str("server", cfg.ServerURL).Str("username", name).Msg("chatcube started")

	if err := term.Run(ctx, stdin, client, screen); err != nil {
		log.Error().Err(err).Msg("reading input")
	}

	if err := client.RequestDisconnect(); err != nil && !errors.Is(err, app.ErrClientStopped) {
		log.Warn().Err(err).Msg("disconnect")
	}
	cancel()
	<-loopDone

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("status server forced to shutdown")
		}
	}
	log.Info().Msg("chatcube exited")
	return nil
}

func prompt(r *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read name: %w", err)
	}
	return strings.TrimSpace(line), nil
}
