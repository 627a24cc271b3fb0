package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"teacher-assistant-bot/internal/app"
	"teacher-assistant-bot/internal/bot"
	"teacher-assistant-bot/internal/config"
	"teacher-assistant-bot/internal/domain"
	"teacher-assistant-bot/internal/telemetry"
	transport "teacher-assistant-bot/internal/transport/http"
	"teacher-assistant-bot/internal/transport/telegram"
)

// NewStartCmd builds the CLI subcommand to start the bot.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the bot (default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if portFlag != "" {
		cfg.Server.Port = portFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := telemetry.NewLogger(cfg.Log)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backends, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backends.Close()

	var router *bot.Router
	dispatcher := bot.NewDispatcher(func(ctx context.Context, ev domain.Event) {
		router.Dispatch(ctx, ev)
	}, cfg.Dispatch.Workers, log)

	var (
		out       bot.Sender
		wsHandler *transport.WSHandler
		tg        *telegram.Bot
	)
	switch cfg.Transport {
	case config.TransportWebSocket:
		wsHandler = transport.NewWSHandler(dispatcher.Submit, log)
		out = wsHandler
	default:
		tg, err = telegram.New(cfg.Telegram.Token, dispatcher.Submit, log)
		if err != nil {
			return err
		}
		out = tg
	}

	router = bot.NewRouter(buildServices(cfg, backends, out, log), out, log)

	server := transport.NewServer(":"+cfg.Server.Port, wsHandler)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("transport", cfg.Transport).Msg("http_listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http_failed")
			stop()
		}
	}()

	if tg != nil {
		// Run returns once ctx is cancelled
		tg.Run(ctx)
	} else {
		<-ctx.Done()
	}
	log.Info().Msg("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = server.Shutdown(shutdownCtx)
	dispatcher.Wait()
	return err
}

func buildServices(cfg config.Config, b *backends, out bot.Sender, log zerolog.Logger) bot.Services {
	auth := app.NewAuthorizer(cfg.Admins)
	fanout := app.NewBroadcaster(out, app.BroadcastOptions{
		Concurrency: cfg.Broadcast.Concurrency,
		Rate:        cfg.Broadcast.Rate,
		Burst:       cfg.Broadcast.Burst,
	}, log)
	return bot.Services{
		Auth:        auth,
		Quiz:        app.NewQuizService(b.sessions, b.questions, b.records, b.records, b.locks, log),
		Attendance:  app.NewAttendanceGuard(b.records, b.locks),
		Directory:   app.NewDirectory(b.records, b.records, b.records, auth, fanout),
		Broadcaster: fanout,
		Library:     app.NewLibrary(cfg.MaterialsDir),
	}
}
