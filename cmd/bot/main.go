package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/titomostafa/guessface-bot/internal/bot"
	"github.com/titomostafa/guessface-bot/internal/config"
	"github.com/titomostafa/guessface-bot/internal/httpapi"
	"github.com/titomostafa/guessface-bot/internal/layout"
	"github.com/titomostafa/guessface-bot/internal/platform"
	"github.com/titomostafa/guessface-bot/internal/session"
	"github.com/titomostafa/guessface-bot/internal/stats"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	var log *zap.Logger
	var err error
	if cfg.Dev {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lay, err := layout.Load(cfg.LayoutPath)
	if err != nil {
		log.Fatal("loading layout", zap.String("path", cfg.LayoutPath), zap.Error(err))
	}

	var rec stats.Recorder = stats.Noop{}
	if cfg.StatsDSN != "" {
		store, err := stats.Open(cfg.StatsDSN)
		if err != nil {
			log.Fatal("opening stats store", zap.Error(err))
		}
		rec = store
	}

	// The session needs the room before the client needs its handler, so
	// wire the handler through a late-bound forwarder.
	var b *bot.Bot
	handler := &forwardingHandler{}

	client, err := platform.Dial(ctx, cfg.PlatformURL, handler, log.Named("platform"))
	if err != nil {
		log.Fatal("connecting to platform", zap.String("url", cfg.PlatformURL), zap.Error(err))
	}

	sess := session.New(ctx, session.Config{
		Room:       client,
		Layout:     lay,
		Stats:      rec,
		Log:        log.Named("session"),
		Timings:    session.DefaultTimings(),
		MinPlayers: cfg.MinPlayers,
	})
	b = bot.New(sess, client, rec, cfg.Owners, log.Named("bot"))
	handler.Handler = b

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: httpapi.SetupRoutes(rec)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("platform client running", zap.String("url", cfg.PlatformURL))
		return client.Run(gctx)
	})
	g.Go(func() error {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sess.Inbox() <- session.Shutdown{}
		return srv.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Fatal("exited", zap.Error(err))
	}
}

// forwardingHandler lets the websocket client start before the bot exists.
type forwardingHandler struct {
	Handler platform.Handler
}

func (f *forwardingHandler) OnPlayerJoined(p string) {
	if f.Handler != nil {
		f.Handler.OnPlayerJoined(p)
	}
}

func (f *forwardingHandler) OnPlayerLeft(p string) {
	if f.Handler != nil {
		f.Handler.OnPlayerLeft(p)
	}
}

func (f *forwardingHandler) OnPublicMessage(p, t string) {
	if f.Handler != nil {
		f.Handler.OnPublicMessage(p, t)
	}
}

func (f *forwardingHandler) OnPrivateMessage(p, t string) {
	if f.Handler != nil {
		f.Handler.OnPrivateMessage(p, t)
	}
}
