package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gsarma/jobboard/internal/config"
	"github.com/gsarma/jobboard/internal/crypto"
	"github.com/gsarma/jobboard/internal/model"
	"github.com/gsarma/jobboard/internal/oauth"
	"github.com/gsarma/jobboard/internal/profile"
	"github.com/gsarma/jobboard/internal/session"
	"github.com/gsarma/jobboard/internal/store"
	"github.com/gsarma/jobboard/internal/view"
)

// Run builds every collaborator from cfg and runs the interactive screen.
func Run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, logger *slog.Logger, oauthOpts ...oauth.Option) error {
	profiles, closeStore, err := openProfileStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ln, err := net.Listen("tcp", cfg.CallbackAddr)
	if err != nil {
		return fmt.Errorf("listen for oauth callback on %s: %w", cfg.CallbackAddr, err)
	}
	oauthOpts = append([]oauth.Option{oauth.WithLogger(logger)}, oauthOpts...)
	client := oauth.NewGoogleClient(oauth.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
	}, "http://"+ln.Addr().String(), oauthOpts...)

	srv := oauth.NewCallbackServer(client)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("callback server stopped", slog.String("error", err.Error()))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("callback listener ready", slog.String("redirect_url", client.RedirectURL()))

	ctrl := session.New(profiles, client, profile.NewFetcher(cfg.ProfileURL, nil),
		session.WithLogger(logger),
		session.WithAuthTimeout(cfg.AuthTimeout),
		session.WithNotifier(session.NotifierFunc(func(a model.Alert) {
			_ = view.RenderAlert(out, a)
		})),
	)
	return New(ctrl, in, out).Run(ctx)
}

func openProfileStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.ProfileStore, func(), error) {
	backend, closeFn, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	opts := []store.Option{store.WithLogger(logger)}
	if cfg.CacheKey != "" {
		sealer, err := crypto.NewSealer(cfg.CacheKey)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		opts = append(opts, store.WithSealer(sealer))
	}
	return store.New(backend, opts...), closeFn, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, func(), error) {
	switch cfg.Store {
	case config.StoreSQLite:
		b, err := store.OpenSQLite(cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return b, func() { _ = b.Close() }, nil
	case config.StorePostgres:
		pool, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		b := store.NewPostgresBackend(pool)
		if err := b.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return b, pool.Close, nil
	case config.StoreRedis:
		rdb, err := store.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedisBackend(rdb), func() { _ = rdb.Close() }, nil
	default:
		dir := cfg.StorePath
		if dir == "" {
			var err error
			if dir, err = store.DefaultDir(); err != nil {
				return nil, nil, err
			}
		}
		return store.NewFileBackend(dir), func() {}, nil
	}
}
