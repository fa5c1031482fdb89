package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/walletroast/backend-go/internal/boot"
	"github.com/andresuchdata/walletroast/backend-go/internal/cache"
	"github.com/andresuchdata/walletroast/backend-go/internal/cleanup"
	"github.com/andresuchdata/walletroast/backend-go/internal/config"
	"github.com/andresuchdata/walletroast/backend-go/internal/media"
	"github.com/andresuchdata/walletroast/backend-go/internal/repository"
	"github.com/andresuchdata/walletroast/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/walletroast/backend-go/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Log.Warn().Err(err).Msg("could not load .env file")
	}

	app := &cli.App{
		Name:  "mediactl",
		Usage: "Operate the wallet roast media pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "upload",
				Usage: "Optimize an image and upload it to X, printing the media id",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "url",
						Usage:    "Public URL of the source image",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "token",
						Usage:    "OAuth2 user access token",
						Required: true,
						EnvVars:  []string{"TWITTER_ACCESS_TOKEN"},
					},
				},
				Action: runUpload,
			},
			{
				Name:   "migrate",
				Usage:  "Create the share tables",
				Flags:  []cli.Flag{newDBURLFlag()},
				Action: runMigrate,
			},
			{
				Name:  "cleanup",
				Usage: "Prune share records and archived memes once",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "retention-days",
						Usage:   "Delete anything older than this many days",
						EnvVars: []string{"CLEANUP_RETENTION_DAYS"},
					},
				},
				Action: runCleanup,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("mediactl failed")
		stop()
		os.Exit(1)
	}
}

func runUpload(c *cli.Context) error {
	cfg := config.Load()

	objects, err := boot.ProvideObjectStorage(cfg.Storage)
	if err != nil {
		return err
	}
	pipeline, err := boot.ProvidePipeline(cfg, objects)
	if err != nil {
		return err
	}
	clients, err := boot.ProvideClientFactory(cfg.Twitter)
	if err != nil {
		return err
	}

	result, err := pipeline.Process(c.Context, media.MediaUploadRequest{
		SourceURL: c.String("url"),
		Client:    clients(c.Context, c.String("token")),
	})
	if err != nil {
		if kind, ok := media.KindOf(err); ok {
			return cli.Exit(fmt.Sprintf("%s: %v", kind, err), 2)
		}
		return err
	}

	fmt.Fprintf(c.App.Writer, "media_id=%s strategy=%s bytes=%d chunks=%d polls=%d\n",
		result.MediaID, result.Strategy, result.Length, result.Chunks, result.PollAttempts)
	return nil
}

func runMigrate(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(c.Context, time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if err := postgres.ApplySchema(ctx, db); err != nil {
		return err
	}

	logger.Log.Info().Int("statements", len(postgres.Schema)).Msg("schema applied")
	return nil
}

func runCleanup(c *cli.Context) error {
	cfg := config.Load()
	if !cfg.Database.Enabled {
		return cli.Exit("cleanup needs DB_ENABLED=true", 1)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	objects, err := boot.ProvideObjectStorage(cfg.Storage)
	if err != nil {
		return err
	}

	retention := cfg.Cleanup.Retention()
	if days := c.Int("retention-days"); days > 0 {
		retention = time.Duration(days) * 24 * time.Hour
	}

	shareCache, err := cache.NewShareCache(cfg.Cache)
	if err != nil {
		return fmt.Errorf("share cache: %w", err)
	}

	pruner := repoPruner{repo: postgres.NewShareRepository(db), cache: shareCache}
	job := cleanup.NewJob(pruner, objects, cfg.Storage.Prefix, retention, logger.With("cleanup"))
	result, err := job.Run(c.Context)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "shares_deleted=%d objects_deleted=%d\n", result.SharesDeleted, result.ObjectsDeleted)
	return nil
}

// repoPruner deletes expired rows and drops cached copies so they do not
// outlive the rows.
type repoPruner struct {
	repo  repository.ShareRepository
	cache cache.ShareCache
}

func (p repoPruner) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 && p.cache != nil {
		if err := p.cache.InvalidateAll(ctx); err != nil {
			return deleted, fmt.Errorf("invalidate share cache: %w", err)
		}
	}
	return deleted, nil
}
