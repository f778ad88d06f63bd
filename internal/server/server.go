// Package server builds the long-lived clients and runs the HTTP service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/site-scraper/internal/api"
	"github.com/JakeFAU/site-scraper/internal/config"
	"github.com/JakeFAU/site-scraper/internal/crawler"
	collyfetcher "github.com/JakeFAU/site-scraper/internal/fetcher/colly"
	"github.com/JakeFAU/site-scraper/internal/hash/sha256"
	"github.com/JakeFAU/site-scraper/internal/id/uuid"
	"github.com/JakeFAU/site-scraper/internal/logging"
	gcppublisher "github.com/JakeFAU/site-scraper/internal/publisher/pubsub"
	"github.com/JakeFAU/site-scraper/internal/scrape"
	gcsstorage "github.com/JakeFAU/site-scraper/internal/storage/gcs"
	localstorage "github.com/JakeFAU/site-scraper/internal/storage/local"
	memorystorage "github.com/JakeFAU/site-scraper/internal/storage/memory"
	pgstore "github.com/JakeFAU/site-scraper/internal/storage/postgres"
)

const shutdownTimeout = 10 * time.Second

// App owns the service's dependencies for the life of the process.
type App struct {
	cfg          config.Config
	logger       *zap.Logger
	apiServer    *api.Server
	storage      *storage.Client
	pubsubClient *pubsub.Client
	publisher    *gcppublisher.Publisher
	scrapeStore  *pgstore.ScrapeStore
}

// Handler exposes the API router.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Build creates the application's dependencies. Clients built here are
// released by Close.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return build(ctx, cfg, logger)
}

func build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	app := &App{cfg: cfg, logger: logger}
	logger.Info("building application dependencies",
		zap.Int("port", cfg.Server.Port),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.Int("max_pages", cfg.Crawler.MaxPages),
	)

	blobStore, err := app.setupStorage(ctx)
	if err != nil {
		return nil, app.closeOnError(err)
	}
	opts := []scrape.Option{scrape.WithHasher(sha256.New())}
	if err := app.setupDatabase(ctx); err != nil {
		return nil, app.closeOnError(err)
	}
	if app.scrapeStore != nil {
		opts = append(opts, scrape.WithRecorder(app.scrapeStore))
	}
	if err := app.setupPublisher(ctx); err != nil {
		return nil, app.closeOnError(err)
	}
	if app.publisher != nil {
		opts = append(opts, scrape.WithPublisher(app.publisher))
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:    cfg.Crawler.UserAgent,
		Timeout:      cfg.FetchTimeout(),
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
	})
	logger.Info("using colly fetcher",
		zap.String("user_agent", cfg.Crawler.UserAgent),
		zap.Duration("timeout", cfg.FetchTimeout()),
	)
	c := crawler.New(fetcher, crawler.SystemClock(), crawler.Config{MaxPages: cfg.Crawler.MaxPages}, logger.Named("crawler"))

	svc := scrape.New(c, blobStore, uuid.New(), scrape.Config{
		Prefix:      cfg.Storage.Prefix,
		ContentType: cfg.Storage.ContentType,
		MaxPages:    cfg.Crawler.MaxPages,
		Topic:       cfg.PubSub.TopicName,
	}, logger.Named("scrape"), opts...)

	app.apiServer = api.NewServer(svc, cfg, logger.Named("api"))
	return app, nil
}

func (a *App) setupStorage(ctx context.Context) (crawler.BlobStore, error) {
	switch a.cfg.Storage.Backend {
	case config.BackendGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		a.storage = client
		blobStore, err := gcsstorage.New(client, gcsstorage.Config{Bucket: a.cfg.Storage.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("gcs blob store init failed: %w", err)
		}
		a.logger.Info("using GCS storage backend", zap.String("bucket", a.cfg.Storage.GCSBucket))
		return blobStore, nil
	case config.BackendLocal:
		blobStore, err := localstorage.New(localstorage.Config{BaseDir: a.cfg.Storage.LocalDir})
		if err != nil {
			return nil, fmt.Errorf("local blob store init failed: %w", err)
		}
		a.logger.Info("using local storage backend", zap.String("path", a.cfg.Storage.LocalDir))
		return blobStore, nil
	case config.BackendMemory:
		a.logger.Warn("using in-memory storage backend; results are lost on exit")
		return memorystorage.NewBlobStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", a.cfg.Storage.Backend)
	}
}

func (a *App) setupDatabase(ctx context.Context) error {
	if a.cfg.DB.DSN == "" {
		a.logger.Info("no database DSN configured, scrape ledger disabled")
		return nil
	}
	store, err := pgstore.NewScrapeStore(ctx, pgstore.ScrapeStoreConfig{
		DSN:      a.cfg.DB.DSN,
		Table:    a.cfg.DB.Table,
		MaxConns: int32(a.cfg.DB.MaxConns), //nolint:gosec // bounded by config validation
	})
	if err != nil {
		return fmt.Errorf("scrape store init failed: %w", err)
	}
	a.scrapeStore = store
	a.logger.Info("scrape ledger initialized", zap.String("table", a.cfg.DB.Table))
	return nil
}

func (a *App) setupPublisher(ctx context.Context) error {
	if a.cfg.PubSub.TopicName == "" || a.cfg.PubSub.ProjectID == "" {
		a.logger.Info("no Pub/Sub topic configured, completion notifications disabled")
		return nil
	}
	client, err := pubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return fmt.Errorf("pubsub client init failed: %w", err)
	}
	a.pubsubClient = client
	a.publisher, err = gcppublisher.New(client, a.cfg.PubSub.TopicName)
	if err != nil {
		return fmt.Errorf("pubsub publisher init failed: %w", err)
	}
	a.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", a.cfg.PubSub.ProjectID),
		zap.String("topic", a.cfg.PubSub.TopicName),
	)
	return nil
}

func (a *App) closeOnError(err error) error {
	a.closeInfrastructure()
	return err
}

// Run serves HTTP until ctx is canceled or SIGINT/SIGTERM arrives, then
// drains in-flight requests and releases clients.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		a.closeInfrastructure()
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("http server started", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	a.Close()
	return err
}

// Close releases clients and flushes logs.
func (a *App) Close() {
	a.closeInfrastructure()
	a.logger.Info("shutdown complete")
	_ = a.logger.Sync()
}

func (a *App) closeInfrastructure() {
	if a.publisher != nil {
		a.publisher.Stop()
		a.publisher = nil
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
		a.pubsubClient = nil
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
		a.storage = nil
	}
	if a.scrapeStore != nil {
		a.scrapeStore.Close()
		a.scrapeStore = nil
	}
}
