package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mid "github.com/OFFIS-RIT/logicflow/internal/server/middleware"
	"github.com/OFFIS-RIT/logicflow/internal/session"
	"github.com/OFFIS-RIT/logicflow/internal/status"
	"github.com/OFFIS-RIT/logicflow/internal/storage"
	"github.com/OFFIS-RIT/logicflow/internal/util"
	"github.com/OFFIS-RIT/logicflow/pkg/layout"
	"github.com/OFFIS-RIT/logicflow/pkg/logger"
	"github.com/OFFIS-RIT/logicflow/pkg/pipeline"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/semaphore"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New builds the echo instance around app. Init uses it for the real
// server and tests use it with httptest.
func New(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("16M"))

	RegisterRoutes(e)
	return e
}

// NewAppFromEnv configures the app from the environment.
func NewAppFromEnv(ctx context.Context) *mid.App {
	force := layout.DefaultForceConfig()
	force.Steps = int(util.GetEnvNumeric("FORCE_STEPS", force.Steps))

	opts := pipeline.Options{Force: force}
	app := &mid.App{
		Sessions: session.NewRegistry(opts),
		Sources:  map[string]status.Fetcher{},
		Poll: status.Poller{
			Interval:   util.GetEnvDuration("POLL_INTERVAL", 2*time.Second),
			MaxRetries: int(util.GetEnvNumeric("POLL_MAX_RETRIES", 3)),
			RetryDelay: 500 * time.Millisecond,
		},
		Pipeline:    opts,
		Layouts:     newLayoutSlots(int64(util.GetEnvNumeric("LAYOUT_CONCURRENCY", 4))),
		BaseContext: ctx,
	}

	if base := util.GetEnv("ANALYSIS_BASE_URL"); base != "" {
		app.Sources["http"] = status.NewSharedFetcher(status.NewHTTPFetcher(base))
		app.DefaultSource = "http"
	}

	if bucket := util.GetEnv("AWS_BUCKET"); bucket != "" {
		client, err := storage.NewS3Client(ctx)
		if err != nil {
			logger.Fatal("Failed to create S3 client", "err", err)
		}
		app.S3 = client
		app.Bucket = bucket
		app.Prefix = util.GetEnvString("ANALYSIS_PREFIX", "analyses")
		app.Sources["s3"] = status.NewSharedFetcher(&status.S3Fetcher{Client: client, Bucket: bucket, Prefix: app.Prefix})
		if app.DefaultSource == "" {
			app.DefaultSource = "s3"
		}
	}

	if len(app.Sources) == 0 {
		logger.Warn("No analysis source configured, sessions are disabled", "hint", "set ANALYSIS_BASE_URL or AWS_BUCKET")
	}
	return app
}

// newLayoutSlots never returns a semaphore without capacity.
func newLayoutSlots(n int64) *semaphore.Weighted {
	return semaphore.NewWeighted(max(n, 1))
}

func Init() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := New(NewAppFromEnv(ctx))

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
