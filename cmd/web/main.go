package main

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/donseba/go-htmx"
	"github.com/joho/godotenv"
	"github.com/myrjola/gumshoe/data"
	"github.com/myrjola/gumshoe/internal/ai"
	"github.com/myrjola/gumshoe/internal/broker"
	"github.com/myrjola/gumshoe/internal/casefile"
	"github.com/myrjola/gumshoe/internal/envstruct"
	"github.com/myrjola/gumshoe/internal/errors"
	"github.com/myrjola/gumshoe/internal/logging"
	"github.com/myrjola/gumshoe/internal/pprofserver"
	"github.com/myrjola/gumshoe/internal/repositories"
	"github.com/myrjola/gumshoe/internal/sqlite"
	"github.com/myrjola/gumshoe/internal/telemetry"
)

const version = "0.3.0"

type application struct {
	logger         *slog.Logger
	catalog        *casefile.Catalog
	assets         fs.FS
	sessionManager *scs.SessionManager
	settings       *repositories.SettingsRepository
	caseRuns       *repositories.CaseRunRepository
	htmx           *htmx.HTMX
	templates      *templateCache
	players        *playerRegistry
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"GUMSHOE_ADDR" envDefault:"localhost:4000"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"GUMSHOE_SQLITE_URL" envDefault:"./gumshoe.sqlite3"`
	// DataDir is the directory with cases-manifest.json. The embedded cases are used when empty.
	DataDir string `env:"GUMSHOE_DATA_DIR" envDefault:""`
	// PprofAddr enables the pprof server, for example on "[::1]:6060".
	PprofAddr string `env:"GUMSHOE_PPROF_ADDR" envDefault:""`
	// OpenAIBaseURL overrides the OpenAI API address for speech synthesis.
	OpenAIBaseURL string `env:"GUMSHOE_OPENAI_BASE_URL" envDefault:""`
	// TraceEndpoint enables OTLP trace export.
	TraceEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	// SecureCookies marks the session and CSRF cookies Secure. Disable only for plain HTTP development.
	SecureCookies bool `env:"GUMSHOE_SECURE_COOKIES" envDefault:"true"`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		err error
		cfg config
	)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	var shutdownTracing func(context.Context) error
	if shutdownTracing, err = telemetry.Setup(ctx, cfg.TraceEndpoint, version); err != nil {
		return errors.Wrap(err, "setup tracing")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd // 5s
		defer shutdownCancel()
		if shutdownErr := shutdownTracing(shutdownCtx); shutdownErr != nil { //nolint:contextcheck // ctx is done.
			logger.LogAttrs(ctx, slog.LevelWarn, "failed to flush traces", errors.SlogError(shutdownErr))
		}
	}()

	if cfg.PprofAddr != "" {
		pprofserver.Launch(ctx, cfg.PprofAddr, logger)
	}

	var dataFS fs.FS = data.Files
	if cfg.DataDir != "" {
		dataFS = os.DirFS(cfg.DataDir)
	}
	var catalog *casefile.Catalog
	if catalog, err = casefile.Load(ctx, dataFS, casefile.DefaultManifestPath, logger); err != nil {
		return errors.Wrap(err, "load cases", slog.String("data_dir", cfg.DataDir))
	}

	var db *sqlite.Database
	if db, err = sqlite.NewDatabase(ctx, cfg.SqliteURL, logger); err != nil {
		return errors.Wrap(err, "open database", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close database", errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(db.ReadWrite, 24*time.Hour) //nolint:mnd // daily
	sessionManager.Lifetime = 12 * time.Hour                                              //nolint:mnd // half a day
	sessionManager.Cookie.Secure = cfg.SecureCookies
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode

	var templates *templateCache
	if templates, err = newTemplateCache(); err != nil {
		return errors.Wrap(err, "parse templates")
	}

	audio := broker.NewChannelBroker[string, []byte]()
	go audio.Start()
	defer audio.Stop()

	app := application{
		logger:         logger,
		catalog:        catalog,
		assets:         dataFS,
		sessionManager: sessionManager,
		settings:       repositories.NewSettingsRepository(db, logger),
		caseRuns:       repositories.NewCaseRunRepository(db, logger),
		htmx:           htmx.New(),
		templates:      templates,
		players:        newPlayerRegistry(ctx, ai.NewClient(cfg.OpenAIBaseURL), audio, logger),
	}

	go app.players.evictIdle(ctx, sessionManager.Lifetime)

	if err = app.configureAndStartServer(ctx, cfg); err != nil {
		return errors.Wrap(err, "start server")
	}

	return nil
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   true,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.LogAttrs(ctx, slog.LevelError, "failed to load .env", errors.SlogError(err))
		os.Exit(1)
	}

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
