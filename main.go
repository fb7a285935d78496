package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"usuarios-service/config"
	"usuarios-service/db"
	"usuarios-service/handlers"
	"usuarios-service/logger"
	"usuarios-service/middleware"
	"usuarios-service/routes"
	"usuarios-service/secretmanager"
	"usuarios-service/services"
	"usuarios-service/store"
	"usuarios-service/telemetry"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const serviceName = "usuarios-service"

var (
	loadEnv          = godotenv.Load
	loadConfig       = config.Load
	newLogger        = logger.New
	initTelemetry    = telemetry.Init
	connectMongo     = db.ConnectMongo
	connectPostgres  = db.ConnectPostgres
	ensureUsersTable = store.EnsureUsersTable
	setupRoutes      = routes.SetupRoutes
	getSecret        = secretmanager.GetSecret
	getSecretValues  = secretmanager.GetSecretValues
	setEnv           = os.Setenv
	notifyContext    = signal.NotifyContext
	listenAndServe   = func(server *http.Server) error { return server.ListenAndServe() }
	logFatal         = log.Fatal
)

type postgresSecret struct {
	Username             string `json:"username"`
	Password             string `json:"password"`
	Engine               string `json:"engine"`
	Host                 string `json:"host"`
	Port                 int    `json:"port"`
	DBInstanceIdentifier string `json:"dbInstanceIdentifier"`
}

func validatePostgresSecret(secret postgresSecret) error {
	fields := []struct{ name, value string }{
		{"username", secret.Username},
		{"password", secret.Password},
		{"engine", secret.Engine},
		{"host", secret.Host},
		{"dbInstanceIdentifier", secret.DBInstanceIdentifier},
	}
	var missing []string
	for _, field := range fields {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("postgres secret is missing %s", strings.Join(missing, ", "))
	}
	if secret.Port <= 0 {
		return fmt.Errorf("postgres secret has invalid port %d", secret.Port)
	}
	return nil
}

func loadPostgresSecret() (postgresSecret, error) {
	raw, err := getSecret("prod/postgres")
	if err != nil {
		return postgresSecret{}, fmt.Errorf("error retrieving Postgres secret: %w", err)
	}
	var secret postgresSecret
	if err := json.Unmarshal([]byte(raw), &secret); err != nil {
		return postgresSecret{}, fmt.Errorf("error parsing Postgres secret JSON: %w", err)
	}
	if err := validatePostgresSecret(secret); err != nil {
		return postgresSecret{}, err
	}
	return secret, nil
}

func setEnvFromMap(values map[string]string) error {
	for key, value := range values {
		if err := setEnv(key, value); err != nil {
			return fmt.Errorf("error setting %s: %w", key, err)
		}
	}
	return nil
}

// loadProdSecrets copies the store credentials for the selected engine from
// Secrets Manager into the environment before config.Load runs.
func loadProdSecrets() error {
	engine := strings.ToLower(os.Getenv("STORE_ENGINE"))
	if engine == config.StorePostgres {
		secret, err := loadPostgresSecret()
		if err != nil {
			return err
		}
		return setEnvFromMap(map[string]string{
			"DB_USERNAME":            secret.Username,
			"DB_PASSWORD":            secret.Password,
			"DB_ENGINE":              secret.Engine,
			"DB_HOST":                secret.Host,
			"DB_PORT":                strconv.Itoa(secret.Port),
			"DB_INSTANCE_IDENTIFIER": secret.DBInstanceIdentifier,
		})
	}

	mongoSecrets, err := getSecretValues("prod/mongo")
	if err != nil {
		return fmt.Errorf("error retrieving Mongo secret: %w", err)
	}
	if mongoSecrets["MONGO_URI"] == "" {
		return errors.New("mongo secret is missing MONGO_URI")
	}
	return setEnvFromMap(mongoSecrets)
}

func newStore(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (store.UserStore, error) {
	connectCtx, cancel := ctx, context.CancelFunc(func() {})
	if cfg.RequestTimeout > 0 {
		connectCtx, cancel = context.WithTimeout(ctx, cfg.RequestTimeout)
	}
	defer cancel()

	switch cfg.StoreEngine {
	case config.StorePostgres:
		conn, err := connectPostgres(connectCtx, cfg.DB, log)
		if err != nil {
			return nil, err
		}
		if err := ensureUsersTable(connectCtx, conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return store.NewPostgresStore(conn), nil
	case config.StoreMongo:
		client, err := connectMongo(connectCtx, cfg.Mongo, log)
		if err != nil {
			return nil, err
		}
		return store.NewMongoStore(client, cfg.Mongo.Database, cfg.Mongo.Collection), nil
	default:
		return nil, fmt.Errorf("unsupported store engine: %s", cfg.StoreEngine)
	}
}

func newHandler(cfg config.Config, log *zap.SugaredLogger, userStore store.UserStore) http.Handler {
	service := services.NewUserService(userStore, log)
	userHandler := handlers.NewUserHandler(service, log, cfg.RequestTimeout)
	router := setupRoutes(log, userHandler)

	var handler http.Handler = router
	handler = middleware.RequestLogger(log)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.CORS(cfg.CORS)(handler)
	return otelhttp.NewHandler(handler, serviceName)
}

func main() {
	if err := run(); err != nil {
		logFatal(err)
	}
}

func run() error {
	envErr := loadEnv()

	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}
	if appEnv == "prod" {
		if err := loadProdSecrets(); err != nil {
			return err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	log, err := newLogger(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		return fmt.Errorf("logger error: %w", err)
	}
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Infow("no .env file found; using system environment variables")
	}

	ctx, stop := notifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := initTelemetry(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("telemetry error: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Warnw("telemetry shutdown failed", "error", err)
		}
	}()

	userStore, err := newStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("store connection error: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := userStore.Close(closeCtx); err != nil {
			log.Warnw("store close failed", "error", err)
		}
	}()

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           newHandler(cfg, log, userStore),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Infow("starting server",
		"port", port,
		"env", cfg.AppEnv,
		"store", cfg.StoreEngine,
		"cors", strings.Join(cfg.CORS.AllowedOrigins, ","),
	)
	return serve(ctx, server, cfg.ShutdownTimeout, log)
}

// serve runs the server until it fails or ctx is cancelled, then drains
// in-flight requests for up to timeout.
func serve(ctx context.Context, server *http.Server, timeout time.Duration, log *zap.SugaredLogger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- listenAndServe(server)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Infow("shutting down", "timeout", timeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
