// Command server runs the Petty backend API.
//
// Startup order: environment, logging, tracing, backend project clients
// (document store, identity, blob storage), router, then the HTTP server
// with graceful shutdown. With MEMORY_STORE=1 the process runs fully
// in-process for local development: an in-memory document store, a
// pass-through identity verifier, and a no-op uploader.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/pettyapp/go-petty-backend/internal/blob"
	"github.com/pettyapp/go-petty-backend/internal/config"
	httpapi "github.com/pettyapp/go-petty-backend/internal/http"
	"github.com/pettyapp/go-petty-backend/internal/identity"
	"github.com/pettyapp/go-petty-backend/internal/observability"
	"github.com/pettyapp/go-petty-backend/internal/store"
	"github.com/pettyapp/go-petty-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	st, verifier, uploader, cleanup := buildBackends(ctx, cfg)
	defer cleanup()

	r := gin.New()
	httpapi.RegisterRoutes(r, st, verifier, uploader, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// buildBackends wires the document store, identity verifier, and blob
// uploader, either against the hosted project or fully in-process.
func buildBackends(ctx context.Context, cfg config.Config) (store.Store, identity.Verifier, blob.Uploader, func()) {
	if cfg.MemoryStore {
		log.Warn().Msg("running with in-memory store; data is not persisted")
		return store.NewMemory(), devVerifier{}, devUploader{}, func() {}
	}

	var opts []option.ClientOption
	if cfg.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.Firebase.ProjectID,
		StorageBucket: cfg.Firebase.StorageBucket,
	}, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("firebase app init failed")
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("firestore client init failed")
	}

	verifier, err := identity.NewFirebaseVerifier(ctx, app)
	if err != nil {
		log.Fatal().Err(err).Msg("identity verifier init failed")
	}

	uploader, err := blob.NewGCSUploader(ctx, app, cfg.Firebase.StorageBucket)
	if err != nil {
		log.Fatal().Err(err).Msg("blob uploader init failed")
	}

	cleanup := func() {
		if err := fsClient.Close(); err != nil {
			log.Warn().Err(err).Msg("firestore close")
		}
	}
	return store.NewFirestore(fsClient), verifier, uploader, cleanup
}

// devVerifier accepts any non-empty token of the form "uid:email". It exists
// only for the in-memory development mode.
type devVerifier struct{}

func (devVerifier) Verify(_ context.Context, idToken string) (identity.Identity, error) {
	uid, email, ok := strings.Cut(idToken, ":")
	if !ok || uid == "" || email == "" {
		return identity.Identity{}, identity.ErrUnauthenticated
	}
	return identity.Identity{UID: uid, Email: email}, nil
}

// devUploader fabricates a URL without storing anything.
type devUploader struct{}

func (devUploader) Upload(_ context.Context, _ []byte, path, _ string) (string, error) {
	return "memory://" + path, nil
}
