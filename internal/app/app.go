// Package app boots the API server from resolved configuration.
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/finboard/finboard/internal/completion"
	"github.com/finboard/finboard/internal/config"
	"github.com/finboard/finboard/internal/httpapi"
	"github.com/finboard/finboard/internal/quota"
	"github.com/finboard/finboard/internal/store"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// shutdownGrace bounds how long in-flight requests may run after a stop
// signal.
const shutdownGrace = 5 * time.Second

// RunServer loads configuration, opens and migrates the document store, and
// serves the API until ctx is cancelled.
func RunServer(ctx context.Context, configPath string, portOverride int) error {
	cfg, errLoad := config.Load(config.ResolveConfigPath(configPath))
	if errLoad != nil {
		return errLoad
	}
	if portOverride > 0 {
		cfg.Port = portOverride
	}
	if cfg.JWT.Secret == "" {
		secret, errSecret := randomSecret()
		if errSecret != nil {
			return errSecret
		}
		cfg.JWT.Secret = secret
		log.Warn("no JWT secret configured, generated an ephemeral one; tokens will not survive restarts")
	}

	st, errOpen := store.Open(cfg.DataPath)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := st.Migrate(cfg.Admin.Username, cfg.Admin.Password); errMigrate != nil {
		return errMigrate
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, httpapi.Deps{
		Store:         st,
		JWT:           cfg.JWT,
		Tracker:       quota.NewTracker(st, cfg.AI.DailyLimit),
		Completions:   completion.NewClient(cfg.AI),
		AdminUsername: cfg.Admin.Username,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s (data=%s, provider=%s)", server.Addr, cfg.DataPath, cfg.AI.Provider)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
			return
		}
		errCh <- nil
	}()

	select {
	case errServe := <-errCh:
		return errServe
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		return errShutdown
	}
	return <-errCh
}

// randomSecret returns 32 random bytes hex-encoded.
func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, errRead := rand.Read(buf); errRead != nil {
		return "", fmt.Errorf("generate jwt secret: %w", errRead)
	}
	return hex.EncodeToString(buf), nil
}
