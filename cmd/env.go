package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/nutrify/internal/api"
	"github.com/abhisek/nutrify/internal/auth"
	"github.com/abhisek/nutrify/internal/config"
	"github.com/abhisek/nutrify/internal/logging"
	"github.com/abhisek/nutrify/internal/notify"
	"github.com/abhisek/nutrify/internal/store"
	"github.com/abhisek/nutrify/internal/wizard"
)

// flagKeys maps command-line flags onto config keys. Flags a command does
// not define are skipped.
var flagKeys = map[string]string{
	"api-url":   "api.base_url",
	"log-level": "log.level",
	"db":        "db.path",
	"mode":      "assessment.mode",
	"type":      "assessment.type",
}

// env is everything a command needs to talk to the platform.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
	creds  *auth.Provider
	client *api.Client
	toasts *notify.Queue
}

// openEnv loads configuration, the logger, the local store and the API
// client. For the TUI the logger writes to a file and API failures are
// queued as toasts; otherwise they are printed to stderr.
func openEnv(cmd *cobra.Command, tui bool) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logFile := cfg.Log.File
	if tui && logFile == "" {
		logFile = logging.DefaultFile()
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, logFile)
	if err != nil {
		return nil, err
	}

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	e := &env{
		cfg:    cfg,
		logger: logger,
		store:  st,
		creds:  auth.NewProvider(st.CredentialRepo()),
	}

	var notifier notify.Notifier
	if tui {
		e.toasts = notify.NewQueue(8)
		notifier = notify.Multi(notify.Log(logger), e.toasts)
	} else {
		notifier = notify.Writer(os.Stderr)
	}

	e.client = api.New(cfg.API.BaseURL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		api.WithCredentials(e.creds),
		api.WithNotifier(notifier),
		api.WithLogger(logger.Named("api")),
	)

	logger.Debug("environment ready",
		zap.String("api", cfg.API.BaseURL),
		zap.String("mode", string(cfg.Mode())),
		zap.String("db", dbPath),
	)
	return e, nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	overrides := make(map[string]any)
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f != nil && f.Changed {
			overrides[key] = f.Value.String()
		}
	}
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.Load(config.Options{File: cfgFile, Overrides: overrides})
}

// resolveDBPath uses db.path when set, then NUTRIFY_DB, then the default
// XDG path.
func resolveDBPath(cfg *config.Config) (string, error) {
	if p := cfg.DB.Path; p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

func (e *env) Close() {
	_ = e.logger.Sync()
	if err := e.store.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "close store:", err)
	}
}

// newController builds a controller for the configured wizard mode.
func (e *env) newController() *wizard.Controller {
	var src wizard.Source
	switch e.cfg.Mode() {
	case wizard.ModeServer:
		src = wizard.NewDriven(e.client, e.store.AnswerRepo(), e.logger.Named("wizard"))
	default:
		src = wizard.NewStatic(e.client, nil)
	}
	return wizard.New(src,
		wizard.WithCache(e.store.SessionRepo(), e.store.ResultRepo()),
		wizard.WithLogger(e.logger.Named("wizard")),
	)
}

// status is the header line: wizard mode and the signed-in user.
func (e *env) status(ctx context.Context) string {
	parts := []string{string(e.cfg.Mode())}
	claims, err := e.creds.Claims(ctx)
	switch {
	case errors.Is(err, auth.ErrNotLoggedIn):
		parts = append(parts, "not logged in")
	case err == nil && !claims.Expiry().IsZero() && time.Now().After(claims.Expiry()):
		parts = append(parts, "session expired")
	case err == nil && claims.Email != "":
		parts = append(parts, claims.Email)
	case err == nil && claims.User() != "":
		parts = append(parts, claims.User())
	}
	return strings.Join(parts, " · ") + "  "
}
