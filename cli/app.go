// ABOUTME: Dependency wiring shared by the CLI subcommands
// ABOUTME: Builds config, logging, the SQLite store, the Zoho client, and the sync service
package cli

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/harperreed/zohosync/config"
	"github.com/harperreed/zohosync/db"
	"github.com/harperreed/zohosync/logging"
	zsync "github.com/harperreed/zohosync/sync"
	"github.com/harperreed/zohosync/zoho"
)

type app struct {
	cfg     *config.Config
	db      *sql.DB
	state   zsync.SQLState
	records *db.RecordStore
	service *zsync.Service
	log     logrus.FieldLogger
}

func newApp(g *globalOptions) (*app, error) {
	cfg, err := config.Load(g.envFile)
	if err != nil {
		return nil, err
	}
	if g.dbPath != "" {
		cfg.DBPath = g.dbPath
	}
	level := cfg.LogLevel
	if g.logLevel != "" {
		level = g.logLevel
	}
	logging.Init(level, cfg.LogFormat)

	database, err := db.OpenDatabase(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logging.Log.WithField("path", cfg.DBPath).Debug("Database opened")

	endpoints := zoho.DefaultEndpoints(cfg.Domain)
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	tokens := zoho.NewTokenManager(zoho.TokenOptions{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RefreshToken: cfg.RefreshToken,
		TokenURL:     endpoints.TokenURL,
		HTTPClient:   httpClient,
		Cache:        cfg.TokenCache,
		Margin:       cfg.TokenMargin,
	})
	client := zoho.NewClient(tokens, zoho.ClientOptions{
		Endpoints:  endpoints,
		HTTPClient: httpClient,
		Timeout:    cfg.HTTPTimeout,
		RateLimit:  cfg.RateLimit,
		RateBurst:  cfg.RateBurst,
	})

	state := zsync.SQLState{DB: database}
	records := db.NewRecordStore(database)
	service := zsync.NewService(zsync.Options{
		Fetcher:     client,
		Records:     records,
		State:       state,
		Environment: cfg.Environment,
		BooksOrgID:  cfg.BooksOrgID,
		BatchSize:   cfg.BatchSize,
		PageSize:    cfg.PageSize,
	})

	if !cfg.HasCredentials() {
		logging.Log.Warn("Zoho OAuth credentials are not configured; sync operations will fail")
	}

	return &app{
		cfg:     cfg,
		db:      database,
		state:   state,
		records: records,
		service: service,
		log:     logging.Log,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
