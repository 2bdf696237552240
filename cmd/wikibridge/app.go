package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/celements/wikibridge/xwiki/component"
	"github.com/celements/wikibridge/xwiki/config"
	"github.com/celements/wikibridge/xwiki/observation"
	"github.com/celements/wikibridge/xwiki/sqlstore"
	"github.com/celements/wikibridge/xwiki/store"
	"github.com/celements/wikibridge/xwiki/wiki"
)

// app holds the services of one command run. They are registered as
// components; listener components are picked up by the observation manager.
type app struct {
	components  *component.Manager
	observation *observation.Manager
	logger      *slog.Logger
}

func newApp(v *viper.Viper, logger *slog.Logger) (*app, error) {
	backend, err := openBackend(v.GetString("backend"), v.GetString("db"), logger)
	if err != nil {
		return nil, err
	}

	obs := observation.NewManager(observation.WithLogger(logger))
	cm := component.NewManager(component.WithLogger(logger))
	cm.AddNotifier(observation.NewComponentListenerBridge(obs, cm))

	model := config.NewModelContext(config.NewViperSource(v))
	st := store.New(backend, store.WithObservation(obs), store.WithLogger(logger))
	wikis := wiki.NewService(st, wiki.WithModelContext(model), wiki.WithLogger(logger))

	a := &app{components: cm, observation: obs, logger: logger}
	err = firstError(
		component.RegisterValue(cm, "", model),
		component.RegisterValue(cm, "", st),
		component.RegisterValue(cm, "", wikis),
		component.RegisterValue(cm, wiki.ListenerName, wikis.Listener()),
	)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	obs.Notify(observation.ApplicationReadyEvent{}, a, nil)
	return a, nil
}

func (a *app) store() (*store.Store, error) {
	return component.Lookup[*store.Store](a.components, "")
}

func (a *app) wikis() (*wiki.Service, error) {
	return component.Lookup[*wiki.Service](a.components, "")
}

func (a *app) Close() error {
	st, err := a.store()
	if err != nil {
		return err
	}
	return st.Close()
}

// openBackend opens the store at path. Without an explicit kind, .db,
// .sqlite and .sqlite3 files are SQLite databases and anything else is a
// JSON file.
func openBackend(kind, path string, logger *slog.Logger) (store.Backend, error) {
	if path == "" {
		return nil, NewConfigError("open store", "no store path",
			"Pass --db or set WIKIBRIDGE_DB")
	}
	if kind == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".db", ".sqlite", ".sqlite3":
			kind = "sqlite"
		default:
			kind = "json"
		}
	}
	switch kind {
	case "json":
		b, err := store.OpenJSON(path, store.WithBackendLogger(logger))
		if err != nil {
			return nil, NewStoreError("open store", err, "Check that "+path+" is a wikibridge JSON store")
		}
		return b, nil
	case "sqlite":
		b, err := sqlstore.Open(path, sqlstore.WithLogger(logger))
		if err != nil {
			return nil, NewStoreError("open store", err, "Check that "+path+" is a SQLite database")
		}
		return b, nil
	}
	return nil, NewConfigError("open store", fmt.Sprintf("unknown backend %q", kind),
		"Use --backend json or --backend sqlite")
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
