package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/peterbourgon/ff/v4"

	"github.com/marcelomendoncasoares/image2csv/internal/server"
)

type serveConfig struct {
	root        *rootConfig
	engine      engineConfig
	port        int
	dbPath      string
	storagePath string
	authUser    string
	authPass    string
}

func newServeCommand(root *rootConfig) *ff.Command {
	cfg := &serveConfig{root: root}

	fs := ff.NewFlagSet("serve").SetParent(root.flags)
	fs.IntVar(&cfg.port, 0, "port", 8080, "HTTP server port")
	fs.StringVar(&cfg.dbPath, 0, "db", "image2csv.db", "conversion history database file (empty disables it)")
	fs.StringVar(&cfg.storagePath, 0, "storage", filepath.Join(os.TempDir(), "image2csv-uploads"), "directory for uploads while they are converted")
	fs.StringVar(&cfg.authUser, 0, "auth-user", "", "Basic auth username (optional)")
	fs.StringVar(&cfg.authPass, 0, "auth-pass", "", "Basic auth password (optional)")
	cfg.engine.register(fs)

	return &ff.Command{
		Name:      "serve",
		Usage:     "image2csv serve [FLAGS]",
		ShortHelp: "convert screenshots uploaded over HTTP",
		Flags:     fs,
		Exec:      cfg.exec,
	}
}

func (c *serveConfig) exec(ctx context.Context, args []string) error {
	if err := c.root.setupLogging(); err != nil {
		return err
	}

	var db server.DB
	if c.dbPath != "" {
		slog.Info("Initializing database...", "path", c.dbPath)
		boltDB, err := server.NewBoltDB(c.dbPath)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		defer boltDB.Close()
		db = boltDB
	}

	scanner, err := c.engine.newScanner()
	if err != nil {
		return err
	}
	defer scanner.Close()

	slog.Info("Initializing storage...", "path", c.storagePath)
	store, err := server.NewLocalStorage(c.storagePath)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	service := server.NewService(db, scanner, store, c.engine.extractConfig())
	srv := server.NewServer(service, server.BasicAuth{
		Username: c.authUser,
		Password: c.authPass,
	})
	if c.authUser != "" || c.authPass != "" {
		slog.Info("Basic auth enabled", "user", c.authUser)
	}

	c.root.printer.success("Listening on http://localhost:%d", c.port)
	return srv.Start(ctx, fmt.Sprintf(":%d", c.port))
}
