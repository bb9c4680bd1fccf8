package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"mailtothings/internal/addon"
	"mailtothings/internal/config"
	"mailtothings/internal/credential"
	"mailtothings/internal/gmail"
	"mailtothings/internal/logging"
	"mailtothings/internal/server"
	"mailtothings/internal/store"
	"mailtothings/internal/tui"
)

const usage = `Usage: mailtothings [command] [flags]

Commands:
  serve     serve the add-on endpoints over HTTP (default)
  tui       run the add-on against your inbox in the terminal
  login     authorize Gmail for the terminal host and cache the token
  manifest  print the add-on deployment descriptor

Flags:
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	fs := config.Flags()
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}

	switch cmd {
	case "serve":
		return serve(cfg)
	case "tui":
		return runTUI(cfg)
	case "login":
		return login(cfg)
	case "manifest":
		return printManifest(cfg)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func logOptions(cfg *config.Config) logging.Options {
	return logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}
}

func serve(cfg *config.Config) error {
	logger, err := logging.New(os.Stderr, logOptions(cfg))
	if err != nil {
		return err
	}

	db, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	var verifier server.Verifier
	switch cfg.Auth.Mode {
	case "insecure":
		logger.Warn("request authentication is disabled; do not expose this server")
		verifier = server.InsecureVerifier{DevUser: "dev"}
	default:
		verifier = server.NewGoogleVerifier(cfg.Auth.Audience, cfg.Auth.UserAudience)
	}

	if cfg.Server.BaseURL == "" {
		logger.Warn("server.base_url is empty; card buttons will carry bare handler names")
	}
	app := addon.New(db, cfg.Server.BaseURL, logger.WithPrefix("addon"))

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(app.Registry(), verifier, server.OpenEventMailbox, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
}

func runTUI(cfg *config.Config) error {
	logger, logFile, err := logging.NewFile(filepath.Join(cfg.ConfigDir, "mailtothings.log"), logOptions(cfg))
	if err != nil {
		return err
	}
	defer logFile.Close()

	db, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	cache, err := tokenCache(cfg)
	if err != nil {
		return err
	}

	app := addon.New(db, "", logger.WithPrefix("addon"))
	appModel := tui.NewAppModel(app.Registry(), cache, cfg.ConfigDir, logger)
	p := tea.NewProgram(appModel, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("run terminal UI: %w", err)
	}
	if m, ok := finalModel.(*tui.AppModel); ok && m.Err != nil {
		return m.Err
	}
	return nil
}

func login(cfg *config.Config) error {
	logger, err := logging.New(os.Stderr, logOptions(cfg))
	if err != nil {
		return err
	}
	cache, err := tokenCache(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	svc, err := gmail.NewService(ctx, cfg.ConfigDir, cache)
	if err != nil {
		return err
	}
	addr, err := gmail.Profile(ctx, svc)
	if err != nil {
		return err
	}
	logger.Info("authorized", "user", addr)
	return nil
}

func printManifest(cfg *config.Config) error {
	if cfg.Server.BaseURL == "" {
		return errors.New("server.base_url must be set to render the deployment descriptor")
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(server.NewDeployment(cfg.Server.BaseURL, addon.LogoURL))
}

func tokenCache(cfg *config.Config) (*credential.TokenCache, error) {
	ring, err := credential.Open(cfg.ConfigDir)
	if err != nil {
		return nil, err
	}
	return credential.NewTokenCache(ring), nil
}
