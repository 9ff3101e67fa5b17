package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-matter-elements/components/elements"
	"github.com/goliatone/go-matter-elements/pkg/config"
	pkgelements "github.com/goliatone/go-matter-elements/pkg/elements"
	"github.com/goliatone/go-matter-elements/pkg/logger"
	"github.com/goliatone/go-matter-elements/pkg/matter"
)

type cli struct {
	Config    string       `type:"path" short:"c" help:"Path to the YAML configuration file."`
	Serve     serveCmd     `cmd:"" help:"Serve the page hosting the Matter element."`
	Token     tokenCmd     `cmd:"" help:"Fetch a user token with the configured API key and print its claims."`
	Portfolio portfolioCmd `cmd:"" help:"Portfolio utilities."`
}

type serveCmd struct {
	Addr            string        `help:"Listen address (overrides server.addr)."`
	ShutdownTimeout time.Duration `default:"10s" help:"Grace period for in-flight requests on shutdown."`
}

type tokenCmd struct {
	Show bool `help:"Print the raw token as well as its claims."`
}

type portfolioCmd struct {
	Validate portfolioValidateCmd `cmd:"" help:"Validate a portfolio file."`
}

type portfolioValidateCmd struct {
	File string `arg:"" type:"existingfile" help:"Portfolio YAML or JSON file."`
}

func main() {
	root := &cli{}
	ctx := kong.Parse(root,
		kong.Name("elementsctl"),
		kong.Description("Host and inspect a Matter Elements integration."),
		kong.UsageOnError(),
		kong.Bind(root),
	)
	err := ctx.Run(context.Background())
	ctx.FatalIfErrorf(err)
}

func loadConfig(root *cli) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	return cfg, log, nil
}

func (cmd *serveCmd) Run(root *cli) error {
	cfg, log, err := loadConfig(root)
	if err != nil {
		return err
	}
	if cmd.Addr != "" {
		cfg.Server.Addr = cmd.Addr
	}

	app, err := pkgelements.Build(cfg, pkgelements.BuildOptions{Logger: &log})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.Handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if err := app.Service.Start(ctx); err != nil {
		log.Warn().Err(err).Msg("element started with errors")
	}

	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("elementsctl: serve: %w", err)
		}
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cmd.ShutdownTimeout)
	defer cancel()
	if err := app.Service.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("stop element")
	}
	return server.Shutdown(shutdownCtx)
}

func (cmd *tokenCmd) Run(root *cli) error {
	cfg, _, err := loadConfig(root)
	if err != nil {
		return err
	}
	client, err := matter.NewHTTPClient(matter.HTTPConfig{
		BaseURL:    cfg.Matter.BaseURL,
		APIKey:     cfg.Matter.APIKey,
		HTTPClient: &http.Client{Timeout: cfg.Matter.Timeout},
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Matter.Timeout)
	defer cancel()
	token, err := client.UserToken(ctx)
	if err != nil {
		return fmt.Errorf("elementsctl: %w", err)
	}
	return cmd.print(os.Stdout, token)
}

func (cmd *tokenCmd) print(out io.Writer, token string) error {
	if cmd.Show {
		fmt.Fprintf(out, "token:      %s\n", token)
	}
	claims, err := matter.InspectToken(token)
	if err != nil {
		fmt.Fprintln(out, "token is opaque; no claims to show")
		return nil
	}
	if claims.Subject != "" {
		fmt.Fprintf(out, "subject:    %s\n", claims.Subject)
	}
	if !claims.IssuedAt.IsZero() {
		fmt.Fprintf(out, "issued at:  %s\n", claims.IssuedAt.UTC().Format(time.RFC3339))
	}
	if !claims.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "expires at: %s (in %s)\n", claims.ExpiresAt.UTC().Format(time.RFC3339), time.Until(claims.ExpiresAt).Round(time.Second))
	}
	return nil
}

func (cmd *portfolioValidateCmd) Run() error {
	return validatePortfolioFile(os.Stdout, cmd.File)
}

func validatePortfolioFile(out io.Writer, path string) error {
	q, err := elements.LoadPortfolioFile(path)
	if err != nil {
		return err
	}
	if err := elements.ValidatePortfolio(q); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %d entries, hash %s\n", path, len(q.IDs), q.Hash())
	for _, entry := range q.IDs {
		switch {
		case entry.Allocation != nil:
			fmt.Fprintf(out, "  %-5s %-40s %s %s\n", entry.Type, entry.ID, entry.Allocation.Amount.StringFixed(2), entry.Allocation.Currency)
		case entry.Weight != nil:
			fmt.Fprintf(out, "  %-5s %-40s %g\n", entry.Type, entry.ID, *entry.Weight)
		}
	}
	return nil
}
