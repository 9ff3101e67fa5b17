package elements

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"

	core "github.com/goliatone/go-matter-elements/components/elements"
	"github.com/goliatone/go-matter-elements/components/elements/commands"
	"github.com/goliatone/go-matter-elements/components/elements/httpapi"
	"github.com/goliatone/go-matter-elements/components/elements/queries"
	"github.com/goliatone/go-matter-elements/pkg/config"
	"github.com/goliatone/go-matter-elements/pkg/matter"
)

// App bundles a configured service with its HTTP surface.
type App struct {
	Service   *Service
	Broadcast *core.BroadcastHub
	Handler   http.Handler
}

// BuildOptions overrides collaborators that are otherwise derived from config.
type BuildOptions struct {
	Logger      *zerolog.Logger
	TokenSource core.TokenSource
	Telemetry   core.Telemetry
	HTTPClient  *http.Client
}

// Build wires the service, page controller and router from cfg.
func Build(cfg *config.Config, opts BuildOptions) (*App, error) {
	if cfg == nil {
		return nil, errors.New("elements: config is required")
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	source := opts.TokenSource
	if source == nil {
		httpClient := opts.HTTPClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: cfg.Matter.Timeout}
		}
		client, err := matter.NewHTTPClient(matter.HTTPConfig{
			BaseURL:    cfg.Matter.BaseURL,
			APIKey:     cfg.Matter.APIKey,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, err
		}
		source = client
	}

	var supplier core.PortfolioSupplier
	if cfg.Portfolio.File != "" {
		supplier = core.FilePortfolioSupplier{Path: cfg.Portfolio.File}
	}

	hub := core.NewBroadcastHub()
	service, err := core.NewService(core.Options{
		TokenSource:   source,
		Portfolio:     supplier,
		Notifier:      core.MultiNotifier{core.NewLogNotifier(log), hub},
		LifecycleHook: hub,
		Telemetry:     opts.Telemetry,
		Logger:        &log,
		Impact:        cfg.Impact(),
		WidgetOptions: widgetOptions(cfg),
		Container:     core.NewContainer(cfg.Server.ContainerName),
		TokenExpiry:   matter.TokenExpiry,
		Refresh: core.RefreshOptions{
			Enabled:  cfg.Refresh.Enabled,
			Interval: cfg.Refresh.Interval,
			Leeway:   cfg.Refresh.Leeway,
		},
	})
	if err != nil {
		return nil, err
	}

	renderer, err := core.NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("elements: build renderer: %w", err)
	}

	var preview *core.PortfolioPreview
	if cfg.Preview.Enabled {
		preview = core.NewPortfolioPreview(core.PreviewOptions{
			Cache: core.NewChartCache(cfg.Preview.CacheTTL),
			Theme: cfg.Preview.Theme,
		})
	}

	stylesheet, err := loadStylesheet(cfg.Server.StylesheetPath)
	if err != nil {
		return nil, err
	}

	locale := ""
	if cfg.Widget.Options != nil {
		locale = cfg.Widget.Options.Locale
	}

	handlers := &httpapi.Handlers{
		UpdatePortfolio: commands.NewUpdatePortfolioCommand(service, opts.Telemetry),
		AttachContainer: commands.NewAttachContainerCommand(service, opts.Telemetry),
		DetachContainer: commands.NewDetachContainerCommand(service, opts.Telemetry),
		Status:          queries.NewStatusQuery(service),
		Portfolio:       queries.NewPortfolioQuery(service),
		Page: core.NewController(core.ControllerOptions{
			Service:       service,
			Renderer:      renderer,
			Locale:        locale,
			ScriptURL:     cfg.Widget.ScriptURL,
			StylesheetURL: httpapi.StylesheetPath,
			EventsURL:     "/api/notifications/sse",
			Preview:       preview,
			Notifications: hub,
		}),
		Broadcast: hub,
	}

	return &App{
		Service:   service,
		Broadcast: hub,
		Handler: httpapi.NewRouter(handlers, httpapi.RouterConfig{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Stylesheet:     stylesheet,
			Logger:         &log,
		}),
	}, nil
}

// widgetOptions points the element at the served override stylesheet unless
// the config lists its own css_urls.
func widgetOptions(cfg *config.Config) *core.WidgetOptions {
	var opts core.WidgetOptions
	if cfg.Widget.Options != nil {
		opts = *cfg.Widget.Options
	}
	if len(opts.CSSURLs) == 0 && cfg.Server.PublicURL != "" {
		opts.CSSURLs = []string{strings.TrimRight(cfg.Server.PublicURL, "/") + httpapi.StylesheetPath}
	}
	return &opts
}

func loadStylesheet(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("elements: read stylesheet: %w", err)
	}
	return data, nil
}
