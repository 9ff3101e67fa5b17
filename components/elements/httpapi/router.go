package httpapi

import (
	_ "embed"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// StylesheetPath is where the override stylesheet is served.
const StylesheetPath = "/matter-style.css"

// DefaultWidgetOrigin is the origin the hosted runtime fetches stylesheets from.
const DefaultWidgetOrigin = "https://elements.thisismatter.com"

//go:embed assets/matter-style.css
var defaultStylesheet []byte

// DefaultStylesheet returns the embedded override stylesheet.
func DefaultStylesheet() []byte {
	out := make([]byte, len(defaultStylesheet))
	copy(out, defaultStylesheet)
	return out
}

// RouterConfig configures NewRouter.
type RouterConfig struct {
	AllowedOrigins []string
	Stylesheet     []byte
	Logger         *zerolog.Logger
}

// NewRouter mounts the page, API, notification streams and stylesheet.
func NewRouter(h *Handlers, cfg RouterConfig) http.Handler {
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = cfg.Logger.With().Str("component", "http").Logger()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{DefaultWidgetOrigin}
	}
	stylesheet := cfg.Stylesheet
	if len(stylesheet) == 0 {
		stylesheet = defaultStylesheet
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware(log))

	r.Get("/", h.HandlePage)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.HandleStatus)
		r.Get("/portfolio", h.HandleGetPortfolio)
		r.Post("/portfolio", h.HandleUpdatePortfolio)
		r.Post("/container", h.HandleAttachContainer)
		r.Delete("/container", h.HandleDetachContainer)
		if h.Broadcast != nil {
			r.Get("/notifications/sse", h.Broadcast.ServeSSE)
			r.Get("/notifications/ws", h.Broadcast.ServeWebSocket)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
			AllowedHeaders: []string{"Accept"},
			MaxAge:         300,
		}))
		serve := stylesheetHandler(stylesheet)
		r.Get(StylesheetPath, serve)
		r.Head(StylesheetPath, serve)
		r.Options(StylesheetPath, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}

func stylesheetHandler(css []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write(css)
		}
	}
}

func loggingMiddleware(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
