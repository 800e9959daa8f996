// Package http serves a composed application over HTTP: the frozen route
// table, the navbar, locale tables, grid queries and CRUD item endpoints.
// Every response uses the JSON:API envelope.
package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/artpar/adminkit/core/authz"
	"github.com/artpar/adminkit/core/builder"
	"github.com/artpar/adminkit/core/registry"
	"github.com/artpar/adminkit/core/render"
	"github.com/artpar/adminkit/core/resource"
	"github.com/artpar/adminkit/core/router"
	"github.com/artpar/adminkit/core/schema"
	"github.com/artpar/adminkit/pkg/jsonapi"
)

// RequestRecorder observes served requests.
type RequestRecorder interface {
	ObserveRequest(method, route string, status int, took time.Duration)
}

// Options configures a Channel.
type Options struct {
	// Addr is the listen address. Start is a no-op when empty.
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Resolver builds the authorization snapshot of each request.
	// Defaults to authz.HeaderResolver.
	Resolver authz.Resolver

	Recorder RequestRecorder

	// MetricsPath and MetricsHandler expose metrics when both are set.
	MetricsPath    string
	MetricsHandler http.Handler

	// DefaultLocale is used when neither the query nor the user name one.
	DefaultLocale string
	Timezone      string

	Logger zerolog.Logger
}

// Channel implements the HTTP channel for a composed application.
type Channel struct {
	router chi.Router
	app    *registry.App
	opts   Options
	logger zerolog.Logger
	server *http.Server
}

// New creates a channel serving app.
func New(app *registry.App, opts Options) *Channel {
	if opts.Resolver == nil {
		opts.Resolver = authz.HeaderResolver{}
	}
	c := &Channel{
		router: chi.NewRouter(),
		app:    app,
		opts:   opts,
		logger: opts.Logger.With().Str("channel", "http").Logger(),
	}

	c.router.Use(middleware.RequestID)
	c.router.Use(middleware.Recoverer)
	c.router.Use(c.observe)

	c.router.Get("/health", c.handleHealth)
	if opts.MetricsPath != "" && opts.MetricsHandler != nil {
		c.router.Handle(opts.MetricsPath, opts.MetricsHandler)
	}

	c.router.Route("/api", func(r chi.Router) {
		r.Use(c.authorize)

		r.Get("/routes", c.handleRoutes)
		r.Get("/navbar", c.handleNavbar)
		r.Get("/locales", c.handleLocales)
		r.Get("/locales/{locale}", c.handleLocale)

		r.Get("/grid/{route}", c.handleGrid)
		r.Post("/grid/{route}/actions/{index}/{id}", c.handleGridAction)
		r.Post("/grid/{route}/controls/{index}", c.handleGridControl)

		r.Get("/crud/{route}", c.handleNew)
		r.Post("/crud/{route}", c.handleSave)
		r.Post("/crud/{route}/bulk-delete", c.handleBulkDelete)
		r.Get("/crud/{route}/{id}", c.handleItem)
		r.Put("/crud/{route}/{id}", c.handleSave)
		r.Delete("/crud/{route}/{id}", c.handleDelete)
	})

	c.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonapi.WriteNotFound(w, "no endpoint at "+r.URL.Path)
	})
	c.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonapi.WriteError(w, jsonapi.ErrMethodNotAllowed(r.Method))
	})

	return c
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return "http"
}

// Handler returns the HTTP handler.
func (c *Channel) Handler() http.Handler {
	return c.router
}

// Start starts the HTTP server in the background.
func (c *Channel) Start(ctx context.Context) error {
	if c.opts.Addr == "" {
		return nil
	}

	c.server = &http.Server{
		Addr:         c.opts.Addr,
		Handler:      c.router,
		ReadTimeout:  c.opts.ReadTimeout,
		WriteTimeout: c.opts.WriteTimeout,
	}

	go func() {
		c.logger.Info().Str("addr", c.opts.Addr).Msg("http server listening")
		if err := c.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error().Err(err).Msg("http server error")
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server.
func (c *Channel) Stop(ctx context.Context) error {
	if c.server != nil {
		return c.server.Shutdown(ctx)
	}
	return nil
}

// observe logs and records every request.
func (c *Channel) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		took := time.Since(start)
		pattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		if c.opts.Recorder != nil && r.URL.Path != c.opts.MetricsPath {
			c.opts.Recorder.ObserveRequest(r.Method, pattern, ww.Status(), took)
		}

		if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == c.opts.MetricsPath {
			return
		}
		c.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", chi.URLParam(r, "route")).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", took).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// authorize attaches the request's authorization snapshot.
func (c *Channel) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := c.opts.Resolver.Resolve(r)
		if store == nil {
			store = authz.Anonymous
		}
		next.ServeHTTP(w, r.WithContext(authz.WithStore(r.Context(), store)))
	})
}

func (c *Channel) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonapi.WriteMeta(w, http.StatusOK, jsonapi.Meta{
		"status":  "ok",
		"modules": len(c.app.Modules),
		"routes":  c.app.Table.Len(),
	})
}

// locale picks the request locale: the locale query parameter, then the
// user's language, then the default.
func (c *Channel) locale(r *http.Request) string {
	requested := r.URL.Query().Get("locale")
	if requested == "" {
		requested = authz.FromContext(r.Context()).User().Locale
	}
	if requested == "" {
		requested = c.opts.DefaultLocale
	}
	return c.app.I18n.Match(requested)
}

// env builds the render environment of a request.
func (c *Channel) env(r *http.Request) render.Env {
	return render.Env{
		Locale:   c.locale(r),
		Timezone: c.opts.Timezone,
		Authz:    authz.FromContext(r.Context()),
		T:        c.app.I18n,
		Links:    c.app.Router,
	}
}

// writeErr maps domain errors onto JSON:API errors.
func (c *Channel) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var verr *builder.ValidationError
	var pe *schema.PredicateError
	switch {
	case errors.As(err, &verr):
		jsonapi.WriteError(w, jsonapi.FieldErrors(verr.Fields)...)
	case errors.Is(err, router.ErrForbidden), errors.Is(err, builder.ErrActionHidden):
		if errors.As(err, &pe) {
			c.logger.Warn().Err(err).
				Str("route", chi.URLParam(r, "route")).
				Msg("access check panicked")
		}
		jsonapi.WriteForbidden(w, err.Error())
	case errors.Is(err, resource.ErrNotFound), errors.Is(err, router.ErrRouteNotFound), errors.Is(err, builder.ErrNoAction):
		jsonapi.WriteNotFound(w, err.Error())
	case errors.Is(err, router.ErrMissingParam):
		jsonapi.WriteBadRequest(w, err.Error())
	case errors.Is(err, errMethod):
		jsonapi.WriteError(w, jsonapi.NewError(http.StatusMethodNotAllowed, "method_not_allowed", "").Detail(err.Error()).Build())
	default:
		c.logger.Error().Err(err).
			Str("path", r.URL.Path).
			Str("route", chi.URLParam(r, "route")).
			Msg("request failed")
		jsonapi.WriteError(w, jsonapi.ErrBadGateway(err.Error()))
	}
}
