package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
	"github.com/aussiebroadwan/campus/internal/campus/service"
	"github.com/aussiebroadwan/campus/internal/campus/session"
	"github.com/aussiebroadwan/campus/internal/campus/store"
	"github.com/aussiebroadwan/campus/pkg/httpx"
	"github.com/aussiebroadwan/campus/pkg/jwtx"
	"github.com/aussiebroadwan/campus/pkg/slogx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/aussiebroadwan/campus/api/campus" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux *chi.Mux

	keys         *jwtx.KeyManager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	Sessions            *session.Manager
	AccountService      *service.AccountService
	EventService        *service.EventService
	RegistrationService *service.RegistrationService

	// Gatherer backs /metrics. Nil means prometheus.DefaultGatherer.
	Gatherer   prometheus.Gatherer
	RateLimits httpx.RateLimitProfiles
}

func NewRouter(
	keys *jwtx.KeyManager,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          chi.NewRouter(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		RateLimits:   httpx.DefaultRateLimits,
	}

	// Installed on the mux so the access log sees the matched route.
	r.Mux.Use(
		slogx.HTTPMiddleware(r.logger),
		middleware.Recoverer,
	)

	return r
}

func (r *Router) ApplyRoutes() {
	r.Mux.Use(httpx.LoadSession(r.Sessions, session.CookieName))

	r.registerAuth()
	r.registerEvents()
	r.registerRegistrations()
	r.registerMedia()
	r.registerSystem()

	r.Mux.Handle("/swagger/*", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router.
//
//	@title			Campus Events Service API
//	@version		0.1.0
//	@description	College event management: accounts with email OTP verification, an event catalogue
//	@description	run by admins, and capacity-limited registrations with signed QR tickets.
//	@description
//	@description	Tickets are Ed25519 signed JWS tokens; verification keys are published at /.well-known/jwks.json.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/campus
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						campus_session
//	@description				Session cookie issued by /auth/verify-otp and /auth/login.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Mux.ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		AccountService: r.AccountService,
		Sessions:       r.Sessions,
	}
	strict := httpx.RateLimitByIP(r.RateLimits.Strict)

	// Sign-up and credential checks share the strict per-IP budget.
	r.Mux.Method(http.MethodPost, "/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister), strict))
	r.Mux.Method(http.MethodPost, "/auth/verify-otp",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyOTP), strict))
	r.Mux.Method(http.MethodPost, "/auth/resend-otp",
		httpx.Chain(http.HandlerFunc(h.HandleResendOTP), strict))
	r.Mux.Method(http.MethodPost, "/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin), strict))

	r.Mux.Method(http.MethodPost, "/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RequireSession(),
			httpx.RateLimitByAccount(r.RateLimits.Moderate),
		))
	r.Mux.Method(http.MethodGet, "/auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.RequireSession(),
			httpx.RateLimitByAccount(r.RateLimits.Public),
		))
}

func (r *Router) registerEvents() {
	h := &EventsHandler{EventService: r.EventService}
	public := httpx.RateLimitByIP(r.RateLimits.Public)
	adminWrite := []httpx.Middleware{
		httpx.RequireSession(),
		httpx.RequireRole(domain.RoleAdmin),
		httpx.RateLimitByAccount(r.RateLimits.Moderate),
	}

	r.Mux.Route("/events", func(er chi.Router) {
		er.Method(http.MethodGet, "/", httpx.Chain(http.HandlerFunc(h.HandleList), public))
		er.Method(http.MethodPost, "/", httpx.Chain(http.HandlerFunc(h.HandleCreate), adminWrite...))

		er.Method(http.MethodGet, "/{id}", httpx.Chain(http.HandlerFunc(h.HandleGet), public))
		er.Method(http.MethodPut, "/{id}", httpx.Chain(http.HandlerFunc(h.HandleUpdate), adminWrite...))
		er.Method(http.MethodDelete, "/{id}", httpx.Chain(http.HandlerFunc(h.HandleDelete), adminWrite...))

		er.Method(http.MethodGet, "/{id}/is-organiser",
			httpx.Chain(http.HandlerFunc(h.HandleIsOrganiser),
				httpx.RequireSession(),
				httpx.RateLimitByAccount(r.RateLimits.Public),
			))
	})
}

func (r *Router) registerRegistrations() {
	h := &RegistrationsHandler{RegistrationService: r.RegistrationService}
	read := []httpx.Middleware{
		httpx.RequireSession(),
		httpx.RateLimitByAccount(r.RateLimits.Public),
	}
	write := []httpx.Middleware{
		httpx.RequireSession(),
		httpx.RateLimitByAccount(r.RateLimits.Moderate),
	}

	r.Mux.Route("/registrations", func(rr chi.Router) {
		rr.Method(http.MethodPost, "/", httpx.Chain(http.HandlerFunc(h.HandleRegister), write...))
		rr.Method(http.MethodGet, "/my-registrations", httpx.Chain(http.HandlerFunc(h.HandleListMine), read...))
		rr.Method(http.MethodGet, "/check/{eventId}", httpx.Chain(http.HandlerFunc(h.HandleCheck), read...))

		// Door scanning is bursty; give it the public budget.
		rr.Method(http.MethodPost, "/check-in",
			httpx.Chain(http.HandlerFunc(h.HandleCheckIn),
				httpx.RequireSession(),
				httpx.RequireRole(domain.RoleAdmin),
				httpx.RateLimitByAccount(r.RateLimits.Public),
			))

		rr.Method(http.MethodGet, "/{id}", httpx.Chain(http.HandlerFunc(h.HandleGet), read...))
		rr.Method(http.MethodDelete, "/{id}", httpx.Chain(http.HandlerFunc(h.HandleCancel), write...))
	})
}

func (r *Router) registerMedia() {
	r.Mux.Method(http.MethodGet, "/media/{id}",
		httpx.Chain(MediaHandler(r.EventService),
			httpx.RateLimitByIP(r.RateLimits.Public),
		))
}

func (r *Router) registerSystem() {
	public := httpx.RateLimitByIP(r.RateLimits.Public)

	r.Mux.Method(http.MethodGet, "/.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys.KeySet()), public))

	// Probes and scrapes are polled; they share the public budget.
	r.Mux.Method(http.MethodGet, "/livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion), public))
	r.Mux.Method(http.MethodGet, "/readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys), public))

	gatherer := r.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Mux.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
