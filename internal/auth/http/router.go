package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bni/bni/internal/auth/blob"
	"github.com/bni/bni/internal/auth/service"
	"github.com/bni/bni/internal/auth/store"
	"github.com/bni/bni/pkg/httpx"
	"github.com/bni/bni/pkg/jwtx"
	"github.com/bni/bni/pkg/slogx"

	_ "github.com/bni/bni/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec        *jwtx.Codec
	limits       httpx.RateLimits
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store   store.Store
	storage blob.Storage

	AuthService    *service.AuthService
	Gate           *service.Gate
	ProfileService *service.ProfileService
	FileService    *service.FileService
	MaxUploadBytes int64
}

func NewRouter(
	codec *jwtx.Codec,
	limits httpx.RateLimits,
	buildVersion string,
	st store.Store,
	storage blob.Storage,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        codec,
		limits:       limits,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		storage:      storage,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerProfile()
	r.registerFiles()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			BNI Authentication Service API
//	@version		0.1.0
//	@description	Username/password registration and login issuing HS256 bearer tokens valid for 10 hours,
//	@description	plus per-user profile management and file upload.
//	@description
//	@description				The signing key is generated at startup: tokens do not survive a restart.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Token from /api/auth/login. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authenticated wraps h with the bearer gate followed by a per-user limit.
func (r *Router) authenticated(h http.Handler, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.Gate, writeError),
		httpx.RateLimitBySubject(limit, r.limits.ClientIP()),
	)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// Credential endpoints - strict limit by IP + username to slow guessing
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIPAndJSONField(r.limits.Strict, r.limits.ClientIP(), "username"),
		),
	)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(r.limits.Strict, r.limits.ClientIP(), "username"),
		),
	)

	r.Mux.Handle("GET /api/auth/me", r.authenticated(http.HandlerFunc(h.HandleMe), r.limits.Lenient))
}

func (r *Router) registerProfile() {
	h := &ProfileHandler{ProfileService: r.ProfileService}

	r.Mux.Handle("POST /api/me/update", r.authenticated(http.HandlerFunc(h.HandleUpdate), r.limits.Moderate))
	r.Mux.Handle("GET /api/me/profile", r.authenticated(http.HandlerFunc(h.HandleGet), r.limits.Lenient))
}

func (r *Router) registerFiles() {
	h := &FileHandler{FileService: r.FileService, MaxUploadBytes: r.MaxUploadBytes}

	r.Mux.Handle("POST /api/files/upload", r.authenticated(http.HandlerFunc(h.HandleUpload), r.limits.Moderate))

	// Downloads are public: uploaded files are addressed by name only
	r.Mux.Handle("GET /api/files/{filename}",
		httpx.Chain(http.HandlerFunc(h.HandleDownload),
			httpx.RateLimitByIP(r.limits.Public, r.limits.ClientIP()),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.limits.Lenient, r.limits.ClientIP()),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.codec, r.storage),
			httpx.RateLimitByIP(r.limits.Lenient, r.limits.ClientIP()),
		),
	)
}
