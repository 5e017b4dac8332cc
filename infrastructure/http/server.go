package http

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	loginflow "gpdash/frontend/login"
	sessioncontext "gpdash/frontend/shared/context"
	"gpdash/infrastructure/allocation"
	"gpdash/infrastructure/appdb"
	"gpdash/infrastructure/audit"
	"gpdash/infrastructure/cache"
	"gpdash/infrastructure/erp"
	"gpdash/infrastructure/rbac"
	"gpdash/infrastructure/reservation"
	sessioncookie "gpdash/infrastructure/session"
	"gpdash/infrastructure/site"
	"gpdash/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

//go:embed assets/*
var assets embed.FS

var ShutdownTimeout = 2 * time.Second

// ERPBrowser is everything the page handlers read from Dynamics GP.
// erp.GPReader satisfies it; tests substitute a fake.
type ERPBrowser interface {
	Customers(ctx context.Context, search string, limit, offset int) ([]erp.Customer, error)
	CustomerByNumber(ctx context.Context, number string) (erp.Customer, error)
	Items(ctx context.Context, siteID, search string, limit, offset int) ([]erp.ItemSummary, error)
	Invoices(ctx context.Context, customerNumber string, limit, offset int) ([]erp.Invoice, error)
	OpenSalesOrders(ctx context.Context, search string, limit, offset int) ([]erp.SalesOrderSummary, error)
	SalesOrder(ctx context.Context, sopNumber string) (*erp.SalesOrderDetail, error)
}

// Server bundles dependencies and route wiring.
type Server struct {
	Addr   string
	ln     net.Listener
	server *http.Server
	router *chi.Mux

	DB           *appdb.DB
	GP           ERPBrowser
	Resolver     *allocation.Resolver
	Reservations *reservation.Service
	Sites        *site.Catalog
	Redis        *redis.Client
	SessionCache *cache.UserSessionCache
	UserCache    *cache.UserCache
	RbacCache    *cache.RbacRolesCache
	Rbac         *rbac.Rbac
	Audit        *audit.Service
}

// Deps carries the constructed services NewServer wires into routes.
type Deps struct {
	DB           *appdb.DB
	GP           ERPBrowser
	Resolver     *allocation.Resolver
	Reservations *reservation.Service
	Sites        *site.Catalog
	Redis        *redis.Client
	SessionCache *cache.UserSessionCache
	UserCache    *cache.UserCache
	RbacCache    *cache.RbacRolesCache
	Rbac         *rbac.Rbac
	Audit        *audit.Service
}

// NewServer creates a new http server.
func NewServer(addr string, d Deps) *Server {
	s := &Server{
		Addr:         addr,
		router:       chi.NewRouter(),
		DB:           d.DB,
		GP:           d.GP,
		Resolver:     d.Resolver,
		Reservations: d.Reservations,
		Sites:        d.Sites,
		Redis:        d.Redis,
		SessionCache: d.SessionCache,
		UserCache:    d.UserCache,
		RbacCache:    d.RbacCache,
		Rbac:         d.Rbac,
		Audit:        d.Audit,
		server: &http.Server{
			MaxHeaderBytes: 1 << 20,
		},
	}

	// Secure headers first.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			next.ServeHTTP(w, r)
		})
	})

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.CSRFMiddleware)

	// Handle root requests - check auth status but don't require it.
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sessionCookie, err := r.Cookie(sessioncookie.CookieName)
		if err != nil || sessionCookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		session, ok := s.resolveSession(r.Context(), sessionCookie.Value)
		if !ok || session.Expired() {
			http.SetCookie(w, sessioncookie.SessionCookie("", -1))
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		http.Redirect(w, r, "/tasker/salesorders", http.StatusSeeOther)
	})

	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Serve assets from embedded FS.
	var assetsFS fs.FS = assets
	if sub, err := fs.Sub(assets, "assets"); err == nil {
		assetsFS = sub
	} else {
		slog.Error("assets subfs init failed; serving fallback fs", slog.Any("err", err))
	}
	s.router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))

	s.RegisterLoginRoutes()

	s.router.Group(func(r chi.Router) {
		r.Route("/tasker", func(r chi.Router) {
			r.Use(s.AuthenticateMiddleware)
			s.RegisterBrowseRoutes(r)
			s.RegisterOrderRoutes(r)
			s.RegisterAdminRoutes(r)
		})
	})

	s.server.Handler = s.router
	return s
}

// AuthenticateMiddleware loads session and applies RBAC checks.
func (s *Server) AuthenticateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionCookie, err := r.Cookie(sessioncookie.CookieName)
		if err != nil || sessionCookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		sessionToken := sessionCookie.Value
		session, ok := s.resolveSession(r.Context(), sessionToken)
		if !ok {
			slog.Warn("session not found in cache", slog.String("method", r.Method), slog.String("path", r.URL.Path))
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		if session.Expired() {
			http.SetCookie(w, sessioncookie.SessionCookie("", -1))
			s.SessionCache.DeleteSessionBySessionToken(sessionToken)
			if err := DeleteSessionByID(s.DB, sessionToken); err != nil {
				slog.Error("cannot delete session from DB", slog.String("session_id", sessionToken), slog.Any("err", err))
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		s.ensureSessionActiveSite(r.Context(), &session)

		path := r.URL.Path
		skipRBAC := path == "/login" || path == "/logout"

		isAdmin := false
		for _, role := range session.UserRoles {
			if role == rbac.RoleAdmin {
				isAdmin = true
				break
			}
		}

		if isAdmin {
			session.ScreenPermissions = s.RbacCache.GetAllRouteNames()
			skipRBAC = true
		}

		if session.ScreenPermissions == nil {
			session.ScreenPermissions = s.buildRbacNamedRoutesMap(session.UserRoles)
			if session.ScreenPermissions == nil {
				session.ScreenPermissions = make(map[string]int)
			}
		}

		if !skipRBAC {
			if !s.RbacValidation(session.UserRoles, path, r.Method) {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
		}

		ctx := sessioncontext.NewContextWithSession(r.Context(), session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) resolveSession(ctx context.Context, token string) (session models.Session, ok bool) {
	if cached, found := s.SessionCache.FindSessionBySessionToken(token); found {
		return cached, true
	}

	dbSession, err := loginflow.LoadSessionByToken(ctx, s.DB, token)
	if err != nil {
		if err != sql.ErrNoRows {
			slog.Error("load session from db failed", slog.String("session_id", token), slog.Any("err", err))
		}
		return session, false
	}

	s.SessionCache.AddSession(dbSession)
	s.UserCache.Add(dbSession.User.Username, dbSession.User)
	return dbSession, true
}

// ensureSessionActiveSite fills in a missing active warehouse site from the
// user's default or the first GP site, so site-scoped pages always have one.
func (s *Server) ensureSessionActiveSite(ctx context.Context, session *models.Session) {
	if session == nil || session.ID == "" || s.Sites == nil {
		return
	}
	sites, err := s.Sites.Sites(ctx)
	if err != nil {
		slog.Error("resolve session site list failed", slog.String("session_id", session.ID), slog.Any("err", err))
		return
	}
	code := site.ResolveActive(sites, *session)
	if code == "" {
		return
	}
	if session.ActiveSite != nil && *session.ActiveSite == code {
		return
	}
	if err := site.SetActive(ctx, s.DB, s.Sites, session.ID, code); err != nil {
		slog.Error("set session active site failed", slog.String("session_id", session.ID), slog.Any("err", err))
		return
	}
	session.ActiveSite = &code
	if s.SessionCache != nil {
		s.SessionCache.AddSession(*session)
	}
}

func (s *Server) buildRbacNamedRoutesMap(userRoles []string) map[string]int {
	perms := make(map[string]int)
	resources := s.RbacCache.GetRolesAndResources(userRoles)
	if len(resources) == 0 {
		return nil
	}
	for _, res := range resources {
		perms[res.UserResourceCode] = 1
	}
	return perms
}

func (s *Server) RbacValidation(userRoles []string, url, method string) bool {
	if len(userRoles) == 0 {
		return false
	}
	resources := s.RbacCache.GetRolesAndResources(userRoles)
	if len(resources) == 0 {
		return false
	}
	return rbac.ValidateResourceAccess(resources, url, method)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	var err error
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	go s.server.Serve(s.ln)
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.ln == nil {
		return fmt.Errorf("HTTP server has not been started or is already stopped")
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %v", err)
	}
	s.ln = nil
	return nil
}

// DeleteSessionByID deletes a session by its ID using a write transaction.
func DeleteSessionByID(db *appdb.DB, sessionID string) error {
	return loginflow.DeleteSessionByToken(context.Background(), db, sessionID)
}
