package sites

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	sessioncontext "gpdash/frontend/shared/context"
	sharedhtml "gpdash/frontend/shared/html"
	"gpdash/frontend/shared/nav"
	"gpdash/infrastructure/appdb"
	"gpdash/infrastructure/cache"
	"gpdash/infrastructure/erp"
	"gpdash/infrastructure/site"
)

// SitesPageQueryHandler lists GP warehouse sites with the session's active
// one marked.
func SitesPageQueryHandler(catalog *site.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sites, err := catalog.Sites(r.Context())
		if err != nil {
			slog.Error("site list failed", slog.Any("err", err))
			http.Error(w, "failed to load sites", http.StatusBadGateway)
			return
		}

		active := ""
		if session, ok := sessioncontext.GetSessionFromContext(r.Context()); ok {
			active = site.ResolveActive(sites, session)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(sitesPage(nav.ForRequest(r), strings.TrimSpace(r.URL.Query().Get("status")), active, sites)))
	}
}

// ActivateSiteCommandHandler persists the session's site choice and
// refreshes the cached session.
func ActivateSiteCommandHandler(db *appdb.DB, catalog *site.Catalog, sessionCache *cache.UserSessionCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(chi.URLParam(r, "code"))
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		if err := site.SetActive(r.Context(), db, catalog, session.ID, code); err != nil {
			slog.Error("activate site failed", slog.String("site", code), slog.Any("err", err))
			http.Redirect(w, r, "/tasker/sites?status="+url.QueryEscape("Failed to activate site"), http.StatusSeeOther)
			return
		}

		session.ActiveSite = &code
		if sessionCache != nil {
			sessionCache.AddSession(session)
		}
		http.Redirect(w, r, "/tasker/sites?status="+url.QueryEscape("Active site set to "+code), http.StatusSeeOther)
	}
}

func sitesPage(navHTML, message, active string, sites []erp.Site) string {
	var b strings.Builder
	b.WriteString(navHTML)
	b.WriteString(`<main><h1>Warehouse Sites</h1>`)
	if message != "" {
		fmt.Fprintf(&b, `<p class="status">%s</p>`, html.EscapeString(message))
	}

	b.WriteString(`<table><thead><tr><th>Code</th><th>Description</th><th></th></tr></thead><tbody>`)
	for _, s := range sites {
		action := fmt.Sprintf(`<form method="POST" action="/tasker/sites/%s/activate"><button type="submit">Activate</button></form>`, url.PathEscape(s.Code))
		if s.Code == active {
			action = `<strong>Active</strong>`
		}
		fmt.Fprintf(&b, `<tr><td>%s</td><td>%s</td><td>%s</td></tr>`,
			html.EscapeString(s.Code), html.EscapeString(s.Description), action)
	}
	if len(sites) == 0 {
		b.WriteString(`<tr><td colspan="3">No sites defined in GP.</td></tr>`)
	}
	b.WriteString(`</tbody></table></main>`)
	return sharedhtml.RenderLayout("Sites - GP Dashboard", b.String())
}
