package settings

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	appcontext "gpdash/frontend/shared/context"
	sharedhtml "gpdash/frontend/shared/html"
	"gpdash/frontend/shared/nav"
	"gpdash/infrastructure/appdb"
	"gpdash/infrastructure/cache"
	"gpdash/infrastructure/site"
)

func SettingsPageQueryHandler(db *appdb.DB, catalog *site.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := appcontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		current, err := LoadUserSettings(r.Context(), db, session.UserID)
		if err != nil {
			http.Error(w, "failed to load settings", http.StatusInternalServerError)
			return
		}
		sites, err := catalog.Sites(r.Context())
		if err != nil {
			http.Error(w, "site list unavailable", http.StatusBadGateway)
			return
		}

		var siteOptions strings.Builder
		siteOptions.WriteString(`<option value="">No default</option>`)
		for _, s := range sites {
			selected := ""
			if s.Code == current.DefaultSite {
				selected = " selected"
			}
			fmt.Fprintf(&siteOptions, `<option value="%s"%s>%s - %s</option>`,
				html.EscapeString(s.Code), selected,
				html.EscapeString(s.Code), html.EscapeString(s.Description))
		}

		status := html.EscapeString(r.URL.Query().Get("status"))
		statusHTML := ""
		if status != "" {
			statusHTML = fmt.Sprintf(`<p class="status">%s</p>`, status)
		}

		body := nav.ForRequest(r) + fmt.Sprintf(`<main>
<h1>Settings</h1>
%s
<form method="POST" action="/tasker/settings">
  <label for="default_site">Default site</label>
  <select id="default_site" name="default_site">%s</select>
  <label for="rows_per_page">Rows per page</label>
  <input id="rows_per_page" name="rows_per_page" type="number" min="%d" max="%d" value="%d">
  <button type="submit">Save</button>
</form>
</main>`, statusHTML, siteOptions.String(), minRowsPerPage, maxRowsPerPage, current.RowsPerPage)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(sharedhtml.RenderLayout("Settings - GP Dashboard", body)))
	}
}

func SettingsUpdateCommandHandler(db *appdb.DB, catalog *site.Catalog, sessionCache *cache.UserSessionCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := appcontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if err := r.ParseForm(); err != nil {
			redirectWithStatus(w, r, "invalid form")
			return
		}

		rows, err := strconv.Atoi(strings.TrimSpace(r.FormValue("rows_per_page")))
		if err != nil {
			redirectWithStatus(w, r, "rows per page must be a number")
			return
		}
		defaultSite := strings.TrimSpace(r.FormValue("default_site"))
		if defaultSite != "" {
			known, err := catalog.Has(r.Context(), defaultSite)
			if err != nil {
				redirectWithStatus(w, r, "site list unavailable")
				return
			}
			if !known {
				redirectWithStatus(w, r, "unknown site "+defaultSite)
				return
			}
		}

		if err := SaveUserSettings(r.Context(), db, session.UserID, UserSettings{
			DefaultSite: defaultSite,
			RowsPerPage: rows,
		}); err != nil {
			redirectWithStatus(w, r, err.Error())
			return
		}

		// Keep the cached session in step so site resolution picks the new
		// default without waiting for the next login.
		session.User.DefaultSite = defaultSite
		sessionCache.AddSession(session)

		redirectWithStatus(w, r, "saved")
	}
}

func redirectWithStatus(w http.ResponseWriter, r *http.Request, status string) {
	http.Redirect(w, r, "/tasker/settings?status="+url.QueryEscape(status), http.StatusSeeOther)
}
