package adminusers

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"gpdash/frontend/shared/context"
	sharedhtml "gpdash/frontend/shared/html"
	"gpdash/frontend/shared/nav"
	"gpdash/infrastructure/appdb"
	"gpdash/infrastructure/cache"
)

// UsersPageQueryHandler renders the admin users list page.
func UsersPageQueryHandler(db *appdb.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		data, err := LoadUsersPageData(r.Context(), db)
		if err != nil {
			slog.Error("admin users: failed to load data", slog.Any("err", err))
			http.Error(w, "failed to load users", http.StatusInternalServerError)
			return
		}

		data.Status = r.URL.Query().Get("status")
		data.ErrorMessage = r.URL.Query().Get("error")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(usersListPage(nav.ForRequest(r), data)))
	}
}

func CreateUserCommandHandler(db *appdb.DB, _ *cache.UserCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := context.GetSessionFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		if err := r.ParseForm(); err != nil {
			redirectError(w, r, "invalid form data")
			return
		}

		username := strings.TrimSpace(r.FormValue("username"))
		if err := CreateUser(r.Context(), db,
			username,
			r.FormValue("email"),
			r.FormValue("display_name"),
			strings.TrimSpace(r.FormValue("password")),
			strings.TrimSpace(r.FormValue("role")),
			r.FormValue("default_site"),
		); err != nil {
			redirectError(w, r, err.Error())
			return
		}

		http.Redirect(w, r, "/tasker/admin/users?status="+url.QueryEscape("user created"), http.StatusSeeOther)
	}
}

func UpdateUserRoleCommandHandler(db *appdb.DB, _ *cache.UserCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := context.GetSessionFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if err := r.ParseForm(); err != nil {
			redirectError(w, r, "invalid form data")
			return
		}
		userID, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("user_id")), 10, 64)
		if err != nil || userID <= 0 {
			redirectError(w, r, "invalid user")
			return
		}
		if err := SetUserRole(r.Context(), db, userID, strings.TrimSpace(r.FormValue("role"))); err != nil {
			redirectError(w, r, err.Error())
			return
		}
		http.Redirect(w, r, "/tasker/admin/users?status="+url.QueryEscape("role updated"), http.StatusSeeOther)
	}
}

func redirectError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/tasker/admin/users?error="+url.QueryEscape(msg), http.StatusSeeOther)
}

func usersListPage(navHTML string, data PageData) string {
	var b strings.Builder
	b.WriteString(navHTML)
	b.WriteString(`<main><h1>Users</h1>`)
	if data.Status != "" {
		fmt.Fprintf(&b, `<p class="status">%s</p>`, html.EscapeString(data.Status))
	}
	if data.ErrorMessage != "" {
		fmt.Fprintf(&b, `<p class="error">%s</p>`, html.EscapeString(data.ErrorMessage))
	}

	b.WriteString(`<table><thead><tr><th>ID</th><th>Username</th><th>Name</th><th>Email</th><th>Role</th><th>Default site</th><th></th></tr></thead><tbody>`)
	for _, u := range data.Users {
		fmt.Fprintf(&b, `<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td>
<td><form method="POST" action="/tasker/admin/users/role">
<input type="hidden" name="user_id" value="%d">
<select name="role"><option value="sales"%s>sales</option><option value="admin"%s>admin</option></select>
<button type="submit">Update</button>
</form></td></tr>`,
			u.ID, html.EscapeString(u.Username), html.EscapeString(u.DisplayName),
			html.EscapeString(u.Email), html.EscapeString(u.Role), html.EscapeString(u.DefaultSite),
			u.ID, selectedIf(u.Role == "sales"), selectedIf(u.Role == "admin"))
	}
	b.WriteString(`</tbody></table>`)

	b.WriteString(`<h2>Create user</h2>
<form method="POST" action="/tasker/admin/users">
  <label>Username <input name="username" required></label>
  <label>Display name <input name="display_name"></label>
  <label>Email <input name="email" type="email"></label>
  <label>Password <input name="password" type="password" required></label>
  <label>Role <select name="role"><option value="sales">sales</option><option value="admin">admin</option></select></label>
  <label>Default site <input name="default_site"></label>
  <button type="submit">Create</button>
</form></main>`)

	return sharedhtml.RenderLayout("Users - GP Dashboard", b.String())
}

func selectedIf(cond bool) string {
	if cond {
		return " selected"
	}
	return ""
}
