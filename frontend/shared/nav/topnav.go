package nav

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	sessioncontext "gpdash/frontend/shared/context"
	"gpdash/infrastructure/rbac"
	"gpdash/models"
)

// TopNavData is shared with page renderers.
type TopNavData struct {
	DisplayName string
	Role        string
	ActiveSite  string
	ActivePath  string
}

func BuildTopNavData(session models.Session, activeSite, activePath string) TopNavData {
	name := session.User.DisplayName
	if name == "" {
		name = session.User.Username
	}
	return TopNavData{
		DisplayName: name,
		Role:        session.User.Role,
		ActiveSite:  activeSite,
		ActivePath:  activePath,
	}
}

type navLink struct {
	label     string
	href      string
	adminOnly bool
}

var navLinks = []navLink{
	{label: "Customers", href: "/tasker/customers"},
	{label: "Inventory", href: "/tasker/inventory"},
	{label: "Invoices", href: "/tasker/invoices"},
	{label: "Sales Orders", href: "/tasker/salesorders"},
	{label: "Sites", href: "/tasker/sites"},
	{label: "Activity", href: "/tasker/activity", adminOnly: true},
	{label: "SF Import", href: "/tasker/salesforce/import", adminOnly: true},
	{label: "Users", href: "/tasker/admin/users", adminOnly: true},
	{label: "Settings", href: "/tasker/settings"},
	{label: "Help", href: "/tasker/help"},
}

// ForRequest renders the nav bar from the request's session context.
func ForRequest(r *http.Request) string {
	session, _ := sessioncontext.GetSessionFromContext(r.Context())
	active := ""
	if session.ActiveSite != nil {
		active = *session.ActiveSite
	}
	return Render(BuildTopNavData(session, active, r.URL.Path))
}

// Render returns the top navigation bar shared by every page.
func Render(data TopNavData) string {
	var b strings.Builder
	b.WriteString(`<nav class="topnav"><span class="brand">GP Dashboard</span><ul>`)
	for _, link := range navLinks {
		if link.adminOnly && data.Role != rbac.RoleAdmin {
			continue
		}
		class := ""
		if strings.HasPrefix(data.ActivePath, link.href) {
			class = ` class="active"`
		}
		fmt.Fprintf(&b, `<li%s><a href="%s">%s</a></li>`, class, link.href, html.EscapeString(link.label))
	}
	b.WriteString(`</ul><span class="session">`)
	if data.ActiveSite != "" {
		fmt.Fprintf(&b, `<span class="site">Site: %s</span> `, html.EscapeString(data.ActiveSite))
	}
	fmt.Fprintf(&b, `%s (%s)`, html.EscapeString(data.DisplayName), html.EscapeString(data.Role))
	b.WriteString(`</span><form method="POST" action="/logout" class="logout"><button type="submit">Log out</button></form></nav>`)
	return b.String()
}
