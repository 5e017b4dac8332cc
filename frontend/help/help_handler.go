package help

import (
	"net/http"
	"strings"

	sessioncontext "gpdash/frontend/shared/context"
	sharedhtml "gpdash/frontend/shared/html"
	"gpdash/frontend/shared/nav"
	"gpdash/infrastructure/rbac"
)

func HelpPageQueryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(helpPage(nav.ForRequest(r), session.User.Role == rbac.RoleAdmin)))
	}
}

func helpPage(navHTML string, isAdmin bool) string {
	var b strings.Builder
	b.WriteString(navHTML)
	b.WriteString(`<main><h1>Help</h1>
<h2>Browsing</h2>
<p>Customers, Inventory, Invoices and Sales Orders are read straight from
Dynamics GP. Pick an active site on the Sites page first; inventory counts
and serial availability are scoped to it.</p>
<h2>Allocating serials</h2>
<p>Open a sales order and click a line to open the allocation panel. Ticking
a serial places a 10 minute hold on it so two people cannot pick the same
unit. Holds release automatically when the panel closes or the hold expires.
Serials already attached to another open order cannot be selected at all.</p>
<p>Tick "Fulfill" as well to mark selected serials as picked. Fulfilled
serials are always a subset of allocated ones.</p>
<h2>Pick tickets</h2>
<p>The order page links to a printable PDF pick ticket with a barcode per
allocated serial.</p>`)
	if isAdmin {
		b.WriteString(`<h2>Administration</h2>
<p>Admins can create accounts on the Users page, import Salesforce order
snapshots from CSV, and review reservation activity including who holds
which serial right now.</p>`)
	}
	b.WriteString(`</main>`)
	return sharedhtml.RenderLayout("Help - GP Dashboard", b.String())
}
