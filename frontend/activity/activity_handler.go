package activity

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	sharedhtml "gpdash/frontend/shared/html"
	"gpdash/frontend/shared/nav"
	"gpdash/infrastructure/appdb"
)

// ActivityPageQueryHandler renders live holds and the reservation trail.
func ActivityPageQueryHandler(db *appdb.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := LoadActivityPageData(r.Context(), db, 100)
		if err != nil {
			http.Error(w, "failed to load activity", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(activityPage(nav.ForRequest(r), data)))
	}
}

func activityPage(navHTML string, data PageData) string {
	var b strings.Builder
	b.WriteString(navHTML)
	b.WriteString(`<main><h1>Reservation Activity</h1>`)

	b.WriteString(`<h2>Active holds</h2><table><thead><tr><th>Item</th><th>Serial</th><th>Held by</th><th>Expires</th></tr></thead><tbody>`)
	for _, h := range data.Holds {
		holder := h.UserName
		if holder == "" {
			holder = h.ReservedBy
		}
		fmt.Fprintf(&b, `<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
			html.EscapeString(h.ItemNumber), html.EscapeString(h.SerialNumber),
			html.EscapeString(holder), html.EscapeString(h.ExpiresAtUK))
	}
	if len(data.Holds) == 0 {
		b.WriteString(`<tr><td colspan="4">No active holds.</td></tr>`)
	}
	b.WriteString(`</tbody></table>`)

	b.WriteString(`<h2>Recent actions</h2><table><thead><tr><th>When</th><th>Who</th><th>Action</th><th>Entity</th><th>Detail</th></tr></thead><tbody>`)
	for _, row := range data.Rows {
		fmt.Fprintf(&b, `<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td><code>%s</code></td></tr>`,
			html.EscapeString(row.CreatedAtUK), html.EscapeString(row.Actor),
			html.EscapeString(row.Action), html.EscapeString(row.EntityID),
			html.EscapeString(row.AfterJSON))
	}
	if len(data.Rows) == 0 {
		b.WriteString(`<tr><td colspan="5">No reservation activity recorded.</td></tr>`)
	}
	b.WriteString(`</tbody></table></main>`)
	return sharedhtml.RenderLayout("Activity - GP Dashboard", b.String())
}
