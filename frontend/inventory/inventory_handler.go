package inventory

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	sessioncontext "gpdash/frontend/shared/context"
	sharedhtml "gpdash/frontend/shared/html"
	"gpdash/frontend/shared/nav"
	"gpdash/infrastructure/erp"
)

const pageSize = 25

// GPBrowser is the slice of ERP reads this page needs.
type GPBrowser interface {
	Items(ctx context.Context, siteID, search string, limit, offset int) ([]erp.ItemSummary, error)
}

// InventoryPageQueryHandler lists items with the active site's quantity
// counters. The available column here is the display-only counter math;
// the allocation modal computes the authoritative number per item.
func InventoryPageQueryHandler(gp GPBrowser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		search := strings.TrimSpace(r.URL.Query().Get("q"))
		page := parsePage(r.URL.Query().Get("page"))

		siteID := ""
		if session, ok := sessioncontext.GetSessionFromContext(r.Context()); ok && session.ActiveSite != nil {
			siteID = *session.ActiveSite
		}
		if siteID == "" {
			http.Redirect(w, r, "/tasker/sites", http.StatusSeeOther)
			return
		}

		items, err := gp.Items(r.Context(), siteID, search, pageSize+1, (page-1)*pageSize)
		if err != nil {
			slog.Error("inventory query failed", slog.String("site", siteID), slog.Any("err", err))
			http.Error(w, "failed to load inventory", http.StatusBadGateway)
			return
		}
		hasNext := len(items) > pageSize
		if hasNext {
			items = items[:pageSize]
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(inventoryPage(nav.ForRequest(r), siteID, search, page, hasNext, items)))
	}
}

func inventoryPage(navHTML, siteID, search string, page int, hasNext bool, items []erp.ItemSummary) string {
	var b strings.Builder
	b.WriteString(navHTML)
	fmt.Fprintf(&b, `<main><h1>Inventory — %s</h1>`, html.EscapeString(siteID))
	fmt.Fprintf(&b, `<form method="GET" action="/tasker/inventory" class="search"><input type="text" name="q" value="%s" placeholder="Item number or description"><button type="submit">Search</button></form>`,
		html.EscapeString(search))

	b.WriteString(`<table><thead><tr><th>Item</th><th>Description</th><th>Tracking</th><th class="num">On hand</th><th class="num">Allocated</th><th class="num">Available</th></tr></thead><tbody>`)
	for _, it := range items {
		tracking := "non-serialized"
		if it.Serialized {
			tracking = "serialized"
		}
		fmt.Fprintf(&b, `<tr><td>%s</td><td>%s</td><td>%s</td><td class="num">%s</td><td class="num">%s</td><td class="num">%s</td></tr>`,
			html.EscapeString(it.ItemNumber), html.EscapeString(it.Description), tracking,
			it.OnHand.String(), it.Allocated.String(), it.Available().String())
	}
	if len(items) == 0 {
		b.WriteString(`<tr><td colspan="6">No items found.</td></tr>`)
	}
	b.WriteString(`</tbody></table>`)

	b.WriteString(`<div class="pager">`)
	if page > 1 {
		fmt.Fprintf(&b, `<a href="/tasker/inventory?q=%s&page=%d">&laquo; Prev</a> `, url.QueryEscape(search), page-1)
	}
	fmt.Fprintf(&b, `Page %d`, page)
	if hasNext {
		fmt.Fprintf(&b, ` <a href="/tasker/inventory?q=%s&page=%d">Next &raquo;</a>`, url.QueryEscape(search), page+1)
	}
	b.WriteString(`</div></main>`)
	return sharedhtml.RenderLayout("Inventory - GP Dashboard", b.String())
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
