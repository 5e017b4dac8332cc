package invoices

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	sharedhtml "gpdash/frontend/shared/html"
	"gpdash/frontend/shared/nav"
	"gpdash/infrastructure/erp"
)

const pageSize = 25

// GPBrowser is the slice of ERP reads this page needs.
type GPBrowser interface {
	Invoices(ctx context.Context, customerNumber string, limit, offset int) ([]erp.Invoice, error)
}

// InvoicesPageQueryHandler lists posted invoice history, optionally
// filtered to one customer number.
func InvoicesPageQueryHandler(gp GPBrowser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customer := strings.TrimSpace(r.URL.Query().Get("customer"))
		page := parsePage(r.URL.Query().Get("page"))

		invoices, err := gp.Invoices(r.Context(), customer, pageSize+1, (page-1)*pageSize)
		if err != nil {
			slog.Error("invoices query failed", slog.Any("err", err))
			http.Error(w, "failed to load invoices", http.StatusBadGateway)
			return
		}
		hasNext := len(invoices) > pageSize
		if hasNext {
			invoices = invoices[:pageSize]
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(invoicesPage(nav.ForRequest(r), customer, page, hasNext, invoices)))
	}
}

func invoicesPage(navHTML, customer string, page int, hasNext bool, invoices []erp.Invoice) string {
	var b strings.Builder
	b.WriteString(navHTML)
	b.WriteString(`<main><h1>Invoice History</h1>`)
	fmt.Fprintf(&b, `<form method="GET" action="/tasker/invoices" class="search"><input type="text" name="customer" value="%s" placeholder="Customer number"><button type="submit">Filter</button></form>`,
		html.EscapeString(customer))

	b.WriteString(`<table><thead><tr><th>Invoice</th><th>Date</th><th>Customer</th><th class="num">Total</th></tr></thead><tbody>`)
	for _, inv := range invoices {
		date := ""
		if !inv.DocDate.IsZero() {
			date = inv.DocDate.Format("02/01/2006")
		}
		fmt.Fprintf(&b, `<tr><td>%s</td><td>%s</td><td><a href="/tasker/customers/%s">%s — %s</a></td><td class="num">%s</td></tr>`,
			html.EscapeString(inv.DocNumber), html.EscapeString(date),
			url.PathEscape(inv.CustomerNumber), html.EscapeString(inv.CustomerNumber),
			html.EscapeString(inv.CustomerName), html.EscapeString(inv.Total.StringFixed(2)))
	}
	if len(invoices) == 0 {
		b.WriteString(`<tr><td colspan="4">No invoices found.</td></tr>`)
	}
	b.WriteString(`</tbody></table>`)

	b.WriteString(`<div class="pager">`)
	if page > 1 {
		fmt.Fprintf(&b, `<a href="/tasker/invoices?customer=%s&page=%d">&laquo; Prev</a> `, url.QueryEscape(customer), page-1)
	}
	fmt.Fprintf(&b, `Page %d`, page)
	if hasNext {
		fmt.Fprintf(&b, ` <a href="/tasker/invoices?customer=%s&page=%d">Next &raquo;</a>`, url.QueryEscape(customer), page+1)
	}
	b.WriteString(`</div></main>`)
	return sharedhtml.RenderLayout("Invoices - GP Dashboard", b.String())
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
