package customers

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	sharedhtml "gpdash/frontend/shared/html"
	"gpdash/frontend/shared/nav"
	"gpdash/infrastructure/erp"
)

const pageSize = 25

// GPBrowser is the slice of ERP reads this page needs.
type GPBrowser interface {
	Customers(ctx context.Context, search string, limit, offset int) ([]erp.Customer, error)
	CustomerByNumber(ctx context.Context, number string) (erp.Customer, error)
	Invoices(ctx context.Context, customerNumber string, limit, offset int) ([]erp.Invoice, error)
}

// CustomersPageQueryHandler lists GP customers.
func CustomersPageQueryHandler(gp GPBrowser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		search := strings.TrimSpace(r.URL.Query().Get("q"))
		page := parsePage(r.URL.Query().Get("page"))

		customers, err := gp.Customers(r.Context(), search, pageSize+1, (page-1)*pageSize)
		if err != nil {
			slog.Error("customers query failed", slog.Any("err", err))
			http.Error(w, "failed to load customers", http.StatusBadGateway)
			return
		}
		hasNext := len(customers) > pageSize
		if hasNext {
			customers = customers[:pageSize]
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(customersPage(nav.ForRequest(r), search, page, hasNext, customers)))
	}
}

// CustomerDetailPageQueryHandler shows one customer with recent invoices.
func CustomerDetailPageQueryHandler(gp GPBrowser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number := strings.TrimSpace(chi.URLParam(r, "number"))
		customer, err := gp.CustomerByNumber(r.Context(), number)
		if err != nil {
			slog.Error("customer lookup failed", slog.String("customer", number), slog.Any("err", err))
			http.NotFound(w, r)
			return
		}

		invoices, err := gp.Invoices(r.Context(), number, 20, 0)
		if err != nil {
			slog.Error("customer invoices query failed", slog.String("customer", number), slog.Any("err", err))
			http.Error(w, "failed to load customer invoices", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(customerDetailPage(nav.ForRequest(r), customer, invoices)))
	}
}

func customersPage(navHTML, search string, page int, hasNext bool, customers []erp.Customer) string {
	var b strings.Builder
	b.WriteString(navHTML)
	b.WriteString(`<main><h1>Customers</h1>`)
	fmt.Fprintf(&b, `<form method="GET" action="/tasker/customers" class="search"><input type="text" name="q" value="%s" placeholder="Number or name"><button type="submit">Search</button></form>`,
		html.EscapeString(search))

	b.WriteString(`<table><thead><tr><th>Number</th><th>Name</th><th>Contact</th><th>City</th><th>Phone</th></tr></thead><tbody>`)
	for _, c := range customers {
		fmt.Fprintf(&b, `<tr><td><a href="/tasker/customers/%s">%s</a></td><td>%s</td><td>%s</td><td>%s %s</td><td>%s</td></tr>`,
			url.PathEscape(c.Number), html.EscapeString(c.Number), html.EscapeString(c.Name),
			html.EscapeString(c.Contact), html.EscapeString(c.City), html.EscapeString(c.State),
			html.EscapeString(c.Phone))
	}
	if len(customers) == 0 {
		b.WriteString(`<tr><td colspan="5">No customers found.</td></tr>`)
	}
	b.WriteString(`</tbody></table>`)

	b.WriteString(`<div class="pager">`)
	if page > 1 {
		fmt.Fprintf(&b, `<a href="/tasker/customers?q=%s&page=%d">&laquo; Prev</a> `, url.QueryEscape(search), page-1)
	}
	fmt.Fprintf(&b, `Page %d`, page)
	if hasNext {
		fmt.Fprintf(&b, ` <a href="/tasker/customers?q=%s&page=%d">Next &raquo;</a>`, url.QueryEscape(search), page+1)
	}
	b.WriteString(`</div></main>`)
	return sharedhtml.RenderLayout("Customers - GP Dashboard", b.String())
}

func customerDetailPage(navHTML string, customer erp.Customer, invoices []erp.Invoice) string {
	var b strings.Builder
	b.WriteString(navHTML)
	fmt.Fprintf(&b, `<main><h1>%s — %s</h1>`, html.EscapeString(customer.Number), html.EscapeString(customer.Name))
	fmt.Fprintf(&b, `<p>%s · %s %s · %s</p>`,
		html.EscapeString(customer.Contact), html.EscapeString(customer.City),
		html.EscapeString(customer.State), html.EscapeString(customer.Phone))

	b.WriteString(`<h2>Recent invoices</h2><table><thead><tr><th>Invoice</th><th>Date</th><th class="num">Total</th></tr></thead><tbody>`)
	for _, inv := range invoices {
		date := ""
		if !inv.DocDate.IsZero() {
			date = inv.DocDate.Format("02/01/2006")
		}
		fmt.Fprintf(&b, `<tr><td>%s</td><td>%s</td><td class="num">%s</td></tr>`,
			html.EscapeString(inv.DocNumber), html.EscapeString(date), html.EscapeString(inv.Total.StringFixed(2)))
	}
	if len(invoices) == 0 {
		b.WriteString(`<tr><td colspan="3">No posted invoices.</td></tr>`)
	}
	b.WriteString(`</tbody></table></main>`)
	return sharedhtml.RenderLayout("Customer "+customer.Number+" - GP Dashboard", b.String())
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
