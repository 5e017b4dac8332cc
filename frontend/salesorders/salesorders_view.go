package salesorders

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"gpdash/frontend/salesorders/allocate"
	sharedhtml "gpdash/frontend/shared/html"
)

func SalesOrdersPage(navHTML string, data ListPageData) string {
	var b strings.Builder
	b.WriteString(navHTML)
	b.WriteString(`<main><h1>Open Sales Orders</h1>`)
	fmt.Fprintf(&b, `<form method="GET" action="/tasker/salesorders" class="search"><input type="text" name="q" value="%s" placeholder="Order, customer number or name"><button type="submit">Search</button></form>`,
		html.EscapeString(data.Search))

	b.WriteString(`<table><thead><tr><th>Order</th><th>Date</th><th>Customer</th><th>Site</th><th class="num">Total</th></tr></thead><tbody>`)
	for _, row := range data.Rows {
		fmt.Fprintf(&b, `<tr><td><a href="/tasker/salesorders/%s">%s</a></td><td>%s</td><td>%s — %s</td><td>%s</td><td class="num">%s</td></tr>`,
			url.PathEscape(row.SopNumber), html.EscapeString(row.SopNumber), html.EscapeString(row.DocDate),
			html.EscapeString(row.CustomerNumber), html.EscapeString(row.CustomerName),
			html.EscapeString(row.Site), html.EscapeString(row.Total))
	}
	if len(data.Rows) == 0 {
		b.WriteString(`<tr><td colspan="5">No open orders found.</td></tr>`)
	}
	b.WriteString(`</tbody></table>`)

	b.WriteString(pager("/tasker/salesorders", data.Search, data.Page, data.HasNext))
	b.WriteString(`</main>`)
	return sharedhtml.RenderLayout("Sales Orders - GP Dashboard", b.String())
}

func OrderDetailPage(navHTML string, data DetailPageData) string {
	var b strings.Builder
	b.WriteString(navHTML)
	fmt.Fprintf(&b, `<main><h1>Order %s</h1>`, html.EscapeString(data.Order.SopNumber))
	fmt.Fprintf(&b, `<p>%s — %s · %s · Site %s · Total %s</p>`,
		html.EscapeString(data.Order.CustomerNumber), html.EscapeString(data.Order.CustomerName),
		html.EscapeString(data.Order.DocDate), html.EscapeString(data.Order.Site), html.EscapeString(data.Order.Total))
	fmt.Fprintf(&b, `<p><a href="/tasker/salesorders/%s/pick-ticket" target="_blank">Pick ticket (PDF)</a></p>`,
		url.PathEscape(data.Order.SopNumber))

	if data.SfOrder != nil {
		b.WriteString(`<section class="sf-ref"><h2>Salesforce</h2><dl>`)
		fmt.Fprintf(&b, `<dt>Order</dt><dd>%s (%s)</dd>`, html.EscapeString(data.SfOrder.OrderNumber), html.EscapeString(data.SfOrder.SfOrderID))
		fmt.Fprintf(&b, `<dt>Status</dt><dd>%s</dd>`, html.EscapeString(data.SfOrder.Status))
		fmt.Fprintf(&b, `<dt>Owner</dt><dd>%s</dd>`, html.EscapeString(data.SfOrder.OwnerName))
		fmt.Fprintf(&b, `<dt>Amount</dt><dd>%s</dd>`, html.EscapeString(data.SfOrder.TotalAmount))
		fmt.Fprintf(&b, `<dt>Last updated</dt><dd>%s</dd>`, html.EscapeString(data.SfOrder.SfLastUpdated))
		b.WriteString(`</dl></section>`)
	}

	b.WriteString(`<h2>Lines</h2><table><thead><tr><th>Item</th><th>Description</th><th>Site</th><th class="num">Qty</th><th class="num">Unit</th><th class="num">Extended</th><th>Serials</th><th></th></tr></thead><tbody>`)
	for _, line := range data.Lines {
		serials := strings.Join(line.Serials, ", ")
		fmt.Fprintf(&b, `<tr><td>%s</td><td>%s</td><td>%s</td><td class="num">%s</td><td class="num">%s</td><td class="num">%s</td><td>%s</td><td><button type="button" onclick="openAllocationModal('%s','%s',%d)">Allocate</button></td></tr>`,
			html.EscapeString(line.ItemNumber), html.EscapeString(line.Description), html.EscapeString(line.Site),
			html.EscapeString(line.Quantity), html.EscapeString(line.UnitPrice), html.EscapeString(line.Extended),
			html.EscapeString(serials),
			jsString(line.ItemNumber), jsString(data.Order.SopNumber), line.OrderedQty)
	}
	b.WriteString(`</tbody></table>`)

	b.WriteString(allocate.ModalHTML())
	b.WriteString(`</main>`)
	return sharedhtml.RenderLayout("Order "+data.Order.SopNumber+" - GP Dashboard", b.String())
}

func pager(base, search string, page int, hasNext bool) string {
	var b strings.Builder
	b.WriteString(`<div class="pager">`)
	if page > 1 {
		fmt.Fprintf(&b, `<a href="%s?q=%s&page=%d">&laquo; Prev</a> `, base, url.QueryEscape(search), page-1)
	}
	fmt.Fprintf(&b, `Page %d`, page)
	if hasNext {
		fmt.Fprintf(&b, ` <a href="%s?q=%s&page=%d">Next &raquo;</a>`, base, url.QueryEscape(search), page+1)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// jsString escapes a value for embedding in a single-quoted JS literal.
func jsString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return html.EscapeString(s)
}
