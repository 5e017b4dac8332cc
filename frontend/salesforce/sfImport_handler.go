package salesforce

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	sharedhtml "gpdash/frontend/shared/html"
	"gpdash/frontend/shared/nav"
	"gpdash/infrastructure/appdb"
	"gpdash/infrastructure/audit"
	"gpdash/infrastructure/identity"
	"gpdash/models"
)

// SfImportPageQueryHandler shows the upload form and the current snapshot.
func SfImportPageQueryHandler(db *appdb.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		message := r.URL.Query().Get("status")
		if message == "" {
			message = "Upload CSV with header: " + strings.Join(csvHeader, ",")
		}

		orders, err := ListOrders(r.Context(), db, 50)
		if err != nil {
			http.Error(w, "failed to load imported orders", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(importPage(nav.ForRequest(r), message, orders)))
	}
}

// SfImportCommandHandler ingests the uploaded snapshot file.
func SfImportCommandHandler(db *appdb.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Redirect(w, r, "/tasker/salesforce/import?status="+url.QueryEscape("Error: invalid upload"), http.StatusSeeOther)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Redirect(w, r, "/tasker/salesforce/import?status="+url.QueryEscape("Error: file is required"), http.StatusSeeOther)
			return
		}
		defer file.Close()

		requester := identity.Resolve(w, r)
		summary, err := ImportCSV(r.Context(), db, auditSvc, requester.ID, file)
		if err != nil {
			http.Redirect(w, r, "/tasker/salesforce/import?status="+url.QueryEscape("Error: "+err.Error()), http.StatusSeeOther)
			return
		}

		status := fmt.Sprintf("Imported: %d inserted, %d updated, %d errors", summary.Inserted, summary.Updated, summary.Errors)
		http.Redirect(w, r, "/tasker/salesforce/import?status="+url.QueryEscape(status), http.StatusSeeOther)
	}
}

func importPage(navHTML, message string, orders []models.SfOrder) string {
	var b strings.Builder
	b.WriteString(navHTML)
	b.WriteString(`<main><h1>Salesforce Snapshot Import</h1>`)
	fmt.Fprintf(&b, `<p class="status">%s</p>`, html.EscapeString(message))
	b.WriteString(`<form method="POST" action="/tasker/salesforce/import" enctype="multipart/form-data"><input type="file" name="file" accept=".csv" required><button type="submit">Import</button></form>`)

	b.WriteString(`<h2>Imported orders</h2><table><thead><tr><th>SF Order</th><th>Order No.</th><th>GP Doc</th><th>Account</th><th>Status</th><th>Owner</th><th class="num">Amount</th><th>SF Updated</th></tr></thead><tbody>`)
	for _, o := range orders {
		updated := ""
		if !o.SfLastUpdated.IsZero() {
			updated = o.SfLastUpdated.Format("02/01/2006 15:04")
		}
		gpCell := html.EscapeString(o.GPSopNumber)
		if o.GPSopNumber != "" {
			gpCell = fmt.Sprintf(`<a href="/tasker/salesorders/%s">%s</a>`, url.PathEscape(o.GPSopNumber), html.EscapeString(o.GPSopNumber))
		}
		fmt.Fprintf(&b, `<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td class="num">%s</td><td>%s</td></tr>`,
			html.EscapeString(o.SfOrderID), html.EscapeString(o.OrderNumber), gpCell,
			html.EscapeString(o.AccountName), html.EscapeString(o.Status), html.EscapeString(o.OwnerName),
			html.EscapeString(o.TotalAmount), html.EscapeString(updated))
	}
	if len(orders) == 0 {
		b.WriteString(`<tr><td colspan="8">Nothing imported yet.</td></tr>`)
	}
	b.WriteString(`</tbody></table></main>`)
	return sharedhtml.RenderLayout("Salesforce Import - GP Dashboard", b.String())
}
