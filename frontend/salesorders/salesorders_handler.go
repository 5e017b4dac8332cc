package salesorders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	sessioncontext "gpdash/frontend/shared/context"
	"gpdash/frontend/shared/nav"
	"gpdash/infrastructure/appdb"
	"gpdash/infrastructure/erp"
)

const pageSize = 25

// SalesOrdersPageQueryHandler lists open GP orders.
func SalesOrdersPageQueryHandler(gp GPBrowser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		search := strings.TrimSpace(r.URL.Query().Get("q"))
		page := parsePage(r.URL.Query().Get("page"))

		// Fetch one extra row to know whether a next page exists.
		orders, err := gp.OpenSalesOrders(r.Context(), search, pageSize+1, (page-1)*pageSize)
		if err != nil {
			slog.Error("open sales orders query failed", slog.Any("err", err))
			http.Error(w, "failed to load sales orders", http.StatusBadGateway)
			return
		}
		hasNext := len(orders) > pageSize
		if hasNext {
			orders = orders[:pageSize]
		}

		rows := make([]OrderRow, 0, len(orders))
		for _, o := range orders {
			rows = append(rows, orderRow(o))
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(SalesOrdersPage(nav.ForRequest(r), ListPageData{
			Search:  search,
			Page:    page,
			HasNext: hasNext,
			Rows:    rows,
		})))
	}
}

// OrderDetailPageQueryHandler renders one order with its lines, committed
// serials, the Salesforce cross-reference, and the allocation modal.
func OrderDetailPageQueryHandler(gp GPBrowser, db *appdb.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sopNumber := strings.TrimSpace(chi.URLParam(r, "sopNumber"))
		detail, err := gp.SalesOrder(r.Context(), sopNumber)
		if errors.Is(err, erp.ErrOrderNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			slog.Error("sales order query failed", slog.String("sop", sopNumber), slog.Any("err", err))
			http.Error(w, "failed to load sales order", http.StatusBadGateway)
			return
		}

		data := DetailPageData{Order: orderRow(detail.SalesOrderSummary)}
		for _, l := range detail.Lines {
			data.Lines = append(data.Lines, LineRow{
				ItemNumber:  l.ItemNumber,
				Description: l.Description,
				Site:        l.Site,
				Quantity:    l.Quantity.String(),
				OrderedQty:  int(l.Quantity.IntPart()),
				UnitPrice:   l.UnitPrice.String(),
				Extended:    l.Extended.String(),
				Serials:     l.Serials,
			})
		}

		sfOrder, err := loadSfOrderForSop(r.Context(), db, sopNumber)
		if err != nil {
			// The GP side of the page still renders.
			slog.Error("sf order cross-reference failed", slog.String("sop", sopNumber), slog.Any("err", err))
		}
		if sfOrder != nil {
			data.SfOrder = &SfCrossRef{
				SfOrderID:     sfOrder.SfOrderID,
				OrderNumber:   sfOrder.OrderNumber,
				Status:        sfOrder.Status,
				OwnerName:     sfOrder.OwnerName,
				TotalAmount:   sfOrder.TotalAmount,
				SfLastUpdated: sfOrder.SfLastUpdated.Format("02/01/2006 15:04"),
			}
		}

		if session, ok := sessioncontext.GetSessionFromContext(r.Context()); ok && session.ActiveSite != nil {
			data.ActiveSite = *session.ActiveSite
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(OrderDetailPage(nav.ForRequest(r), data)))
	}
}

func orderRow(o erp.SalesOrderSummary) OrderRow {
	row := OrderRow{
		SopNumber:      o.SopNumber,
		CustomerNumber: o.CustomerNumber,
		CustomerName:   o.CustomerName,
		Site:           o.Site,
		Total:          o.Total.StringFixed(2),
	}
	if !o.DocDate.IsZero() {
		row.DocDate = o.DocDate.Format("02/01/2006")
	}
	return row
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
