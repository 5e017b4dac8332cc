package pickticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"gpdash/infrastructure/erp"
)

// OrderLoader is satisfied by erp.GPReader.
type OrderLoader interface {
	SalesOrder(ctx context.Context, sopNumber string) (*erp.SalesOrderDetail, error)
}

// PickTicketPDFHandler streams the pick ticket for one open order.
func PickTicketPDFHandler(gp OrderLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sopNumber := strings.TrimSpace(chi.URLParam(r, "sopNumber"))
		detail, err := gp.SalesOrder(r.Context(), sopNumber)
		if errors.Is(err, erp.ErrOrderNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			slog.Error("pick ticket order load failed", slog.String("sop", sopNumber), slog.Any("err", err))
			http.Error(w, "failed to load sales order", http.StatusBadGateway)
			return
		}

		ticket := TicketData{
			SopNumber:    detail.SopNumber,
			CustomerName: detail.CustomerName,
			DocDate:      detail.DocDate,
			Site:         detail.Site,
		}
		for _, l := range detail.Lines {
			ticket.Lines = append(ticket.Lines, TicketLine{
				ItemNumber:  l.ItemNumber,
				Description: l.Description,
				Site:        l.Site,
				Quantity:    l.Quantity.String(),
				Serials:     l.Serials,
			})
		}

		pdfBytes, err := renderPickTicketPDF(ticket, time.Now())
		if err != nil {
			slog.Error("pick ticket render failed", slog.String("sop", sopNumber), slog.Any("err", err))
			http.Error(w, "failed to render pick ticket", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=pick-ticket-%s.pdf", sopNumber))
		_, _ = w.Write(pdfBytes)
	}
}
