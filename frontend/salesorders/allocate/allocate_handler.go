package allocate

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	sessioncontext "gpdash/frontend/shared/context"
	"gpdash/infrastructure/allocation"
	"gpdash/infrastructure/identity"
	"gpdash/infrastructure/reservation"
)

// AllocationDataQueryHandler answers the modal's snapshot read. Site comes
// from the query string, falling back to the session's active site.
func AllocationDataQueryHandler(resolver *allocation.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemNumber := strings.TrimSpace(r.URL.Query().Get("itemNumber"))
		if itemNumber == "" {
			writeJSONError(w, http.StatusBadRequest, "itemNumber is required")
			return
		}

		siteID := strings.TrimSpace(r.URL.Query().Get("siteId"))
		if siteID == "" {
			if session, ok := sessioncontext.GetSessionFromContext(r.Context()); ok && session.ActiveSite != nil {
				siteID = *session.ActiveSite
			}
		}
		if siteID == "" {
			writeJSONError(w, http.StatusBadRequest, "siteId is required")
			return
		}

		requester := identity.Resolve(w, r)
		snap, err := resolver.Snapshot(r.Context(), allocation.Request{
			ItemNumber:       itemNumber,
			SiteID:           siteID,
			RequesterID:      requester.ID,
			CurrentSopNumber: strings.TrimSpace(r.URL.Query().Get("currentSopNumber")),
		})
		if err != nil {
			slog.Error("allocation snapshot failed",
				slog.String("item", itemNumber), slog.String("site", siteID), slog.Any("err", err))
			writeJSONError(w, http.StatusBadGateway, "stock data unavailable")
			return
		}

		writeJSON(w, http.StatusOK, snap)
	}
}

// ReserveSerialCommandHandler places a soft hold on one serial.
func ReserveSerialCommandHandler(res *reservation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemNumber, serialNumber, ok := serialParams(w, r)
		if !ok {
			return
		}
		requester := identity.Resolve(w, r)
		result := res.Reserve(r.Context(), itemNumber, serialNumber, requester.ID, requester.Name)
		writeJSON(w, http.StatusOK, result)
	}
}

// ReleaseSerialCommandHandler drops the requester's hold on one serial.
func ReleaseSerialCommandHandler(res *reservation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemNumber, serialNumber, ok := serialParams(w, r)
		if !ok {
			return
		}
		requester := identity.Resolve(w, r)
		result := res.Release(r.Context(), itemNumber, serialNumber, requester.ID)
		writeJSON(w, http.StatusOK, result)
	}
}

// ReleaseAllCommandHandler drops every hold the requester owns. Fired when
// an editing session is abandoned.
func ReleaseAllCommandHandler(res *reservation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requester := identity.Resolve(w, r)
		result := res.ReleaseAll(r.Context(), requester.ID)
		writeJSON(w, http.StatusOK, result)
	}
}

func serialParams(w http.ResponseWriter, r *http.Request) (itemNumber, serialNumber string, ok bool) {
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid form data")
		return "", "", false
	}
	itemNumber = strings.TrimSpace(r.FormValue("itemNumber"))
	serialNumber = strings.TrimSpace(r.FormValue("serialNumber"))
	if itemNumber == "" || serialNumber == "" {
		writeJSONError(w, http.StatusBadRequest, "itemNumber and serialNumber are required")
		return "", "", false
	}
	return itemNumber, serialNumber, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response failed", slog.Any("err", err))
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}
