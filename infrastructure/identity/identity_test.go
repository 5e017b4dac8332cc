package identity

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appcontext "gpdash/frontend/shared/context"
	"gpdash/infrastructure/session"
	"gpdash/models"
)

func TestResolvePrefersSessionEmail(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	sess := models.Session{
		UserID: 7,
		User:   models.User{ID: 7, Username: "asmith", Email: "alice@example.com", DisplayName: "Alice Smith"},
	}
	r = r.WithContext(appcontext.NewContextWithSession(r.Context(), sess))

	got := Resolve(httptest.NewRecorder(), r)
	if got.ID != "alice@example.com" {
		t.Fatalf("expected email id, got %q", got.ID)
	}
	if got.Name != "Alice Smith" {
		t.Fatalf("expected display name, got %q", got.Name)
	}
}

func TestResolveFallsBackToUserID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	sess := models.Session{
		UserID: 7,
		User:   models.User{ID: 7, Username: "asmith"},
	}
	r = r.WithContext(appcontext.NewContextWithSession(r.Context(), sess))

	got := Resolve(httptest.NewRecorder(), r)
	if got.ID != "7" {
		t.Fatalf("expected numeric user id, got %q", got.ID)
	}
	if got.Name != "asmith" {
		t.Fatalf("expected username fallback, got %q", got.Name)
	}
}

func TestResolveUsesExplicitGuestID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?guestId=guest-abc", nil)
	r.AddCookie(session.GuestCookie("guest-from-cookie"))

	got := Resolve(httptest.NewRecorder(), r)
	if got.ID != "guest-abc" {
		t.Fatalf("explicit guestId should win over cookie, got %q", got.ID)
	}
}

func TestResolveUsesGuestCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(session.GuestCookie("guest-from-cookie"))

	got := Resolve(httptest.NewRecorder(), r)
	if got.ID != "guest-from-cookie" {
		t.Fatalf("expected cookie id, got %q", got.ID)
	}
}

func TestResolveMintsGuestIDAndSetsCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	got := Resolve(w, r)
	if !strings.HasPrefix(got.ID, "guest-") {
		t.Fatalf("expected minted guest id, got %q", got.ID)
	}

	var set *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == session.GuestCookieName {
			set = c
		}
	}
	if set == nil {
		t.Fatalf("expected guest cookie to be set")
	}
	if set.Value != got.ID {
		t.Fatalf("cookie %q does not match resolved id %q", set.Value, got.ID)
	}
	if set.HttpOnly {
		t.Fatalf("guest cookie must be readable by page script")
	}
}

func TestResolveWithoutResponseWriterIsAnonymous(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := Resolve(nil, r); got.ID != "anonymous" {
		t.Fatalf("expected anonymous, got %q", got.ID)
	}
}
