package session

import (
	"net/http"
	"time"
)

const CookieName = "X-Session-Token"

// GuestCookieName carries the opaque requester id for unauthenticated
// sessions. It is readable by the page script so the allocation modal can
// send the same id it was issued.
const GuestCookieName = "X-Guest-Id"

func SessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   false,
	}
}

func GuestCookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     GuestCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
		Secure:   false,
	}
}

func DefaultExpiry() time.Time {
	return time.Now().Add(12 * time.Hour)
}
