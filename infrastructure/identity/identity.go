package identity

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	appcontext "gpdash/frontend/shared/context"
	"gpdash/infrastructure/session"
)

// Requester is who a serial hold or allocation request is attributed to.
// ID is the stable owner key reservations are keyed by; Name is what other
// users see on a blocked serial.
type Requester struct {
	ID   string
	Name string
}

// Resolve determines the requester for r.
//
// A signed-in user is identified by email, falling back to their numeric
// user id when the account has no email on file. Anonymous callers get a
// guest id: an explicit guestId form/query value wins, then the guest
// cookie, and when neither exists a fresh id is minted and set on w so the
// same browser keeps the same holds across requests.
func Resolve(w http.ResponseWriter, r *http.Request) Requester {
	if sess, ok := appcontext.GetSessionFromContext(r.Context()); ok && sess.UserID != 0 {
		name := sess.User.DisplayName
		if name == "" {
			name = sess.User.Username
		}
		if email := strings.TrimSpace(sess.User.Email); email != "" {
			return Requester{ID: email, Name: name}
		}
		return Requester{ID: strconv.FormatInt(sess.UserID, 10), Name: name}
	}

	if id := strings.TrimSpace(r.FormValue("guestId")); id != "" {
		return Requester{ID: id, Name: "Guest"}
	}
	if c, err := r.Cookie(session.GuestCookieName); err == nil && strings.TrimSpace(c.Value) != "" {
		return Requester{ID: c.Value, Name: "Guest"}
	}

	if w == nil {
		return Requester{ID: "anonymous", Name: "Guest"}
	}
	id := "guest-" + uuid.NewString()
	http.SetCookie(w, session.GuestCookie(id))
	return Requester{ID: id, Name: "Guest"}
}
