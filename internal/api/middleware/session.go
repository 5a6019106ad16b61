package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	GuestCookieName = "guest_id"
	guestPrefix     = "guest-"
	guestCookieAge  = 30 * 24 * time.Hour
)

// GuestSession gives every anonymous shopper a stable guest id kept in a
// cookie, so carts survive between requests without logging in. Requests
// that already carry user claims are passed through untouched.
func GuestSession(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetUserID(r.Context()) != "" {
				next.ServeHTTP(w, r)
				return
			}

			guestID := ""
			if cookie, err := r.Cookie(GuestCookieName); err == nil && validGuestID(cookie.Value) {
				guestID = cookie.Value
			} else {
				guestID = guestPrefix + uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     GuestCookieName,
					Value:    guestID,
					Path:     "/",
					MaxAge:   int(guestCookieAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), GuestContextKey, guestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validGuestID(value string) bool {
	id, ok := strings.CutPrefix(value, guestPrefix)
	if !ok {
		return false
	}
	return uuid.Validate(id) == nil
}

// OwnerID returns the id carts and orders belong to: the user id when
// authenticated, else the guest id.
func OwnerID(ctx context.Context) string {
	if userID := GetUserID(ctx); userID != "" {
		return userID
	}
	guestID, _ := ctx.Value(GuestContextKey).(string)
	return guestID
}
