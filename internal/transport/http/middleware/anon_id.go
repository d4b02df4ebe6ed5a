package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	appCtx "github.com/baechuer/real-time-ressys/services/discovery-service/internal/pkg/context"
)

const (
	AnonCookieName = "anon_id"
	HeaderAnonID   = "X-Anon-ID"
)

// AnonID middleware - HMAC-signed cookie for anonymous visitor tracking.
// Cookie format: <anon_id>.<exp_unix>.<sig>
// Native clients may send the same signed value in X-Anon-ID instead.
func AnonID(secret string, ttl time.Duration, secureCookie bool) func(http.Handler) http.Handler {
	return anonID(secret, ttl, secureCookie, time.Now)
}

func anonID(secret string, ttl time.Duration, secureCookie bool, now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string

			if v := r.Header.Get(HeaderAnonID); v != "" {
				if got, ok := verifyAnonCookie(secret, v, now()); ok {
					id = got
				}
			}
			if id == "" {
				if c, err := r.Cookie(AnonCookieName); err == nil {
					if got, ok := verifyAnonCookie(secret, c.Value, now()); ok {
						id = got
					}
				}
			}

			if id == "" {
				id = uuid.NewString()
				exp := now().Add(ttl).Unix()
				val := signAnonCookie(secret, id, exp)

				http.SetCookie(w, &http.Cookie{
					Name:     AnonCookieName,
					Value:    val,
					Path:     "/",
					MaxAge:   int(ttl.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					Secure:   secureCookie,
				})
				w.Header().Set(HeaderAnonID, val)
			}

			next.ServeHTTP(w, r.WithContext(appCtx.WithAnonID(r.Context(), id)))
		})
	}
}

// signAnonCookie creates a signed cookie value
func signAnonCookie(secret, id string, exp int64) string {
	payload := fmt.Sprintf("%s.%d", id, exp)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return payload + "." + sig
}

// verifyAnonCookie validates a signed cookie value
func verifyAnonCookie(secret, cookie string, now time.Time) (string, bool) {
	parts := strings.SplitN(cookie, ".", 3)
	if len(parts) != 3 {
		return "", false
	}

	id, expStr := parts[0], parts[1]

	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return "", false
	}
	if now.Unix() > exp {
		return "", false
	}

	expected := signAnonCookie(secret, id, exp)
	if !hmac.Equal([]byte(cookie), []byte(expected)) {
		return "", false
	}
	return id, true
}
