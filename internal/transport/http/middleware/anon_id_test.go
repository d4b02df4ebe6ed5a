package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appCtx "github.com/baechuer/real-time-ressys/services/discovery-service/internal/pkg/context"
)

func captureAnon(got *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = appCtx.GetAnonID(r.Context())
	})
}

func TestAnonID(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	mw := anonID("secret", 24*time.Hour, true, clock)

	t.Run("mints_signed_cookie", func(t *testing.T) {
		var got string
		rr := httptest.NewRecorder()
		mw(captureAnon(&got)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, got)
		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		assert.Equal(t, AnonCookieName, c.Name)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.True(t, strings.HasPrefix(c.Value, got+"."))
		assert.Equal(t, c.Value, rr.Header().Get(HeaderAnonID))
	})

	t.Run("reuses_valid_cookie", func(t *testing.T) {
		val := signAnonCookie("secret", "anon-1", now.Add(time.Hour).Unix())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: val})

		var got string
		rr := httptest.NewRecorder()
		mw(captureAnon(&got)).ServeHTTP(rr, req)
		assert.Equal(t, "anon-1", got)
		assert.Empty(t, rr.Result().Cookies())
	})

	t.Run("accepts_header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderAnonID, signAnonCookie("secret", "anon-2", now.Add(time.Hour).Unix()))

		var got string
		mw(captureAnon(&got)).ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "anon-2", got)
	})

	t.Run("replaces_tampered_or_expired", func(t *testing.T) {
		valid := signAnonCookie("secret", "anon-1", now.Add(time.Hour).Unix())
		cases := map[string]string{
			"tampered_id":  strings.Replace(valid, "anon-1", "anon-9", 1),
			"other_secret": signAnonCookie("other", "anon-1", now.Add(time.Hour).Unix()),
			"expired":      signAnonCookie("secret", "anon-1", now.Add(-time.Second).Unix()),
			"garbage":      "nope",
		}
		for name, v := range cases {
			t.Run(name, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: v})

				var got string
				rr := httptest.NewRecorder()
				mw(captureAnon(&got)).ServeHTTP(rr, req)
				assert.NotEqual(t, "anon-1", got)
				assert.NotEmpty(t, got)
				assert.Len(t, rr.Result().Cookies(), 1)
			})
		}
	})
}
