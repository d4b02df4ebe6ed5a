package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	zlog "github.com/rs/zerolog/log"

	appCtx "github.com/baechuer/real-time-ressys/services/discovery-service/internal/pkg/context"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/response"
)

type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	secret []byte
	issuer string
}

func NewAuth(secret, issuer string) *AuthMiddleware {
	return &AuthMiddleware{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Identify attaches the profile id of a valid bearer token. Requests without
// a token pass through anonymously; a bad token is rejected.
func (a *AuthMiddleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := strings.TrimSpace(r.Header.Get("Authorization"))
		if h == "" {
			next.ServeHTTP(w, r)
			return
		}
		uid, err := a.parse(h)
		if err != nil {
			zlog.Debug().Err(err).Str("request_id", appCtx.GetRequestID(r.Context())).Msg("auth parse error")
			response.Fail(
				w,
				http.StatusUnauthorized,
				"unauthenticated",
				"invalid token",
				map[string]string{"reason": err.Error()},
				response.RequestIDFromRequest(r),
			)
			return
		}
		next.ServeHTTP(w, r.WithContext(appCtx.WithProfileID(r.Context(), uid)))
	})
}

// Require rejects requests that Identify did not attach a profile to.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if appCtx.GetProfileID(r.Context()) == "" {
			response.Fail(
				w,
				http.StatusUnauthorized,
				"unauthenticated",
				"login required",
				nil,
				response.RequestIDFromRequest(r),
			)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *AuthMiddleware) parse(h string) (string, error) {
	if !strings.HasPrefix(h, "Bearer ") {
		return "", errors.New("missing bearer token")
	}
	raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil {
		return "", err
	}
	if !tok.Valid {
		return "", errors.New("invalid token")
	}

	if a.issuer != "" && claims.Issuer != a.issuer {
		return "", errors.New("invalid issuer")
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return "", errors.New("missing uid")
	}
	return claims.UserID, nil
}
