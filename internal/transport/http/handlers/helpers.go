package handlers

import (
	"net/http"
	"strconv"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/discovery-service/internal/pkg/context"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/response"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/validate"
)

func actorFrom(r *http.Request) (profileID, anonID string) {
	return appCtx.GetProfileID(r.Context()), appCtx.GetAnonID(r.Context())
}

// decodeBody decodes and validates a JSON request body, writing the error
// response itself. It reports whether the handler should continue.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := validate.DecodeJSON(r, dst); err != nil {
		response.Err(w, r, domain.ErrValidationMeta("invalid json body", map[string]string{
			"body": "malformed JSON or invalid fields",
		}))
		return false
	}
	if err := validate.Struct(dst); err != nil {
		response.Err(w, r, err)
		return false
	}
	return true
}

// intParam reads an optional non-negative integer query parameter.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.ErrValidationMeta("invalid query param", map[string]string{
			name: "must be a non-negative integer",
		})
	}
	return n, nil
}
