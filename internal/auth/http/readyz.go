package http

import (
	"context"
	"net/http"
	"time"

	"github.com/bni/bni/internal/auth/blob"
	"github.com/bni/bni/pkg/authsdk"
	"github.com/bni/bni/pkg/httpx"
	"github.com/bni/bni/pkg/jwtx"
)

// Pinger is satisfied by the store.
type Pinger interface {
	Ping(ctx context.Context) error
}

const readyTimeout = 2 * time.Second

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, and status of the database, token signer, and file storage
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	db Pinger,
	codec *jwtx.Codec,
	storage blob.Storage,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := &authsdk.HealthChecks{
			Database: "ok",
			Signer:   "ok",
			Storage:  "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK
		degrade := func() {
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if err := db.Ping(ctx); err != nil {
			checks.Database = "error: " + err.Error()
			degrade()
		}

		if !codec.Ready() {
			checks.Signer = "error: no signing key"
			degrade()
		}

		if storage == nil {
			checks.Storage = "error: not configured"
			degrade()
		} else if err := storage.Ping(ctx); err != nil {
			checks.Storage = "error: " + err.Error()
			degrade()
		}

		httpx.WriteJSON(w, statusCode, authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
