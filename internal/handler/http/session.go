package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/BookReviewGo/internal/auth"
	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/internal/live"
	"github.com/utafrali/BookReviewGo/pkg/httputil"
	"github.com/utafrali/BookReviewGo/pkg/middleware"
)

// keepAliveInterval is a variable so tests can shorten it.
var keepAliveInterval = httputil.SSEKeepAlive

func sessionFrom(r *http.Request) domain.Session {
	return auth.SessionFromClaims(middleware.ClaimsFromContext(r.Context()))
}

// stream writes every snapshot of sub as an SSE event until the client goes
// away or the subscription ends. It owns sub.
func stream[T any](w http.ResponseWriter, r *http.Request, sub *live.Subscription[T], name string, logger *slog.Logger) {
	defer sub.Close()

	sse, err := httputil.NewSSEWriter(w)
	if err != nil {
		httputil.WriteError(w, r, err, logger)
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case v, ok := <-sub.C():
			if !ok {
				return
			}
			if err := sse.Event(name, v); err != nil {
				logger.DebugContext(r.Context(), "stream write failed", slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			if err := sse.KeepAlive(); err != nil {
				return
			}
		}
	}
}
