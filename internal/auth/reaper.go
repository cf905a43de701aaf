package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"backoffice-api/internal/domain"
	"backoffice-api/internal/observability"
)

// DefaultRetireDelay is how long a superseded session pair stays alive
// after rotation. It must exceed the realistic in-flight request
// overlap window for the deployment; sibling requests fired before the
// client applied its new cookies still carry the old pair. This is a
// tunable liveness assumption, not a protocol invariant.
const DefaultRetireDelay = 15 * time.Second

// Reaper schedules best-effort, delayed deletion of retired sessions.
// Each retirement is an independent fire-and-forget timer: exactly one
// deletion attempt, no retry, no cancellation. A timer firing for a
// session that was separately deleted earlier simply finds nothing and
// no-ops.
type Reaper struct {
	delay time.Duration
}

func NewReaper(delay time.Duration) *Reaper {
	if delay <= 0 {
		delay = DefaultRetireDelay
	}
	return &Reaper{delay: delay}
}

// Delay returns the configured retirement delay.
func (r *Reaper) Delay() time.Duration {
	return r.delay
}

// ScheduleDelete arranges one deletion attempt after the retire delay.
// It never blocks the caller; the deletion runs off the request's
// critical path with its own timeout, detached from the request context.
func (r *Reaper) ScheduleDelete(store domain.SessionStore, id, kind string) {
	if id == "" {
		return
	}

	time.AfterFunc(r.delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := store.Delete(ctx, id)
		switch {
		case err == nil:
			observability.DeferredDeletionsTotal.WithLabelValues(kind, "deleted").Inc()
		case errors.Is(err, domain.ErrSessionNotFound):
			// Already gone, fine.
			observability.DeferredDeletionsTotal.WithLabelValues(kind, "already_gone").Inc()
		default:
			observability.DeferredDeletionsTotal.WithLabelValues(kind, "error").Inc()
			slog.Warn("deferred session deletion failed",
				slog.String("kind", kind),
				slog.String("session_id", id),
				slog.String("error", err.Error()),
			)
		}
	})
}
