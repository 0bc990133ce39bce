package audit

import (
	"context"
	"time"

	"inmuebles-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"gorm.io/gorm"
)

const defaultTimeout = 5 * time.Second

// MaxList caps one List call.
const MaxList = 500

// Recorder appends audit events without blocking the caller. Write failures
// are logged and dropped; the primary operation has already committed.
type Recorder struct {
	DB      *gorm.DB
	Timeout time.Duration
	Now     func() time.Time

	wg conc.WaitGroup
}

// Record stores ev in the background. A nil Recorder or DB is a no-op.
func (r *Recorder) Record(ev domain.AuditEvent) {
	if r == nil || r.DB == nil {
		return
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = r.now()
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	r.wg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := r.DB.WithContext(ctx).Create(&ev).Error; err != nil {
			log.Error().Err(err).
				Str("accion", string(ev.Action)).
				Str("entidad_id", ev.EntityID.String()).
				Str("admin_uid", ev.AdminUID).
				Msg("audit: failed to record event")
		}
	})
}

// Wait blocks until every pending write has finished.
func (r *Recorder) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}

// List returns the newest events first, optionally for one entity.
func (r *Recorder) List(ctx context.Context, entityID string, limit int) ([]domain.AuditEvent, error) {
	if limit <= 0 || limit > MaxList {
		limit = MaxList
	}
	q := r.DB.WithContext(ctx).Order("creado_en DESC").Limit(limit)
	if entityID != "" {
		q = q.Where("entidad_id = ?", entityID)
	}
	var out []domain.AuditEvent
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Recorder) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}
