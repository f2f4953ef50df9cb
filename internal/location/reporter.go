package location

import (
	"context"
	"sync"
	"time"

	"CampusSOS/internal/models"
	"CampusSOS/pkg/logger"
	"CampusSOS/pkg/scheduler"

	"go.uber.org/zap"
)

// AlertState is the slice of the lifecycle manager the reporter needs:
// the current local view of one alert.
type AlertState interface {
	Get(id uint) (models.Alert, bool)
}

// Recorder persists one position sample. The server-side store satisfies
// it directly; a device runs it over the HTTP API instead.
type Recorder interface {
	AddLocationUpdate(ctx context.Context, alertID uint, lat, lon float64) error
}

// Reporter samples the device position on a fixed interval while its
// alert stays active and reports each sample through the store. A failed
// report is logged and skipped — at most one report per tick, never a
// retry before the next tick.
type Reporter struct {
	store    Recorder
	source   Source
	state    AlertState
	interval time.Duration

	mu    sync.Mutex
	sched *scheduler.Scheduler
}

func NewReporter(st Recorder, src Source, state AlertState, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Reporter{store: st, source: src, state: state, interval: interval}
}

// Start begins the sampling loop for one alert. Starting again replaces
// the previous loop.
func (r *Reporter) Start(alertID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sched != nil {
		r.sched.Stop()
	}
	r.sched = scheduler.New()
	r.sched.Every(r.interval, scheduler.FuncJob(func(ctx context.Context) {
		r.tick(ctx, alertID)
	}))
	logger.Info("location reporting started",
		zap.Uint("alert_id", alertID), zap.Duration("interval", r.interval))
}

// Stop halts the sampling loop. Safe to call repeatedly.
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sched != nil {
		r.sched.Stop()
		r.sched = nil
	}
}

func (r *Reporter) tick(ctx context.Context, alertID uint) {
	if alert, ok := r.state.Get(alertID); ok && alert.Status != models.StatusActive {
		logger.Info("alert left active status, stopping location reporting",
			zap.Uint("alert_id", alertID), zap.String("status", alert.Status))
		r.Stop()
		return
	}

	pos, err := r.source.Current(ctx)
	if err != nil {
		logger.Warn("position sample failed, skipping tick",
			zap.Uint("alert_id", alertID), zap.Error(err))
		return
	}
	if pos.Approximate {
		logger.Warn("reporting degraded-accuracy position",
			zap.Uint("alert_id", alertID))
	}

	if err := r.store.AddLocationUpdate(ctx, alertID, pos.Latitude, pos.Longitude); err != nil {
		logger.Warn("location report failed, skipping tick",
			zap.Uint("alert_id", alertID), zap.Error(err))
	}
}
