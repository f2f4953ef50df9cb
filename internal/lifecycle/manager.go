package lifecycle

import (
	"context"
	"sync"

	"CampusSOS/internal/feed"
	"CampusSOS/internal/models"
	"CampusSOS/internal/store"
	apperrors "CampusSOS/pkg/errors"
	"CampusSOS/pkg/logger"

	"go.uber.org/zap"
)

// SubmitRequest carries a panic activation. Latitude and longitude are
// pointers so a missing coordinate is distinguishable from 0,0.
type SubmitRequest struct {
	UserID      uint
	StudentID   string
	StudentName string
	Course      string
	Latitude    *float64
	Longitude   *float64
}

// Manager owns the authoritative local view of alerts for one connected
// client. Writes go to the store; the view converges through change-feed
// events, so every client — including the writer — runs the same
// reconciliation path.
type Manager struct {
	store store.AlertStore
	feed  feed.Feed
	limit int

	mu     sync.Mutex
	alerts []*models.Alert // newest first, unique ids
	index  map[uint]*models.Alert

	alertSub *feed.Subscription

	trackedID uint
	trail     []models.LocationUpdate
	trailSeen map[uint]bool
	trailSub  *feed.Subscription
}

func New(st store.AlertStore, fd feed.Feed, limit int) *Manager {
	if limit <= 0 {
		limit = 50
	}
	return &Manager{
		store:     st,
		feed:      fd,
		limit:     limit,
		index:     make(map[uint]*models.Alert),
		trailSeen: make(map[uint]bool),
	}
}

// Start opens the alerts subscription. Connection drops and
// re-subscription are the feed's concern; the manager only ever sees
// events.
func (m *Manager) Start() {
	m.alertSub = m.feed.Subscribe(feed.Filter{Table: feed.TableAlerts}, m.HandleEvent)
}

// Close releases every open subscription.
func (m *Manager) Close() {
	m.alertSub.Release()
	m.Untrack()
}

// Submit validates and creates a new alert. The returned alert is the
// store's authoritative instance, already inserted into the local view;
// the feed echo of the same id is deduplicated. Store failures are not
// retried here — retry policy belongs to the caller.
func (m *Manager) Submit(ctx context.Context, req SubmitRequest) (*models.Alert, error) {
	if req.StudentID == "" {
		return nil, apperrors.WithCode(apperrors.CodeValidation, "student id is required")
	}
	if req.StudentName == "" {
		return nil, apperrors.WithCode(apperrors.CodeValidation, "student name is required")
	}
	if req.Latitude == nil || req.Longitude == nil {
		return nil, apperrors.WithCode(apperrors.CodeValidation, "position is required")
	}

	alert := &models.Alert{
		UserID:      req.UserID,
		StudentID:   req.StudentID,
		StudentName: req.StudentName,
		Course:      req.Course,
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
	}
	if err := m.store.CreateAlert(ctx, alert); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.applyInsert(alert)
	m.mu.Unlock()

	snapshot := *alert
	return &snapshot, nil
}

// Transition validates a status change against the state machine before
// any store contact. A same-status transition succeeds without a store
// write. On an allowed transition the store is updated fire-and-forget:
// the local view changes only when the UPDATE event arrives.
func (m *Manager) Transition(ctx context.Context, alertID uint, target string, adminID uint) error {
	if !models.ValidStatus(target) {
		return apperrors.WithCodef(apperrors.CodeValidation, "unknown status %q", target)
	}

	current, err := m.currentStatus(ctx, alertID)
	if err != nil {
		return err
	}
	if current == target {
		return nil
	}
	if !CanTransition(current, target) {
		return apperrors.WithCodef(apperrors.CodeIllegalTransition,
			"cannot transition alert %d from %s to %s", alertID, current, target)
	}

	return m.store.UpdateAlertStatus(ctx, alertID, target, &adminID)
}

func (m *Manager) currentStatus(ctx context.Context, alertID uint) (string, error) {
	m.mu.Lock()
	local, ok := m.index[alertID]
	if ok {
		status := local.Status
		m.mu.Unlock()
		return status, nil
	}
	m.mu.Unlock()

	alert, err := m.store.GetAlert(ctx, alertID)
	if err != nil {
		return "", err
	}
	return alert.Status, nil
}

// HandleEvent is the reconciliation entry point. It is synchronous and
// atomic with respect to the local collection: replaying the same event
// is a no-op, and an UPDATE for an unknown id is discarded (a missed
// insert is recovered by the next full refresh, never guessed at).
func (m *Manager) HandleEvent(ev feed.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch ev.Table {
	case feed.TableAlerts:
		alert := ev.Alert()
		if alert == nil {
			return
		}
		switch ev.Type {
		case feed.Insert:
			m.applyInsert(alert)
		case feed.Update:
			m.applyUpdate(alert)
		}
	case feed.TableLocationUpdates:
		if ev.Type == feed.Insert {
			if loc := ev.Location(); loc != nil {
				m.applyLocation(loc)
			}
		}
	}
}

// applyInsert prepends the alert unless the id is already present —
// duplicate feed deliveries and the submitter's own optimistic insert
// both land here.
func (m *Manager) applyInsert(alert *models.Alert) {
	if _, exists := m.index[alert.ID]; exists {
		return
	}
	cp := *alert
	m.alerts = append([]*models.Alert{&cp}, m.alerts...)
	m.index[cp.ID] = &cp
}

// applyUpdate replaces the local entry wholesale with the incoming
// snapshot. A snapshot older than what we hold is discarded so a late
// event cannot regress visible state.
func (m *Manager) applyUpdate(alert *models.Alert) {
	existing, ok := m.index[alert.ID]
	if !ok {
		return
	}
	if alert.UpdatedAt.Before(existing.UpdatedAt) {
		logger.Debug("discarding stale alert snapshot",
			zap.Uint("alert_id", alert.ID),
			zap.Time("incoming", alert.UpdatedAt),
			zap.Time("held", existing.UpdatedAt))
		return
	}
	*existing = *alert
}

// applyLocation is the only path allowed to touch an alert's cached
// coordinates outside of a full snapshot replace.
func (m *Manager) applyLocation(loc *models.LocationUpdate) {
	if loc.AlertID != m.trackedID {
		return
	}
	if m.trailSeen[loc.ID] {
		return
	}
	m.trailSeen[loc.ID] = true
	m.trail = append(m.trail, *loc)

	if alert, ok := m.index[loc.AlertID]; ok {
		alert.Latitude = loc.Latitude
		alert.Longitude = loc.Longitude
	}
}

// Refresh replaces the whole collection with the store's current
// contents. This is the ground-truth resync covering missed, duplicated
// or dropped feed events, safe to call at any time.
func (m *Manager) Refresh(ctx context.Context) error {
	alerts, err := m.store.ListAlerts(ctx, m.limit)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = m.alerts[:0]
	m.index = make(map[uint]*models.Alert, len(alerts))
	for i := range alerts {
		cp := alerts[i]
		m.alerts = append(m.alerts, &cp)
		m.index[cp.ID] = &cp
	}
	return nil
}

// Track selects one alert for live location tracking: the previous
// subscription is always released first, history is backfilled from the
// store and subsequent samples arrive over the filtered feed channel.
func (m *Manager) Track(ctx context.Context, alertID uint) error {
	m.Untrack()

	history, err := m.store.LocationHistory(ctx, alertID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.trackedID = alertID
	m.trail = append([]models.LocationUpdate(nil), history...)
	m.trailSeen = make(map[uint]bool, len(history))
	for _, loc := range history {
		m.trailSeen[loc.ID] = true
	}
	m.mu.Unlock()

	m.trailSub = m.feed.Subscribe(feed.Filter{
		Table:   feed.TableLocationUpdates,
		Types:   []feed.EventType{feed.Insert},
		AlertID: alertID,
	}, m.HandleEvent)
	return nil
}

// Untrack releases the location subscription. Safe to call when nothing
// is tracked.
func (m *Manager) Untrack() {
	m.trailSub.Release()
	m.trailSub = nil

	m.mu.Lock()
	m.trackedID = 0
	m.trail = nil
	m.trailSeen = make(map[uint]bool)
	m.mu.Unlock()
}

// Alerts returns a copy of the ordered collection.
func (m *Manager) Alerts() []models.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Alert, 0, len(m.alerts))
	for _, a := range m.alerts {
		out = append(out, *a)
	}
	return out
}

// Get returns the local entry for id, if present.
func (m *Manager) Get(id uint) (models.Alert, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.index[id]; ok {
		return *a, true
	}
	return models.Alert{}, false
}

// Trail returns a copy of the tracked alert's movement trail.
func (m *Manager) Trail() []models.LocationUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.LocationUpdate(nil), m.trail...)
}

// TrackedID returns the id of the alert under live tracking, or 0.
func (m *Manager) TrackedID() uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trackedID
}
