package feed

import (
	"sync"

	"CampusSOS/internal/models"
)

type EventType string

const (
	Insert EventType = "INSERT"
	Update EventType = "UPDATE"
	Delete EventType = "DELETE"
)

const (
	TableAlerts          = "alerts"
	TableLocationUpdates = "location_updates"
)

// Event is one row-level change pushed to subscribers. Delivery is
// at-least-once and ordering across rows is not guaranteed.
type Event struct {
	Type  EventType   `json:"eventType"`
	Table string      `json:"table"`
	New   interface{} `json:"new,omitempty"`
	Old   interface{} `json:"old,omitempty"`
}

// Alert returns the new row snapshot as an alert, or nil.
func (e Event) Alert() *models.Alert {
	switch v := e.New.(type) {
	case *models.Alert:
		return v
	case models.Alert:
		return &v
	}
	return nil
}

// Location returns the new row snapshot as a location update, or nil.
func (e Event) Location() *models.LocationUpdate {
	switch v := e.New.(type) {
	case *models.LocationUpdate:
		return v
	case models.LocationUpdate:
		return &v
	}
	return nil
}

// Filter restricts a subscription to one table, optionally to specific
// event types and, for location updates, to one alert id.
type Filter struct {
	Table   string
	Types   []EventType // empty means every type
	AlertID uint        // 0 means no column predicate
}

func (f Filter) matches(e Event) bool {
	if f.Table != "" && f.Table != e.Table {
		return false
	}
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if t == e.Type {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.AlertID != 0 {
		switch e.Table {
		case TableLocationUpdates:
			loc := e.Location()
			if loc == nil || loc.AlertID != f.AlertID {
				return false
			}
		case TableAlerts:
			alert := e.Alert()
			if alert == nil || alert.ID != f.AlertID {
				return false
			}
		}
	}
	return true
}

type Handler func(Event)

// Feed is the subscription side of the change feed. Each Subscribe call
// opens one logical channel; the returned handle must be released when
// interest ends.
type Feed interface {
	Subscribe(f Filter, h Handler) *Subscription
}

// Publisher is the store-facing side of the change feed.
type Publisher interface {
	Publish(e Event)
}

// Subscription is a scoped handle on an open channel. Release is
// idempotent and safe on every exit path.
type Subscription struct {
	once    sync.Once
	release func()
}

func (s *Subscription) Release() {
	if s == nil {
		return
	}
	s.once.Do(s.release)
}
