package feed

import (
	"testing"

	"CampusSOS/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestBusSubscribeAndPublish(t *testing.T) {
	bus := NewBus()

	var got []Event
	sub := bus.Subscribe(Filter{Table: TableAlerts}, func(e Event) {
		got = append(got, e)
	})
	defer sub.Release()

	bus.Publish(Event{Type: Insert, Table: TableAlerts, New: &models.Alert{ID: 1}})
	bus.Publish(Event{Type: Insert, Table: TableLocationUpdates, New: &models.LocationUpdate{ID: 9, AlertID: 1}})

	assert.Len(t, got, 1)
	assert.Equal(t, Insert, got[0].Type)
	assert.Equal(t, uint(1), got[0].Alert().ID)
}

func TestBusEventTypeFilter(t *testing.T) {
	bus := NewBus()

	var updates int
	sub := bus.Subscribe(Filter{Table: TableAlerts, Types: []EventType{Update}}, func(e Event) {
		updates++
	})
	defer sub.Release()

	bus.Publish(Event{Type: Insert, Table: TableAlerts, New: &models.Alert{ID: 1}})
	bus.Publish(Event{Type: Update, Table: TableAlerts, New: &models.Alert{ID: 1}})

	assert.Equal(t, 1, updates)
}

func TestBusAlertIDPredicate(t *testing.T) {
	bus := NewBus()

	var got []Event
	sub := bus.Subscribe(Filter{Table: TableLocationUpdates, AlertID: 42}, func(e Event) {
		got = append(got, e)
	})
	defer sub.Release()

	bus.Publish(Event{Type: Insert, Table: TableLocationUpdates, New: &models.LocationUpdate{ID: 1, AlertID: 42}})
	bus.Publish(Event{Type: Insert, Table: TableLocationUpdates, New: &models.LocationUpdate{ID: 2, AlertID: 7}})

	assert.Len(t, got, 1)
	assert.Equal(t, uint(42), got[0].Location().AlertID)
}

func TestSubscriptionRelease(t *testing.T) {
	bus := NewBus()

	var delivered int
	sub := bus.Subscribe(Filter{Table: TableAlerts}, func(e Event) { delivered++ })

	bus.Publish(Event{Type: Insert, Table: TableAlerts, New: &models.Alert{ID: 1}})
	sub.Release()
	bus.Publish(Event{Type: Insert, Table: TableAlerts, New: &models.Alert{ID: 2}})

	assert.Equal(t, 1, delivered)
	assert.Equal(t, 0, bus.SubscriberCount())

	// Releasing twice must be harmless.
	sub.Release()
}

func TestReleaseFromInsideHandler(t *testing.T) {
	bus := NewBus()

	var sub *Subscription
	var delivered int
	sub = bus.Subscribe(Filter{Table: TableAlerts}, func(e Event) {
		delivered++
		sub.Release()
	})

	bus.Publish(Event{Type: Insert, Table: TableAlerts, New: &models.Alert{ID: 1}})
	bus.Publish(Event{Type: Insert, Table: TableAlerts, New: &models.Alert{ID: 2}})

	assert.Equal(t, 1, delivered)
}
