package lifecycle

import "CampusSOS/internal/models"

// CanTransition implements the alert state machine:
//
//	active → in_progress
//	active | in_progress → resolved
//	active | in_progress → false_alarm
//
// A transition to the current status is a permitted no-op. Nothing
// leaves resolved or false_alarm.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	if models.TerminalStatus(from) {
		return false
	}
	switch to {
	case models.StatusInProgress:
		return from == models.StatusActive
	case models.StatusResolved, models.StatusFalseAlarm:
		return from == models.StatusActive || from == models.StatusInProgress
	}
	return false
}
