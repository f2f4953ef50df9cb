package lifecycle

import (
	"testing"

	"CampusSOS/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{models.StatusActive, models.StatusInProgress, true},
		{models.StatusActive, models.StatusResolved, true},
		{models.StatusActive, models.StatusFalseAlarm, true},
		{models.StatusInProgress, models.StatusResolved, true},
		{models.StatusInProgress, models.StatusFalseAlarm, true},

		{models.StatusInProgress, models.StatusActive, false},
		{models.StatusResolved, models.StatusActive, false},
		{models.StatusResolved, models.StatusInProgress, false},
		{models.StatusResolved, models.StatusFalseAlarm, false},
		{models.StatusFalseAlarm, models.StatusActive, false},
		{models.StatusFalseAlarm, models.StatusResolved, false},

		// Same-status transitions are permitted no-ops.
		{models.StatusActive, models.StatusActive, true},
		{models.StatusResolved, models.StatusResolved, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}
