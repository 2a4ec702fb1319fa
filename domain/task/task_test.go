package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsActive(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusOpen, true},
		{StatusInProgress, true},
		{StatusDone, false},
		{StatusCancelled, false},
		{Status("UNKNOWN"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, IsActive(tt.status))
			assert.Equal(t, tt.want, Task{Status: tt.status}.IsActive())
		})
	}
}

func TestActiveStatuses(t *testing.T) {
	assert.Equal(t, []Status{StatusOpen, StatusInProgress}, ActiveStatuses())
}

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses() {
		got, err := ParseStatus(" " + string(s) + " ")
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseStatus("")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParseStatus("open")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFilter_Contains(t *testing.T) {
	base := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	before := base.Add(-time.Minute)
	after := base.Add(time.Minute)

	tests := []struct {
		name   string
		filter Filter
		at     time.Time
		want   bool
	}{
		{"open ended", Filter{}, base, true},
		{"inclusive lower bound", Filter{From: &base}, base, true},
		{"inclusive upper bound", Filter{To: &base}, base, true},
		{"before lower bound", Filter{From: &base}, before, false},
		{"after upper bound", Filter{To: &base}, after, false},
		{"inside range", Filter{From: &before, To: &after}, base, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Contains(tt.at))
		})
	}
}
