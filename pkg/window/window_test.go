package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		month     string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "mid-year month",
			month:     "2024-08",
			wantStart: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "december rolls into next year",
			month:     "2024-12",
			wantStart: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "leap february",
			month:     "2024-02",
			wantStart: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "non-leap february",
			month:     "2023-02",
			wantStart: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Resolve(tt.month)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, w.Start)
			assert.Equal(t, tt.wantEnd, w.End)
			assert.Equal(t, time.UTC, w.Start.Location())
		})
	}
}

func TestResolveWindowLengthMatchesCalendar(t *testing.T) {
	lengths := map[string]int{
		"2024-01": 31,
		"2024-02": 29,
		"2023-02": 28,
		"2024-04": 30,
		"2024-12": 31,
	}

	for month, days := range lengths {
		w, err := Resolve(month)
		require.NoError(t, err)
		assert.Equal(t, time.Duration(days)*24*time.Hour, w.End.Sub(w.Start),
			"window length for %s", month)
	}
}

func TestResolveInvalid(t *testing.T) {
	invalid := []string{
		"2024-13",
		"2024-00",
		"abc",
		"2024/08",
		"2024-8",
		"24-08",
		"2024-08-01",
		"",
	}

	for _, month := range invalid {
		_, err := Resolve(month)
		assert.Error(t, err, "expected %q to be rejected", month)
	}
}

func TestContains(t *testing.T) {
	w, err := Resolve("2024-08")
	require.NoError(t, err)

	assert.True(t, w.Contains(w.Start), "start is inclusive")
	assert.True(t, w.Contains(time.Date(2024, 8, 15, 12, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(w.End), "end is exclusive")
	assert.False(t, w.Contains(w.Start.Add(-time.Second)))
}
