package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriod(t *testing.T) {
	p, err := ParsePeriod("2025-01")
	require.NoError(t, err)
	assert.Equal(t, Period{Year: 2025, Month: time.January}, p)
	assert.Equal(t, "2025-01", p.String())
	assert.Equal(t, "2024-12", p.Previous().String())
	assert.Equal(t, "2025-02", p.Next().String())
	assert.Equal(t, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), p.End())

	_, err = ParsePeriod("2025-13")
	assert.Error(t, err)
	_, err = ParsePeriod("january")
	assert.Error(t, err)

	assert.True(t, Period{}.IsZero())

	// offsets are normalised to UTC before the month is taken
	beirut := time.FixedZone("EET", 2*60*60)
	assert.Equal(t, "2025-01", PeriodOf(time.Date(2025, time.February, 1, 1, 0, 0, 0, beirut)).String())
}

func TestWindow_Contains(t *testing.T) {
	w := Period{Year: 2025, Month: time.March}.Window()
	assert.True(t, w.Contains(w.Start))
	assert.False(t, w.Contains(w.End))
	assert.False(t, w.Contains(w.Start.Add(-time.Nanosecond)))
	assert.True(t, AllTime.Contains(time.Time{}))
	assert.True(t, Window{Start: w.Start}.Contains(w.End.AddDate(10, 0, 0)))
}
