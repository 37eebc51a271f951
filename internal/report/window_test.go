package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock(t *testing.T, instant time.Time) *Clock {
	t.Helper()
	clock, err := NewClockAt(DefaultTimezone, func() time.Time { return instant })
	require.NoError(t, err)
	return clock
}

func TestWindowConvertsLocalMidnightToUTC(t *testing.T) {
	clock, err := NewClock(DefaultTimezone)
	require.NoError(t, err)

	// Lubumbashi is UTC+2 year round.
	start, end := clock.Window(NewDate(2026, time.March, 15))
	require.Equal(t, time.Date(2026, time.March, 14, 22, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2026, time.March, 15, 22, 0, 0, 0, time.UTC), end)
}

func TestWindowIsHalfOpen(t *testing.T) {
	clock, err := NewClock(DefaultTimezone)
	require.NoError(t, err)

	day := NewDate(2026, time.March, 15)
	_, end := clock.Window(day)
	nextStart, _ := clock.Window(day.Next())
	require.True(t, end.Equal(nextStart))
}

func TestTodayAcrossUTCMidnight(t *testing.T) {
	// 23:30 UTC on March 14 is already 01:30 on March 15 locally.
	clock := fixedClock(t, time.Date(2026, time.March, 14, 23, 30, 0, 0, time.UTC))

	require.Equal(t, NewDate(2026, time.March, 15), clock.Today())
	require.Equal(t, NewDate(2026, time.March, 14), clock.Yesterday())
	require.True(t, clock.IsToday(NewDate(2026, time.March, 15)))
	require.False(t, clock.IsToday(NewDate(2026, time.March, 14)))
}

func TestNewClockRejectsUnknownZone(t *testing.T) {
	_, err := NewClock("Mars/Olympus_Mons")
	require.Error(t, err)
}

func TestDateArithmetic(t *testing.T) {
	d, err := ParseDate("2026-03-01")
	require.NoError(t, err)
	require.Equal(t, NewDate(2026, time.February, 28), d.Prev())
	require.Equal(t, NewDate(2026, time.March, 2), d.Next())
	require.Equal(t, "2026-03-01", d.String())

	_, err = ParseDate("01/03/2026")
	require.Error(t, err)
}
