package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engine/internal/domain"
)

func TestAggregateWeekly_SumsSundayAlignedWeeks(t *testing.T) {
	samples := []domain.DailyCount{
		{Date: date(t, "2024-03-03"), Count: 2},
		{Date: date(t, "2024-03-05"), Count: 3},
		{Date: date(t, "2024-03-10"), Count: 5},
	}

	got := AggregateWeekly(samples)

	require.Len(t, got, 2)
	assert.Equal(t, "2024-03-03", got[0].WeekStart.Format(domain.DateLayout))
	assert.EqualValues(t, 5, got[0].Count)
	assert.Equal(t, "2024-03-10", got[1].WeekStart.Format(domain.DateLayout))
	assert.EqualValues(t, 5, got[1].Count)
}

func TestAggregateWeekly_UnorderedInputSkipsEmptyWeeks(t *testing.T) {
	samples := []domain.DailyCount{
		{Date: date(t, "2024-03-23"), Count: 1},
		{Date: date(t, "2024-03-02"), Count: 4},
		{Date: date(t, "2024-03-17"), Count: 2},
	}

	got := AggregateWeekly(samples)

	require.Len(t, got, 2)
	assert.Equal(t, "2024-02-25", got[0].WeekStart.Format(domain.DateLayout))
	assert.EqualValues(t, 4, got[0].Count)
	assert.Equal(t, "2024-03-17", got[1].WeekStart.Format(domain.DateLayout))
	assert.EqualValues(t, 3, got[1].Count)
}

func TestAggregateWeekly_Empty(t *testing.T) {
	got := AggregateWeekly(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAggregateWeekly_Deterministic(t *testing.T) {
	samples := []domain.DailyCount{
		{Date: date(t, "2024-12-31"), Count: 1},
		{Date: date(t, "2025-01-04"), Count: 1},
		{Date: date(t, "2024-12-29"), Count: 1},
	}
	first := AggregateWeekly(samples)
	assert.Equal(t, first, AggregateWeekly(samples))
	require.Len(t, first, 1)
	assert.Equal(t, "2024-12-29", first[0].WeekStart.Format(domain.DateLayout))
	assert.EqualValues(t, 3, first[0].Count)
}

func TestWeekStart(t *testing.T) {
	assert.Equal(t, "2024-03-03", WeekStart(date(t, "2024-03-03")).Format(domain.DateLayout))
	assert.Equal(t, "2024-03-03", WeekStart(date(t, "2024-03-09")).Format(domain.DateLayout))
	assert.Equal(t, "2024-03-10", WeekStart(date(t, "2024-03-10")).Format(domain.DateLayout))
}
