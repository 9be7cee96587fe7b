package aggregate_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-analytics-service/internal/aggregate"
	"fleet-analytics-service/internal/model"
	"fleet-analytics-service/internal/period"
)

func tripRecord(owner uuid.UUID, at time.Time, status string) model.Record {
	return model.Record{
		OccurredAt: at,
		OwnerID:    owner,
		Fields:     map[string]string{model.FieldStatus: status},
	}
}

func mustInterval(t *testing.T, level model.DrillLevel, parent string) model.PeriodInterval {
	t.Helper()
	interval, err := period.Interval(level, parent)
	require.NoError(t, err)
	return interval
}

func TestRunGroupsByPeriodAndDimension(t *testing.T) {
	owner := uuid.New()
	march := time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)
	april := time.Date(2024, time.April, 2, 9, 0, 0, 0, time.UTC)

	records := []model.Record{
		tripRecord(owner, march, model.TripStatusCompleted),
		tripRecord(owner, march, model.TripStatusCompleted),
		tripRecord(owner, march.Add(time.Hour), model.TripStatusDelayed),
		tripRecord(owner, april, model.TripStatusCompleted),
	}

	buckets, err := aggregate.Run(records, model.Owners(owner),
		mustInterval(t, model.LevelMonth, "2024"), model.LevelMonth,
		aggregate.FieldDimension(model.FieldStatus), aggregate.Options{})
	require.NoError(t, err)

	require.Len(t, buckets, 3)
	assert.Equal(t, "2024-03", buckets[0].PeriodKey)
	assert.Equal(t, "2024-04", buckets[2].PeriodKey)
	assert.Equal(t, aggregate.Total(buckets), int64(len(records)))
}

func TestRunEmptyScopeShortCircuits(t *testing.T) {
	records := []model.Record{
		tripRecord(uuid.New(), time.Now().UTC(), model.TripStatusCompleted),
	}

	buckets, err := aggregate.Run(records, model.OwnerSet{},
		model.PeriodInterval{}, model.LevelYear,
		aggregate.FieldDimension(model.FieldStatus), aggregate.Options{})
	require.NoError(t, err)
	assert.Empty(t, buckets)
}

func TestRunFiltersByOwnerAndInterval(t *testing.T) {
	visible, hidden := uuid.New(), uuid.New()
	inRange := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	outOfRange := time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC)

	records := []model.Record{
		tripRecord(visible, inRange, model.TripStatusCompleted),
		tripRecord(hidden, inRange, model.TripStatusCompleted),
		tripRecord(visible, outOfRange, model.TripStatusCompleted),
	}

	buckets, err := aggregate.Run(records, model.Owners(visible),
		mustInterval(t, model.LevelMonth, "2024"), model.LevelMonth,
		aggregate.FieldDimension(model.FieldStatus), aggregate.Options{})
	require.NoError(t, err)

	assert.Equal(t, int64(1), aggregate.Total(buckets))
}

// Manager with two drivers, one with trips in March 2024 and one idle:
// the March bucket carries all four statuses, zero-filled, and months
// without trips produce no buckets at all.
func TestRunZeroFillsUniverseOnlyForPresentPeriods(t *testing.T) {
	driverA, driverB := uuid.New(), uuid.New()
	march := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)

	records := []model.Record{
		tripRecord(driverA, march, model.TripStatusCompleted),
		tripRecord(driverA, march, model.TripStatusCompleted),
		tripRecord(driverA, march, model.TripStatusCompleted),
		tripRecord(driverA, march, model.TripStatusDelayed),
	}

	buckets, err := aggregate.Run(records, model.Owners(driverA, driverB),
		mustInterval(t, model.LevelMonth, "2024"), model.LevelMonth,
		aggregate.FieldDimension(model.FieldStatus),
		aggregate.Options{DimensionUniverse: model.TripStatusUniverse()})
	require.NoError(t, err)

	require.Len(t, buckets, len(model.TripStatusUniverse()))
	counts := make(map[string]int64)
	for _, bucket := range buckets {
		assert.Equal(t, "2024-03", bucket.PeriodKey)
		counts[bucket.Dimension] = bucket.Count
	}
	assert.Equal(t, int64(3), counts[model.TripStatusCompleted])
	assert.Equal(t, int64(1), counts[model.TripStatusDelayed])
	assert.Equal(t, int64(0), counts[model.TripStatusCanceled])
	assert.Equal(t, int64(0), counts[model.TripStatusInProgress])
}

func TestRunOrderingIsDeterministic(t *testing.T) {
	owner := uuid.New()
	at := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	records := []model.Record{
		tripRecord(owner, at, model.TripStatusCompleted),
		tripRecord(owner, at, "unknown_status"),
		tripRecord(owner, at, model.TripStatusInProgress),
	}

	run := func() []model.Bucket {
		buckets, err := aggregate.Run(records, model.Owners(owner),
			mustInterval(t, model.LevelMonth, "2024"), model.LevelMonth,
			aggregate.FieldDimension(model.FieldStatus),
			aggregate.Options{DimensionUniverse: model.TripStatusUniverse()})
		require.NoError(t, err)
		return buckets
	}

	first := run()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, run())
	}

	// Universe order first, unknown values last.
	dims := make([]string, 0, len(first))
	for _, bucket := range first {
		dims = append(dims, bucket.Dimension)
	}
	assert.Equal(t, append(model.TripStatusUniverse(), "unknown_status"), dims)
}

func TestRunSumFieldsAreRunningSumPlusCount(t *testing.T) {
	owner := uuid.New()
	at := time.Date(2024, time.February, 2, 0, 0, 0, 0, time.UTC)

	records := []model.Record{
		{OccurredAt: at, OwnerID: owner, Fields: map[string]string{model.FieldStatus: model.TripStatusCompleted}, Values: map[string]float64{model.ValueDistance: 120.5}},
		{OccurredAt: at, OwnerID: owner, Fields: map[string]string{model.FieldStatus: model.TripStatusCompleted}, Values: map[string]float64{model.ValueDistance: 79.5}},
		// No distance reading at all: excluded from samples.
		{OccurredAt: at, OwnerID: owner, Fields: map[string]string{model.FieldStatus: model.TripStatusCompleted}},
	}

	buckets, err := aggregate.Run(records, model.Owners(owner),
		mustInterval(t, model.LevelYear, "2024"), model.LevelYear,
		aggregate.FieldDimension(model.FieldStatus),
		aggregate.Options{SumFields: []string{model.ValueDistance}})
	require.NoError(t, err)

	require.Len(t, buckets, 1)
	assert.Equal(t, int64(3), buckets[0].Count)
	assert.InDelta(t, 200.0, buckets[0].Sum(model.ValueDistance), 1e-9)
	assert.Equal(t, int64(2), buckets[0].SampleCount(model.ValueDistance))
}

func TestRunClockFieldExcludesMalformedButKeepsCount(t *testing.T) {
	owner := uuid.New()
	at := time.Date(2024, time.May, 3, 0, 0, 0, 0, time.UTC)

	mk := func(departure string) model.Record {
		return model.Record{
			OccurredAt: at,
			OwnerID:    owner,
			Fields: map[string]string{
				model.FieldStatus:        model.TripStatusCompleted,
				model.FieldDepartureTime: departure,
			},
		}
	}

	records := []model.Record{mk("08:30"), mk("09:30"), mk("not-a-time"), mk("")}

	buckets, err := aggregate.Run(records, model.Owners(owner),
		mustInterval(t, model.LevelYear, "2024"), model.LevelYear,
		aggregate.FieldDimension(model.FieldStatus),
		aggregate.Options{ClockFields: []string{model.FieldDepartureTime}})
	require.NoError(t, err)

	require.Len(t, buckets, 1)
	assert.Equal(t, int64(4), buckets[0].Count, "malformed times still count as trips")
	assert.Equal(t, int64(2), buckets[0].SampleCount(model.FieldDepartureTime))
	assert.InDelta(t, 18.0, buckets[0].Sum(model.FieldDepartureTime), 1e-9)
}

func TestRunRejectsUnknownLevel(t *testing.T) {
	_, err := aggregate.Run(nil, model.AllOwners(), model.PeriodInterval{},
		model.DrillLevel("hour"), aggregate.FieldDimension(model.FieldStatus), aggregate.Options{})
	assert.ErrorIs(t, err, period.ErrInvalidLevel)
}

func TestDistribution(t *testing.T) {
	owner, other := uuid.New(), uuid.New()
	at := time.Now().UTC()

	records := []model.Record{
		tripRecord(owner, at, model.TripStatusCompleted),
		tripRecord(owner, at, model.TripStatusCompleted),
		tripRecord(owner, at, model.TripStatusDelayed),
		tripRecord(other, at, model.TripStatusCanceled),
	}

	entries := aggregate.Distribution(records, model.Owners(owner), aggregate.FieldDimension(model.FieldStatus))

	assert.Equal(t, []model.DistributionEntry{
		{Dimension: model.TripStatusCompleted, Count: 2},
		{Dimension: model.TripStatusDelayed, Count: 1},
	}, entries)

	assert.Empty(t, aggregate.Distribution(records, model.OwnerSet{}, aggregate.FieldDimension(model.FieldStatus)))
}
