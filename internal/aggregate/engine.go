// Package aggregate counts records into (period, dimension) buckets.
// It is pure and synchronous: one invocation owns its buckets and
// nothing is cached between calls.
package aggregate

import (
	"sort"
	"strconv"
	"strings"

	"fleet-analytics-service/internal/model"
	"fleet-analytics-service/internal/period"
)

// DimensionFunc extracts the categorical sub-grouping value from a
// record. Records without the dimension map to the empty string.
type DimensionFunc func(model.Record) string

// FieldDimension extracts a named categorical field.
func FieldDimension(key string) DimensionFunc {
	return func(r model.Record) string {
		return r.Field(key)
	}
}

// Options tunes one aggregation run.
//
// DimensionUniverse declares the known dimension values: every period
// that has at least one record gets a bucket for each of them, zero
// counted, in exactly this order. Values observed outside the universe
// are still reported, after it, in lexical order. Periods without any
// record are omitted entirely.
//
// SumFields accumulate numeric record values as running sum plus sample
// count pairs. ClockFields do the same for "HH:MM" strings, summing
// fractional hours; malformed or missing values are excluded from the
// samples but the record still counts.
type Options struct {
	DimensionUniverse []string
	SumFields         []string
	ClockFields       []string
}

type accumulator struct {
	count   int64
	sums    map[string]float64
	samples map[string]int64
}

// Run filters records by owner set and interval, then groups the
// survivors by (bucket key, dimension).
//
// An empty owner set short-circuits to an empty result before touching
// the records: rows present in the input but outside the caller's
// authority must never leak into counts.
func Run(records []model.Record, owners model.OwnerSet, interval model.PeriodInterval, level model.DrillLevel, dimension DimensionFunc, opts Options) ([]model.Bucket, error) {
	if err := period.ValidateLevel(level); err != nil {
		return nil, err
	}
	if owners.IsEmpty() {
		return []model.Bucket{}, nil
	}

	type groupKey struct {
		periodKey string
		dimension string
	}
	groups := make(map[groupKey]*accumulator)
	periodsSeen := make(map[string]struct{})

	for _, record := range records {
		if !owners.Contains(record.OwnerID) {
			continue
		}
		if !interval.Contains(record.OccurredAt) {
			continue
		}

		periodKey, err := period.BucketKey(level, record.OccurredAt)
		if err != nil {
			return nil, err
		}
		key := groupKey{periodKey: periodKey, dimension: dimension(record)}

		acc, ok := groups[key]
		if !ok {
			acc = newAccumulator(opts)
			groups[key] = acc
			periodsSeen[periodKey] = struct{}{}
		}
		acc.count++
		accumulate(acc, record, opts)
	}

	// Zero-fill the declared universe for every period that has data.
	for periodKey := range periodsSeen {
		for _, dim := range opts.DimensionUniverse {
			key := groupKey{periodKey: periodKey, dimension: dim}
			if _, ok := groups[key]; !ok {
				groups[key] = newAccumulator(opts)
			}
		}
	}

	buckets := make([]model.Bucket, 0, len(groups))
	for key, acc := range groups {
		buckets = append(buckets, model.Bucket{
			PeriodKey: key.periodKey,
			Dimension: key.dimension,
			Count:     acc.count,
			Sums:      acc.sums,
			Samples:   acc.samples,
		})
	}

	rank := dimensionRank(opts.DimensionUniverse)
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].PeriodKey != buckets[j].PeriodKey {
			return buckets[i].PeriodKey < buckets[j].PeriodKey
		}
		return lessDimension(rank, buckets[i].Dimension, buckets[j].Dimension)
	})

	return buckets, nil
}

// Distribution counts records per dimension value with no period axis,
// sorted by dimension.
func Distribution(records []model.Record, owners model.OwnerSet, dimension DimensionFunc) []model.DistributionEntry {
	if owners.IsEmpty() {
		return []model.DistributionEntry{}
	}

	counts := make(map[string]int64)
	for _, record := range records {
		if !owners.Contains(record.OwnerID) {
			continue
		}
		counts[dimension(record)]++
	}

	entries := make([]model.DistributionEntry, 0, len(counts))
	for dim, count := range counts {
		entries = append(entries, model.DistributionEntry{Dimension: dim, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Dimension < entries[j].Dimension
	})
	return entries
}

// Total sums the counts of a bucket set.
func Total(buckets []model.Bucket) int64 {
	var total int64
	for _, bucket := range buckets {
		total += bucket.Count
	}
	return total
}

func newAccumulator(opts Options) *accumulator {
	acc := &accumulator{}
	if len(opts.SumFields)+len(opts.ClockFields) > 0 {
		acc.sums = make(map[string]float64)
		acc.samples = make(map[string]int64)
	}
	return acc
}

func accumulate(acc *accumulator, record model.Record, opts Options) {
	for _, field := range opts.SumFields {
		if v, ok := record.Value(field); ok {
			acc.sums[field] += v
			acc.samples[field]++
		}
	}
	for _, field := range opts.ClockFields {
		if hour, ok := parseClockHour(record.Field(field)); ok {
			acc.sums[field] += hour
			acc.samples[field]++
		}
	}
}

// parseClockHour turns "HH:MM" into a fractional hour. Anything that is
// not a well-formed clock time is rejected so it can be excluded from
// averages instead of being coerced to zero.
func parseClockHour(raw string) (float64, bool) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return float64(hour) + float64(minute)/60, true
}

func dimensionRank(universe []string) map[string]int {
	rank := make(map[string]int, len(universe))
	for i, dim := range universe {
		rank[dim] = i
	}
	return rank
}

func lessDimension(rank map[string]int, a, b string) bool {
	ra, aKnown := rank[a]
	rb, bKnown := rank[b]
	switch {
	case aKnown && bKnown:
		return ra < rb
	case aKnown:
		return true
	case bKnown:
		return false
	default:
		return a < b
	}
}
