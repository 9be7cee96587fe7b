package model

import "time"

type DrillLevel string

const (
	LevelYear  DrillLevel = "year"
	LevelMonth DrillLevel = "month"
	LevelDay   DrillLevel = "day"
)

// PeriodInterval is a half-open UTC time window [Start, End). The zero
// value means unbounded: no time filtering is applied.
type PeriodInterval struct {
	Start time.Time
	End   time.Time
}

func (i PeriodInterval) Unbounded() bool {
	return i.Start.IsZero() && i.End.IsZero()
}

func (i PeriodInterval) Contains(t time.Time) bool {
	if i.Unbounded() {
		return true
	}
	return !t.Before(i.Start) && t.Before(i.End)
}

// Bucket is the aggregate for one (period, dimension) pair. Sums holds
// running sums per numeric field; Samples the number of records that
// actually contributed to each sum, so averages can be derived without
// counting excluded values.
type Bucket struct {
	PeriodKey string             `json:"period"`
	Dimension string             `json:"dimension"`
	Count     int64              `json:"count"`
	Sums      map[string]float64 `json:"sums,omitempty"`
	Samples   map[string]int64   `json:"samples,omitempty"`
}

func (b Bucket) Sum(field string) float64 {
	return b.Sums[field]
}

func (b Bucket) SampleCount(field string) int64 {
	return b.Samples[field]
}

// DerivedMetric is a named value computed from buckets. SampleCount
// distinguishes "the average is zero" from "there was nothing to
// average".
type DerivedMetric struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	SampleCount int64   `json:"sample_count"`
}
