// Package derive turns raw bucket counts into reportable metrics.
// Every division is guarded: a zero denominator yields an explicit zero
// value, never NaN, and the metric row is still emitted so consumers
// can render "no data" instead of dropping it.
package derive

import (
	"math"

	"fleet-analytics-service/internal/model"
)

type Kind string

const (
	// KindShare is the percentage of one dimension's count over the
	// total count, one decimal.
	KindShare Kind = "share"
	// KindAverage divides a field's running sum by its sample count,
	// two decimals.
	KindAverage Kind = "average"
	// KindRate divides one field's sum by another's, two decimals.
	KindRate Kind = "rate"
)

// Spec names one metric to compute over a bucket set.
type Spec struct {
	Name      string
	Kind      Kind
	Dimension string // KindShare: the dimension counted as numerator
	Field     string // KindAverage: the averaged field; KindRate: numerator
	PerField  string // KindRate: denominator field
}

// Derive computes every spec against the buckets. Unknown kinds produce
// a zero metric rather than an error; metric specs are authored in
// code, not by callers.
func Derive(buckets []model.Bucket, specs []Spec) []model.DerivedMetric {
	metrics := make([]model.DerivedMetric, 0, len(specs))
	for _, spec := range specs {
		switch spec.Kind {
		case KindShare:
			metrics = append(metrics, share(buckets, spec))
		case KindAverage:
			metrics = append(metrics, average(buckets, spec))
		case KindRate:
			metrics = append(metrics, rate(buckets, spec))
		default:
			metrics = append(metrics, model.DerivedMetric{Name: spec.Name})
		}
	}
	return metrics
}

// Percentage is part over total as a percentage rounded to one decimal,
// defined as 0 when total is 0.
func Percentage(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return roundTo(float64(part)/float64(total)*100, 1)
}

func share(buckets []model.Bucket, spec Spec) model.DerivedMetric {
	var part, total int64
	for _, bucket := range buckets {
		total += bucket.Count
		if bucket.Dimension == spec.Dimension {
			part += bucket.Count
		}
	}
	return model.DerivedMetric{
		Name:        spec.Name,
		Value:       Percentage(part, total),
		SampleCount: total,
	}
}

func average(buckets []model.Bucket, spec Spec) model.DerivedMetric {
	var sum float64
	var samples int64
	for _, bucket := range buckets {
		sum += bucket.Sum(spec.Field)
		samples += bucket.SampleCount(spec.Field)
	}
	if samples == 0 {
		return model.DerivedMetric{Name: spec.Name}
	}
	return model.DerivedMetric{
		Name:        spec.Name,
		Value:       roundTo(sum/float64(samples), 2),
		SampleCount: samples,
	}
}

func rate(buckets []model.Bucket, spec Spec) model.DerivedMetric {
	var numerator, denominator float64
	var samples int64
	for _, bucket := range buckets {
		numerator += bucket.Sum(spec.Field)
		denominator += bucket.Sum(spec.PerField)
		samples += bucket.SampleCount(spec.Field)
	}
	if denominator == 0 {
		return model.DerivedMetric{Name: spec.Name, SampleCount: samples}
	}
	return model.DerivedMetric{
		Name:        spec.Name,
		Value:       roundTo(numerator/denominator, 2),
		SampleCount: samples,
	}
}

func roundTo(value float64, decimals int) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	shift := math.Pow10(decimals)
	return math.Round(value*shift) / shift
}
