package model

import (
	"time"

	"github.com/google/uuid"
)

type Dataset string

const (
	DatasetTrips  Dataset = "trips"
	DatasetLeaves Dataset = "leaves"
	DatasetTrucks Dataset = "trucks"
)

// Field keys populated by the record source.
const (
	FieldStatus        = "status"
	FieldType          = "type"
	FieldDestination   = "destination"
	FieldDepartureTime = "departure_time"
	FieldPeriode       = "periode"
	FieldBrand         = "brand"
)

// Value keys populated by the record source.
const (
	ValueDistance = "distance"
	ValueDuration = "duration"
	ValueFuel     = "fuel"
)

// Canonical trip statuses. Legacy rows use "failed" for cancellations;
// the record source maps those to TripStatusCanceled.
const (
	TripStatusInProgress = "in_progress"
	TripStatusDelayed    = "delayed"
	TripStatusCompleted  = "completed"
	TripStatusCanceled   = "canceled"
)

const (
	LeaveTypeVacation = "vacance"
	LeaveTypeSick     = "sick"
	LeaveTypeOther    = "autre"
)

const (
	LeaveStatusPending  = "pending"
	LeaveStatusApproved = "approved"
	LeaveStatusRejected = "rejected"
)

const (
	TruckStatusAvailable   = "available"
	TruckStatusInService   = "in_service"
	TruckStatusMaintenance = "maintenance"
)

func TripStatusUniverse() []string {
	return []string{TripStatusInProgress, TripStatusDelayed, TripStatusCanceled, TripStatusCompleted}
}

func LeaveTypeUniverse() []string {
	return []string{LeaveTypeVacation, LeaveTypeSick, LeaveTypeOther}
}

func TruckStatusUniverse() []string {
	return []string{TruckStatusAvailable, TruckStatusInService, TruckStatusMaintenance}
}

// Record is the engine's view of one trip or leave row. Fields carries
// categorical dimensions, Values numeric measures. The engine never
// mutates a record.
type Record struct {
	OccurredAt time.Time
	OwnerID    uuid.UUID
	Fields     map[string]string
	Values     map[string]float64
}

func (r Record) Field(key string) string {
	return r.Fields[key]
}

func (r Record) Value(key string) (float64, bool) {
	v, ok := r.Values[key]
	return v, ok
}
