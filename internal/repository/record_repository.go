package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleet-analytics-service/internal/model"
)

// RecordRepository loads trip and leave rows as generic time-series
// records for the aggregation engine. Owner and interval filters are
// pushed down when possible, but the engine re-applies both, so raw
// input is equally acceptable.
type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) FindRecords(ctx context.Context, dataset model.Dataset, owners model.OwnerSet, interval model.PeriodInterval) ([]model.Record, error) {
	if owners.IsEmpty() {
		return []model.Record{}, nil
	}

	switch dataset {
	case model.DatasetTrips:
		return r.findTripRecords(ctx, owners, interval)
	case model.DatasetLeaves:
		return r.findLeaveRecords(ctx, owners, interval)
	case model.DatasetTrucks:
		return r.findTruckRecords(ctx, interval)
	default:
		return nil, fmt.Errorf("unknown dataset %q", dataset)
	}
}

func (r *RecordRepository) findTripRecords(ctx context.Context, owners model.OwnerSet, interval model.PeriodInterval) ([]model.Record, error) {
	type row struct {
		CreatedAt       time.Time
		DriverID        uuid.UUID
		Status          string
		DepartureTime   string
		DestinationName string
		DistanceM       float64
		DurationS       float64
		FuelPer100km    *float64
	}
	var rows []row

	query := r.db.WithContext(ctx).
		Table("trips tr").
		Select(`tr.created_at,
			tr.driver_id,
			tr.status,
			tr.departure_time,
			tr.destination_name,
			tr.distance_m,
			tr.duration_s,
			tk.fuel_per_100km`).
		Joins("LEFT JOIN trucks tk ON tk.id = tr.truck_id")

	query = applyOwnerFilter(query, "tr.driver_id", owners)
	query = applyIntervalFilter(query, "tr.created_at", interval)

	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		distanceKm := row.DistanceM / 1000
		values := map[string]float64{
			model.ValueDistance: distanceKm,
			model.ValueDuration: row.DurationS,
		}
		if row.FuelPer100km != nil {
			values[model.ValueFuel] = distanceKm * *row.FuelPer100km / 100
		}
		records = append(records, model.Record{
			OccurredAt: row.CreatedAt,
			OwnerID:    row.DriverID,
			Fields: map[string]string{
				model.FieldStatus:        canonicalTripStatus(row.Status),
				model.FieldDestination:   row.DestinationName,
				model.FieldDepartureTime: row.DepartureTime,
			},
			Values: values,
		})
	}
	return records, nil
}

func (r *RecordRepository) findLeaveRecords(ctx context.Context, owners model.OwnerSet, interval model.PeriodInterval) ([]model.Record, error) {
	type row struct {
		CreatedAt time.Time
		UserID    uuid.UUID
		Status    string
		LeaveType string
		Periode   string
	}
	var rows []row

	query := r.db.WithContext(ctx).
		Table("leave_requests lr").
		Select("lr.created_at, lr.user_id, lr.status, lr.leave_type, lr.periode")

	query = applyOwnerFilter(query, "lr.user_id", owners)
	query = applyIntervalFilter(query, "lr.created_at", interval)

	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.Record{
			OccurredAt: row.CreatedAt,
			OwnerID:    row.UserID,
			Fields: map[string]string{
				model.FieldStatus:  row.Status,
				model.FieldType:    row.LeaveType,
				model.FieldPeriode: row.Periode,
			},
		})
	}
	return records, nil
}

// findTruckRecords loads trucks as fleet-wide records keyed on their
// registration date. Trucks have no per-driver owner; the truck's own
// id fills OwnerID so the engine's filters stay uniform.
func (r *RecordRepository) findTruckRecords(ctx context.Context, interval model.PeriodInterval) ([]model.Record, error) {
	type row struct {
		ID        uuid.UUID
		CreatedAt time.Time
		Status    string
		Brand     string
	}
	var rows []row

	query := r.db.WithContext(ctx).
		Table("trucks tk").
		Select("tk.id, tk.created_at, tk.status, tk.brand")

	query = applyIntervalFilter(query, "tk.created_at", interval)

	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.Record{
			OccurredAt: row.CreatedAt,
			OwnerID:    row.ID,
			Fields: map[string]string{
				model.FieldStatus: row.Status,
				model.FieldBrand:  row.Brand,
			},
		})
	}
	return records, nil
}

// canonicalTripStatus maps the legacy cancellation spelling onto the
// canonical enum. Older rows were written with status "failed".
func canonicalTripStatus(status string) string {
	if status == "failed" {
		return model.TripStatusCanceled
	}
	return status
}

func applyOwnerFilter(query *gorm.DB, column string, owners model.OwnerSet) *gorm.DB {
	if owners.All {
		return query
	}
	return query.Where(column+" IN ?", owners.IDs)
}

func applyIntervalFilter(query *gorm.DB, column string, interval model.PeriodInterval) *gorm.DB {
	if interval.Unbounded() {
		return query
	}
	return query.Where(column+" >= ? AND "+column+" < ?", interval.Start, interval.End)
}
