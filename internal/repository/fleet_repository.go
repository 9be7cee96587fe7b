package repository

import (
	"context"
	"math"

	"gorm.io/gorm"

	"fleet-analytics-service/internal/model"
)

// FleetRepository serves the truck-level KPIs.
type FleetRepository struct {
	db *gorm.DB
}

func NewFleetRepository(db *gorm.DB) *FleetRepository {
	return &FleetRepository{db: db}
}

func (r *FleetRepository) FleetInsight(ctx context.Context) (model.FleetInsight, error) {
	insight := model.FleetInsight{}

	type statsRow struct {
		AvgMileage      float64
		TotalTrucks     int64
		TrucksInService int64
	}
	var stats statsRow
	err := r.db.WithContext(ctx).
		Table("trucks").
		Select(`COALESCE(AVG(mileage), 0) AS avg_mileage,
			COUNT(*) AS total_trucks,
			SUM(CASE WHEN status = 'in_service' THEN 1 ELSE 0 END) AS trucks_in_service`).
		Scan(&stats).Error
	if err != nil {
		return model.FleetInsight{}, err
	}
	insight.AvgMileage = roundMileage(stats.AvgMileage)
	insight.TotalTrucks = stats.TotalTrucks
	insight.TrucksInService = stats.TrucksInService

	var capacityRows []model.CapacityByBrand
	err = r.db.WithContext(ctx).
		Table("trucks").
		Select("COALESCE(NULLIF(brand, ''), 'Unknown') AS brand, COALESCE(SUM(capacity), 0) AS total_capacity").
		Group("brand").
		Order("brand ASC").
		Scan(&capacityRows).Error
	if err != nil {
		return model.FleetInsight{}, err
	}
	insight.CapacityByBrand = capacityRows

	return insight, nil
}

func roundMileage(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return math.Round(value*100) / 100
}
