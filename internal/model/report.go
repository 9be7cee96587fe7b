package model

import "github.com/google/uuid"

// OwnerInfo identifies one visible record owner for drill filters.
type OwnerInfo struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

// InsightReport summarizes leave requests inside the caller's scope.
// Period is the label of the most recent request, "N/A" when the scope
// holds no requests at all.
type InsightReport struct {
	TotalRequest int64       `json:"total_request"`
	Period       string      `json:"period"`
	Users        []OwnerInfo `json:"users"`
}

// DistributionEntry is one slice of a single-dimension breakdown.
type DistributionEntry struct {
	Dimension string `json:"dimension"`
	Count     int64  `json:"count"`
}

type CapacityByBrand struct {
	Brand         string  `json:"brand"`
	TotalCapacity float64 `json:"total_capacity"`
}

// FleetInsight carries truck-level KPIs for super admins.
type FleetInsight struct {
	AvgMileage      float64           `json:"avg_mileage"`
	TotalTrucks     int64             `json:"total_trucks"`
	TrucksInService int64             `json:"trucks_in_service"`
	CapacityByBrand []CapacityByBrand `json:"capacity_by_brand"`
}

type RoleActivity struct {
	Role     Role  `json:"role"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
}

type CountryCount struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// UserInsight is the super-admin census over the user directory.
type UserInsight struct {
	Messages             int64          `json:"messages"`
	ActiveDrivers        int64          `json:"active_drivers"`
	Managers             int64          `json:"managers"`
	Drivers              int64          `json:"drivers"`
	DriversPerMonth      []MonthCount   `json:"drivers_per_month"`
	DriversPerCountry    []CountryCount `json:"drivers_per_country"`
	ActivityByRole       []RoleActivity `json:"activity_by_role"`
	MustChangePercentage float64        `json:"must_change_percentage"`
}
