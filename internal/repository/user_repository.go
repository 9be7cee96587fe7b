package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleet-analytics-service/internal/derive"
	"fleet-analytics-service/internal/model"
)

var monthNames = []string{"", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// UserRepository is the owner directory: which drivers belong to which
// manager, plus the census queries behind the user insight view.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindOwnerIDs returns the ids of all drivers created by the manager.
func (r *UserRepository) FindOwnerIDs(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Table("users").
		Where("role = ? AND created_by = ?", model.RoleDriver, managerID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListOwners returns name info for every owner in the set, sorted by
// first name.
func (r *UserRepository) ListOwners(ctx context.Context, owners model.OwnerSet) ([]model.OwnerInfo, error) {
	if owners.IsEmpty() {
		return []model.OwnerInfo{}, nil
	}

	var rows []model.OwnerInfo
	query := r.db.WithContext(ctx).
		Table("users").
		Select("id, first_name, last_name").
		Where("role = ?", model.RoleDriver).
		Order("first_name ASC")
	if !owners.All {
		query = query.Where("id IN ?", owners.IDs)
	}

	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UserInsight runs the census aggregations over the user directory.
func (r *UserRepository) UserInsight(ctx context.Context) (model.UserInsight, error) {
	insight := model.UserInsight{}

	counts := []struct {
		target *int64
		query  *gorm.DB
	}{
		{&insight.Messages, r.db.WithContext(ctx).Table("messages")},
		{&insight.ActiveDrivers, r.db.WithContext(ctx).Table("users").Where("role = ? AND is_active", model.RoleDriver)},
		{&insight.Managers, r.db.WithContext(ctx).Table("users").Where("role = ?", model.RoleManager)},
		{&insight.Drivers, r.db.WithContext(ctx).Table("users").Where("role = ?", model.RoleDriver)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.target).Error; err != nil {
			return model.UserInsight{}, err
		}
	}

	type monthRow struct {
		Month int
		Count int64
	}
	var monthRows []monthRow
	err := r.db.WithContext(ctx).
		Table("users").
		Select("EXTRACT(MONTH FROM created_at)::int AS month, COUNT(*) AS count").
		Where("role = ?", model.RoleDriver).
		Group("month").
		Order("month ASC").
		Scan(&monthRows).Error
	if err != nil {
		return model.UserInsight{}, err
	}
	for _, row := range monthRows {
		name := "Unknown"
		if row.Month >= 1 && row.Month <= 12 {
			name = monthNames[row.Month]
		}
		insight.DriversPerMonth = append(insight.DriversPerMonth, model.MonthCount{Month: name, Count: row.Count})
	}

	var countryRows []model.CountryCount
	err = r.db.WithContext(ctx).
		Table("users").
		Select("COALESCE(NULLIF(country, ''), 'Unknown') AS country, COUNT(*) AS count").
		Where("role = ?", model.RoleDriver).
		Group("country").
		Order("country ASC").
		Scan(&countryRows).Error
	if err != nil {
		return model.UserInsight{}, err
	}
	insight.DriversPerCountry = countryRows

	var activityRows []model.RoleActivity
	err = r.db.WithContext(ctx).
		Table("users").
		Select(`role,
			SUM(CASE WHEN is_active THEN 1 ELSE 0 END) AS active,
			SUM(CASE WHEN is_active THEN 0 ELSE 1 END) AS inactive`).
		Group("role").
		Order("role ASC").
		Scan(&activityRows).Error
	if err != nil {
		return model.UserInsight{}, err
	}
	insight.ActivityByRole = activityRows

	var mustChange int64
	err = r.db.WithContext(ctx).
		Table("users").
		Where("role = ? AND must_change_password", model.RoleDriver).
		Count(&mustChange).Error
	if err != nil {
		return model.UserInsight{}, err
	}
	insight.MustChangePercentage = derive.Percentage(mustChange, insight.Drivers)

	return insight, nil
}
