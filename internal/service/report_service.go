package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fleet-analytics-service/internal/aggregate"
	"fleet-analytics-service/internal/derive"
	"fleet-analytics-service/internal/model"
	"fleet-analytics-service/internal/period"
	"fleet-analytics-service/internal/scope"
)

var (
	ErrUpstreamUnavailable = errors.New("data temporarily unavailable")
	ErrInvalidDataset      = errors.New("invalid dataset")
	ErrInvalidDimension    = errors.New("invalid dimension")
	ErrPermissionDenied    = scope.ErrForbidden
)

// RecordSource loads the raw rows behind a dataset. Implementations may
// push the owner and interval filters down or return a superset; the
// aggregation engine re-applies both.
type RecordSource interface {
	FindRecords(ctx context.Context, dataset model.Dataset, owners model.OwnerSet, interval model.PeriodInterval) ([]model.Record, error)
}

// OwnerDirectory lists the owners visible inside a resolved scope.
type OwnerDirectory interface {
	ListOwners(ctx context.Context, owners model.OwnerSet) ([]model.OwnerInfo, error)
}

type FleetReader interface {
	FleetInsight(ctx context.Context) (model.FleetInsight, error)
}

type CensusReader interface {
	UserInsight(ctx context.Context) (model.UserInsight, error)
}

type ReportService struct {
	resolver  *scope.Resolver
	records   RecordSource
	directory OwnerDirectory
	fleet     FleetReader
	census    CensusReader
	retryWait time.Duration
}

func NewReportService(resolver *scope.Resolver, records RecordSource, directory OwnerDirectory, fleet FleetReader, census CensusReader, retryWait time.Duration) *ReportService {
	return &ReportService{
		resolver:  resolver,
		records:   records,
		directory: directory,
		fleet:     fleet,
		census:    census,
		retryWait: retryWait,
	}
}

// TripKpiSpecs is the default KPI set for the trips dataset.
func TripKpiSpecs() []derive.Spec {
	return []derive.Spec{
		{Name: "delay_rate", Kind: derive.KindShare, Dimension: model.TripStatusDelayed},
		{Name: "avg_departure_hour", Kind: derive.KindAverage, Field: model.FieldDepartureTime},
		{Name: "km_per_liter", Kind: derive.KindRate, Field: model.ValueDistance, PerField: model.ValueFuel},
	}
}

// GetInsight summarizes the leave requests visible to the caller:
// total count, the periode label of the most recent request, and the
// owners that actually filed requests. Owners without any leave record
// never appear in Users, so an empty scope yields an empty list.
func (s *ReportService) GetInsight(ctx context.Context, principal model.Principal, target *uuid.UUID) (*model.InsightReport, error) {
	owners, err := s.resolveScope(ctx, principal, target)
	if err != nil {
		return nil, err
	}

	var records []model.Record
	var candidates []model.OwnerInfo

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.findRecords(gctx, model.DatasetLeaves, owners, model.PeriodInterval{})
		return err
	})
	g.Go(func() error {
		var err error
		candidates, err = s.listOwners(gctx, owners)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &model.InsightReport{Period: "N/A"}
	withLeaves := make(map[uuid.UUID]struct{})
	var latest time.Time
	for _, record := range records {
		if !owners.Contains(record.OwnerID) {
			continue
		}
		report.TotalRequest++
		withLeaves[record.OwnerID] = struct{}{}
		if record.OccurredAt.After(latest) {
			latest = record.OccurredAt
			report.Period = record.Field(model.FieldPeriode)
		}
	}

	report.Users = make([]model.OwnerInfo, 0, len(withLeaves))
	for _, candidate := range candidates {
		if _, ok := withLeaves[candidate.ID]; ok {
			report.Users = append(report.Users, candidate)
		}
	}
	return report, nil
}

// GetDrill runs one level of the period drill-down over a dataset.
// Level names the bucket granularity; parent is the clicked period key
// from the level above, empty at the top.
func (s *ReportService) GetDrill(ctx context.Context, principal model.Principal, dataset model.Dataset, level model.DrillLevel, parent string, target *uuid.UUID) ([]model.Bucket, error) {
	interval, err := period.Interval(level, parent)
	if err != nil {
		return nil, err
	}
	dimension, opts, err := drillPlan(dataset)
	if err != nil {
		return nil, err
	}

	owners, err := s.resolveDatasetScope(ctx, principal, dataset, target)
	if err != nil {
		return nil, err
	}
	records, err := s.findRecords(ctx, dataset, owners, interval)
	if err != nil {
		return nil, err
	}

	return aggregate.Run(records, owners, interval, level, dimension, opts)
}

// GetDistribution counts all visible records of a dataset per dimension
// value with no time axis.
func (s *ReportService) GetDistribution(ctx context.Context, principal model.Principal, dataset model.Dataset, dimension string, target *uuid.UUID) ([]model.DistributionEntry, error) {
	if err := validateDimension(dataset, dimension); err != nil {
		return nil, err
	}

	owners, err := s.resolveDatasetScope(ctx, principal, dataset, target)
	if err != nil {
		return nil, err
	}
	records, err := s.findRecords(ctx, dataset, owners, model.PeriodInterval{})
	if err != nil {
		return nil, err
	}

	return aggregate.Distribution(records, owners, aggregate.FieldDimension(dimension)), nil
}

// GetDerivedKpis computes the trip KPI set over every visible trip.
func (s *ReportService) GetDerivedKpis(ctx context.Context, principal model.Principal, target *uuid.UUID) ([]model.DerivedMetric, error) {
	owners, err := s.resolveScope(ctx, principal, target)
	if err != nil {
		return nil, err
	}
	records, err := s.findRecords(ctx, model.DatasetTrips, owners, model.PeriodInterval{})
	if err != nil {
		return nil, err
	}

	buckets, err := aggregate.Run(records, owners, model.PeriodInterval{}, model.LevelYear,
		aggregate.FieldDimension(model.FieldStatus),
		aggregate.Options{
			DimensionUniverse: model.TripStatusUniverse(),
			SumFields:         []string{model.ValueDistance, model.ValueFuel},
			ClockFields:       []string{model.FieldDepartureTime},
		})
	if err != nil {
		return nil, err
	}

	return derive.Derive(buckets, TripKpiSpecs()), nil
}

// GetFleetInsight is the truck-level KPI view, super admins only.
func (s *ReportService) GetFleetInsight(ctx context.Context, principal model.Principal) (*model.FleetInsight, error) {
	if !principal.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: fleet insight requires super admin", scope.ErrForbidden)
	}

	var insight model.FleetInsight
	err := s.withRetry(ctx, func() error {
		var err error
		insight, err = s.fleet.FleetInsight(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &insight, nil
}

// GetUserInsight is the user-directory census, super admins only.
func (s *ReportService) GetUserInsight(ctx context.Context, principal model.Principal) (*model.UserInsight, error) {
	if !principal.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: user insight requires super admin", scope.ErrForbidden)
	}

	var insight model.UserInsight
	err := s.withRetry(ctx, func() error {
		var err error
		insight, err = s.census.UserInsight(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &insight, nil
}

// resolveDatasetScope picks the owner set for a dataset. Trucks are a
// fleet-wide resource with no per-driver owner, so that dataset is
// restricted to super admins and always spans the whole fleet; the
// other datasets go through the regular role resolution.
func (s *ReportService) resolveDatasetScope(ctx context.Context, principal model.Principal, dataset model.Dataset, target *uuid.UUID) (model.OwnerSet, error) {
	if dataset == model.DatasetTrucks {
		if !principal.IsSuperAdmin() {
			return model.OwnerSet{}, fmt.Errorf("%w: truck reports require super admin", scope.ErrForbidden)
		}
		return model.AllOwners(), nil
	}
	return s.resolveScope(ctx, principal, target)
}

func (s *ReportService) resolveScope(ctx context.Context, principal model.Principal, target *uuid.UUID) (model.OwnerSet, error) {
	query := model.ScopeQuery{
		CallerID:      principal.UserID,
		CallerRole:    principal.Role,
		TargetOwnerID: target,
	}

	var owners model.OwnerSet
	err := s.withRetry(ctx, func() error {
		var err error
		owners, err = s.resolver.Resolve(ctx, query)
		if errors.Is(err, scope.ErrForbidden) || errors.Is(err, scope.ErrInvalidScope) {
			return backoff.Permanent(err)
		}
		return err
	})
	if err != nil {
		return model.OwnerSet{}, err
	}
	return owners, nil
}

func (s *ReportService) findRecords(ctx context.Context, dataset model.Dataset, owners model.OwnerSet, interval model.PeriodInterval) ([]model.Record, error) {
	var records []model.Record
	err := s.withRetry(ctx, func() error {
		var err error
		records, err = s.records.FindRecords(ctx, dataset, owners, interval)
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *ReportService) listOwners(ctx context.Context, owners model.OwnerSet) ([]model.OwnerInfo, error) {
	var users []model.OwnerInfo
	err := s.withRetry(ctx, func() error {
		var err error
		users, err = s.directory.ListOwners(ctx, owners)
		return err
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// withRetry runs op and retries it once after a short backoff. A second
// failure is reported as ErrUpstreamUnavailable so the transport can
// answer 503 instead of leaking driver errors.
func (s *ReportService) withRetry(ctx context.Context, op func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.retryWait

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(eb, 1), ctx))
	if err == nil {
		return nil
	}
	if errors.Is(err, scope.ErrForbidden) || errors.Is(err, scope.ErrInvalidScope) {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
}

func drillPlan(dataset model.Dataset) (aggregate.DimensionFunc, aggregate.Options, error) {
	switch dataset {
	case model.DatasetTrips:
		return aggregate.FieldDimension(model.FieldStatus), aggregate.Options{
			DimensionUniverse: model.TripStatusUniverse(),
			SumFields:         []string{model.ValueDistance, model.ValueDuration},
		}, nil
	case model.DatasetLeaves:
		return aggregate.FieldDimension(model.FieldType), aggregate.Options{
			DimensionUniverse: model.LeaveTypeUniverse(),
		}, nil
	case model.DatasetTrucks:
		return aggregate.FieldDimension(model.FieldStatus), aggregate.Options{
			DimensionUniverse: model.TruckStatusUniverse(),
		}, nil
	default:
		return nil, aggregate.Options{}, fmt.Errorf("%w: %q", ErrInvalidDataset, dataset)
	}
}

func validateDimension(dataset model.Dataset, dimension string) error {
	allowed := map[model.Dataset][]string{
		model.DatasetTrips:  {model.FieldDestination, model.FieldStatus},
		model.DatasetLeaves: {model.FieldStatus, model.FieldType},
		model.DatasetTrucks: {model.FieldStatus, model.FieldBrand},
	}
	dims, ok := allowed[dataset]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidDataset, dataset)
	}
	for _, d := range dims {
		if d == dimension {
			return nil
		}
	}
	return fmt.Errorf("%w: %q for dataset %q", ErrInvalidDimension, dimension, dataset)
}
