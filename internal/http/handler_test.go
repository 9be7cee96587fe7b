package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-analytics-service/internal/model"
	"fleet-analytics-service/internal/scope"
	"fleet-analytics-service/internal/service"
)

type stubDirectory struct{}

func (stubDirectory) FindOwnerIDs(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (stubDirectory) ListOwners(context.Context, model.OwnerSet) ([]model.OwnerInfo, error) {
	return []model.OwnerInfo{}, nil
}

type stubRecords struct {
	records []model.Record
	err     error
}

func (s stubRecords) FindRecords(_ context.Context, _ model.Dataset, owners model.OwnerSet, _ model.PeriodInterval) ([]model.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	if owners.IsEmpty() {
		return []model.Record{}, nil
	}
	return s.records, nil
}

type stubFleet struct{}

func (stubFleet) FleetInsight(context.Context) (model.FleetInsight, error) {
	return model.FleetInsight{}, nil
}

type stubCensus struct{}

func (stubCensus) UserInsight(context.Context) (model.UserInsight, error) {
	return model.UserInsight{}, nil
}

func newTestRouter(t *testing.T, records service.RecordSource, principal *model.Principal) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	resolver := scope.NewResolver(stubDirectory{})
	reports := service.NewReportService(resolver, records, stubDirectory{}, stubFleet{}, stubCensus{}, time.Millisecond)
	handler := NewHandler(reports, zerolog.Nop())

	injectPrincipal := func(c *gin.Context) {
		if principal != nil {
			c.Set("principal", *principal)
		}
		c.Next()
	}

	r := gin.New()
	handler.Register(r, injectPrincipal)
	return r
}

func doGet(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestDrillHappyPath(t *testing.T) {
	driver := uuid.New()
	records := stubRecords{records: []model.Record{{
		OccurredAt: time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC),
		OwnerID:    driver,
		Fields:     map[string]string{model.FieldStatus: model.TripStatusCompleted},
	}}}
	principal := model.Principal{UserID: driver, Role: model.RoleDriver}
	r := newTestRouter(t, records, &principal)

	w := doGet(r, "/reports/drill/trips?level=month&value=2024")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []model.Bucket `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 4)
	assert.Equal(t, "2024-03", body.Data[0].PeriodKey)
}

func TestDrillDefaultsToYearLevel(t *testing.T) {
	driver := uuid.New()
	principal := model.Principal{UserID: driver, Role: model.RoleDriver}
	r := newTestRouter(t, stubRecords{}, &principal)

	w := doGet(r, "/reports/drill/leaves")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMissingPrincipalIsUnauthorized(t *testing.T) {
	r := newTestRouter(t, stubRecords{}, nil)

	w := doGet(r, "/reports/drill/trips")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	driver := uuid.New()
	other := uuid.New()
	principal := model.Principal{UserID: driver, Role: model.RoleDriver}

	cases := []struct {
		name    string
		records service.RecordSource
		path    string
		status  int
	}{
		{"invalid level", stubRecords{}, "/reports/drill/trips?level=week", http.StatusBadRequest},
		{"invalid parent", stubRecords{}, "/reports/drill/trips?level=month&value=20x4", http.StatusBadRequest},
		{"invalid dataset", stubRecords{}, "/reports/drill/fuel", http.StatusBadRequest},
		{"invalid dimension", stubRecords{}, "/reports/distribution/trips?dimension=color", http.StatusBadRequest},
		{"forbidden target", stubRecords{}, "/reports/drill/trips?driver=" + other.String(), http.StatusForbidden},
		{"malformed target", stubRecords{}, "/reports/drill/trips?driver=not-a-uuid", http.StatusBadRequest},
		{"forbidden trucks drill", stubRecords{}, "/reports/drill/trucks", http.StatusForbidden},
		{"forbidden view", stubRecords{}, "/reports/fleet/insight", http.StatusForbidden},
		{"upstream down", stubRecords{err: errors.New("connection refused")}, "/reports/drill/trips", http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(t, tc.records, &principal)
			w := doGet(r, tc.path)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestInsightEnvelope(t *testing.T) {
	driver := uuid.New()
	principal := model.Principal{UserID: driver, Role: model.RoleDriver}
	r := newTestRouter(t, stubRecords{}, &principal)

	w := doGet(r, "/reports/insight")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data model.InsightReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "N/A", body.Data.Period)
	assert.Zero(t, body.Data.TotalRequest)
}
