package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/segyhp/bike-rental-engine/internal/domain"
	"github.com/segyhp/bike-rental-engine/internal/mocks"
	"github.com/segyhp/bike-rental-engine/internal/service"
	customError "github.com/segyhp/bike-rental-engine/pkg/errors"
	"github.com/segyhp/bike-rental-engine/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReportService(now time.Time) (*service.ReportService, *mocks.Repos) {
	repos := mocks.NewRepos()
	svc := service.NewReportService(repos.Repositories(), nil, logger.Discard())
	svc.Clock = func() time.Time { return now }
	return svc, repos
}

func record(id int64, status domain.RentalStatus, start time.Time, hours int, actual *time.Time) *domain.RentalRecord {
	end := start.Add(time.Duration(hours) * time.Hour)
	return &domain.RentalRecord{
		Rental: domain.Rental{
			ID:            id,
			MemberID:      5,
			BikeID:        id + 100,
			RentalStart:   start,
			PlannedReturn: &end,
			Status:        status,
		},
		HourlyRate:   decimal.NewFromInt(50),
		ActualReturn: actual,
	}
}

func TestSummary(t *testing.T) {
	svc, repos := newReportService(at(14, 0))
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	records := []*domain.RentalRecord{
		record(1, domain.RentalStatusCompleted, pickup, 3, timePtr(at(12, 0))),
		record(2, domain.RentalStatusCancelled, pickup, 3, nil),
		record(3, domain.RentalStatusActive, pickup, 3, nil),
		record(4, domain.RentalStatusPending, at(16, 0), 2, nil),
	}

	repos.Rentals.On("ListRecords", mock.Anything, mock.MatchedBy(func(f domain.RentalFilter) bool {
		return f.From.Equal(from) && f.To.Equal(to) && f.MemberID == nil
	})).Return(records, nil)
	repos.Payments.On("SumCompleted", mock.Anything, []int64{1, 2, 3, 4}).Return(decimal.NewFromInt(100), nil)

	summary, err := svc.Summary(context.Background(), from, to)

	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalRentals)
	assert.Equal(t, 1, summary.ByStatus[domain.RentalStatusCompleted])
	assert.Equal(t, 1, summary.ByStatus[domain.RentalStatusCancelled])
	assert.Equal(t, 1, summary.ByStatus[domain.RentalStatusOverdue])
	assert.Equal(t, 1, summary.ByStatus[domain.RentalStatusPending])
	// 2h returned + 0 cancelled + 4h overdue + 2h pending
	assert.Equal(t, 8, summary.BilledHours)
	assert.Equal(t, "400.00", summary.ExpectedRevenue.StringFixed(2))
	assert.Equal(t, "100.00", summary.CollectedRevenue.StringFixed(2))
	assert.Equal(t, "300.00", summary.Outstanding.StringFixed(2))
	repos.AssertExpectations(t)
}

func TestSummary_RejectsEmptyWindow(t *testing.T) {
	svc, _ := newReportService(at(14, 0))

	_, err := svc.Summary(context.Background(), at(12, 0), at(12, 0))

	assert.Equal(t, customError.ErrCodeInvalidInput, customError.CodeOf(err))
}

func TestDailySummary_CoversPreviousDay(t *testing.T) {
	svc, repos := newReportService(time.Date(2024, 1, 2, 0, 5, 0, 0, time.UTC))
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	repos.Rentals.On("ListRecords", mock.Anything, mock.MatchedBy(func(f domain.RentalFilter) bool {
		return f.From.Equal(from) && f.To.Equal(to)
	})).Return([]*domain.RentalRecord{}, nil)
	repos.Payments.On("SumCompleted", mock.Anything, []int64{}).Return(decimal.Zero, nil)

	summary, err := svc.DailySummary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalRentals)
	assert.True(t, summary.Outstanding.IsZero())
	repos.AssertExpectations(t)
}

func TestOverdueRentals(t *testing.T) {
	svc, repos := newReportService(at(18, 30))

	repos.Rentals.On("ListOpenRecords", mock.Anything).Return([]*domain.RentalRecord{
		record(1, domain.RentalStatusActive, pickup, 6, nil),
		record(2, domain.RentalStatusActive, pickup, 3, nil),
		record(3, domain.RentalStatusActive, pickup, 12, nil),
		record(4, domain.RentalStatusActive, pickup, 3, timePtr(at(12, 0))),
	}, nil)

	overdue, err := svc.OverdueRentals(context.Background())

	require.NoError(t, err)
	require.Len(t, overdue, 2)
	assert.Equal(t, int64(2), overdue[0].RentalID)
	assert.Equal(t, 5, overdue[0].OverdueHours)
	assert.Equal(t, int64(1), overdue[1].RentalID)
	assert.Equal(t, 2, overdue[1].OverdueHours)
	repos.AssertExpectations(t)
}
