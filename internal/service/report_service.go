package service

import (
	"context"
	"sort"
	"time"

	"github.com/segyhp/bike-rental-engine/internal/billing"
	"github.com/segyhp/bike-rental-engine/internal/config"
	"github.com/segyhp/bike-rental-engine/internal/domain"
	"github.com/segyhp/bike-rental-engine/internal/repository"
	customError "github.com/segyhp/bike-rental-engine/pkg/errors"
	"github.com/segyhp/bike-rental-engine/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ReportService aggregates rentals for admins and the scheduler. It never
// mutates anything.
type ReportService struct {
	Repos    repository.Repositories
	Clock    Clock
	log      *logrus.Logger
	settings settings
}

func NewReportService(repos repository.Repositories, config *config.Config, log *logrus.Logger) *ReportService {
	return &ReportService{
		Repos:    repos,
		Clock:    time.Now,
		log:      loggerOrDefault(log),
		settings: settingsFrom(config),
	}
}

func (s *ReportService) now() time.Time {
	return s.Clock().In(s.settings.location)
}

// Summary aggregates rentals starting in [from, to). Expected revenue is
// priced exactly like a payment quote taken now.
func (s *ReportService) Summary(ctx context.Context, from, to time.Time) (*domain.RentalSummary, error) {
	if !from.Before(to) {
		return nil, customError.WrapInvalidInput("from must be before to")
	}

	records, err := s.Repos.Rentals.ListRecords(ctx, domain.RentalFilter{From: &from, To: &to})
	if err != nil {
		return nil, fail(s.log, err, "rental_summary", logrus.Fields{"from": from, "to": to})
	}

	now := s.now()
	summary := &domain.RentalSummary{
		From:             from,
		To:               to,
		TotalRentals:     len(records),
		ByStatus:         map[domain.RentalStatus]int{},
		ExpectedRevenue:  decimal.Zero,
		CollectedRevenue: decimal.Zero,
		Outstanding:      decimal.Zero,
		GeneratedAt:      now,
	}

	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
		summary.ByStatus[rec.DisplayStatus(now)]++

		quote := billing.ExpectedAmount(billing.InputForRecord(rec), now)
		summary.BilledHours += quote.Hours
		summary.ExpectedRevenue = summary.ExpectedRevenue.Add(quote.Amount)
	}

	collected, err := s.Repos.Payments.SumCompleted(ctx, ids)
	if err != nil {
		return nil, fail(s.log, err, "rental_summary", logrus.Fields{"from": from, "to": to})
	}
	summary.CollectedRevenue = collected.Round(2)

	if outstanding := summary.ExpectedRevenue.Sub(summary.CollectedRevenue); outstanding.IsPositive() {
		summary.Outstanding = outstanding
	}

	return summary, nil
}

// DailySummary summarizes the calendar day before now in the business timezone.
func (s *ReportService) DailySummary(ctx context.Context) (*domain.RentalSummary, error) {
	to := utils.StartOfDay(s.now())
	return s.Summary(ctx, to.AddDate(0, 0, -1), to)
}

// OverdueRentals lists open rentals past their planned return, most overdue first.
func (s *ReportService) OverdueRentals(ctx context.Context) ([]*domain.OverdueRental, error) {
	records, err := s.Repos.Rentals.ListOpenRecords(ctx)
	if err != nil {
		return nil, fail(s.log, err, "overdue_rentals", nil)
	}

	now := s.now()
	overdue := []*domain.OverdueRental{}
	for _, rec := range records {
		if rec.DisplayStatus(now) != domain.RentalStatusOverdue {
			continue
		}
		overdue = append(overdue, &domain.OverdueRental{
			RentalID:      rec.ID,
			MemberID:      rec.MemberID,
			BikeID:        rec.BikeID,
			PlannedReturn: *rec.PlannedReturn,
			OverdueHours:  utils.FloorHours(*rec.PlannedReturn, now),
		})
	}

	sort.SliceStable(overdue, func(i, j int) bool {
		return overdue[i].PlannedReturn.Before(overdue[j].PlannedReturn)
	})
	return overdue, nil
}
