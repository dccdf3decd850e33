package service

import (
	"database/sql"
	"errors"
	"time"

	"github.com/segyhp/bike-rental-engine/internal/billing"
	"github.com/segyhp/bike-rental-engine/internal/config"
	"github.com/segyhp/bike-rental-engine/internal/domain"
	customError "github.com/segyhp/bike-rental-engine/pkg/errors"

	"github.com/sirupsen/logrus"
)

// Clock returns the current instant.
type Clock func() time.Time

// settings holds the pieces of config every service reads.
type settings struct {
	location        *time.Location
	returnCondition string
	paymentLockTTL  time.Duration
}

func settingsFrom(cfg *config.Config) settings {
	s := settings{
		location:        time.UTC,
		returnCondition: domain.DefaultReturnCondition,
		paymentLockTTL:  30 * time.Second,
	}
	if cfg == nil {
		return s
	}

	s.location = cfg.Location()
	if cfg.Business.DefaultReturnCondition != "" {
		s.returnCondition = cfg.Business.DefaultReturnCondition
	}
	if cfg.Business.PaymentLockTTL > 0 {
		s.paymentLockTTL = cfg.Business.PaymentLockTTL
	}
	return s
}

func loggerOrDefault(log *logrus.Logger) *logrus.Logger {
	if log == nil {
		return logrus.StandardLogger()
	}
	return log
}

// fail passes business errors through and turns anything else into a
// generic storage error, logging the detail for operators.
func fail(log *logrus.Logger, err error, op string, fields logrus.Fields) error {
	var be *customError.BusinessError
	if errors.As(err, &be) {
		return err
	}

	log.WithError(err).WithFields(fields).WithField("op", op).Error("storage operation failed")
	return customError.WrapDatabaseError(err)
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// rentalView builds the read snapshot of a rental as of now.
func rentalView(rec *domain.RentalRecord, now time.Time) *domain.RentalView {
	quote := billing.ExpectedAmount(billing.InputForRecord(rec), now)
	rental := rec.Rental

	return &domain.RentalView{
		Rental:        &rental,
		DisplayStatus: rec.DisplayStatus(now),
		ActualReturn:  rec.ActualReturn,
		HourlyRate:    rec.HourlyRate,
		Hours:         quote.Hours,
		Amount:        quote.Amount,
	}
}
