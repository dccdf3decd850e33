package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segyhp/bike-rental-engine/internal/billing"
	"github.com/segyhp/bike-rental-engine/internal/cache"
	"github.com/segyhp/bike-rental-engine/internal/config"
	"github.com/segyhp/bike-rental-engine/internal/domain"
	"github.com/segyhp/bike-rental-engine/internal/repository"
	customError "github.com/segyhp/bike-rental-engine/pkg/errors"
	"github.com/segyhp/bike-rental-engine/pkg/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type PaymentService struct {
	Repos    repository.Repositories
	Tx       repository.TxManager
	Lock     cache.PaymentLock
	Clock    Clock
	log      *logrus.Logger
	settings settings
}

func NewPaymentService(
	repos repository.Repositories,
	tx repository.TxManager,
	lock cache.PaymentLock,
	config *config.Config,
	log *logrus.Logger,
) *PaymentService {
	if lock == nil {
		lock = cache.NoopPaymentLock{}
	}
	return &PaymentService{
		Repos:    repos,
		Tx:       tx,
		Lock:     lock,
		Clock:    time.Now,
		log:      loggerOrDefault(log),
		settings: settingsFrom(config),
	}
}

func (s *PaymentService) now() time.Time {
	return s.Clock().In(s.settings.location)
}

// ComputeExpectedAmount quotes a rental as of the given date and time, or as
// of now when both are empty.
func (s *PaymentService) ComputeExpectedAmount(ctx context.Context, rentalID int64, actor domain.Actor, asOfDate, asOfTime string) (*domain.ExpectedAmountResponse, error) {
	asOf, err := utils.ResolveAsOf(asOfDate, asOfTime, s.now(), s.settings.location)
	if err != nil {
		return nil, customError.WrapInvalidInput(err.Error())
	}

	rec, err := s.Repos.Rentals.GetRecord(ctx, rentalID)
	if isNotFound(err) {
		return nil, customError.WrapRentalNotFound(rentalID)
	}
	if err != nil {
		return nil, fail(s.log, err, "compute_expected_amount", logrus.Fields{"rental_id": rentalID})
	}
	if !actor.CanAccess(&rec.Rental) {
		return nil, customError.WrapForbidden("rental belongs to another member")
	}

	quote := billing.ExpectedAmount(billing.InputForRecord(rec), asOf)

	return &domain.ExpectedAmountResponse{
		RentalID:       rec.ID,
		ExpectedAmount: quote.Amount,
		Rate:           quote.Rate,
		Hours:          quote.Hours,
		ResolvedEnd:    quote.ResolvedEnd,
		Status:         rec.DisplayStatus(asOf),
	}, nil
}

// RecordPayment stores a payment against a rental. Pending and completed
// payments must match the expected amount as of the payment time, and a
// rental takes at most one completed payment.
func (s *PaymentService) RecordPayment(ctx context.Context, rentalID int64, actor domain.Actor, request *domain.RecordPaymentRequest) (*domain.RecordPaymentResponse, error) {
	if request.Amount.IsNegative() {
		return nil, customError.WrapInvalidInput("amount must not be negative")
	}
	switch request.Status {
	case domain.PaymentStatusPending, domain.PaymentStatusCompleted, domain.PaymentStatusFailed:
	default:
		return nil, customError.WrapInvalidInput(fmt.Sprintf("unknown payment status %q", request.Status))
	}

	paidAt, err := utils.ResolveAsOf(request.PaymentDate, request.PaymentTime, s.now(), s.settings.location)
	if err != nil {
		return nil, customError.WrapInvalidInput(err.Error())
	}

	transactionID := request.TransactionID
	if transactionID == "" {
		transactionID = "TXN-" + uuid.New().String()
	}

	release, err := s.lock(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	defer release()

	var response *domain.RecordPaymentResponse
	err = s.Tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		rental, err := repos.Rentals.GetByIDForUpdate(ctx, rentalID)
		if isNotFound(err) {
			return customError.WrapRentalNotFound(rentalID)
		}
		if err != nil {
			return err
		}
		if !actor.CanAccess(rental) {
			return customError.WrapForbidden("rental belongs to another member")
		}

		rec, err := repos.Rentals.GetRecord(ctx, rentalID)
		if err != nil {
			return err
		}

		_, err = repos.Payments.GetByTransactionID(ctx, transactionID)
		if err == nil {
			return customError.WrapDuplicateTransaction(transactionID)
		}
		if !isNotFound(err) {
			return err
		}

		quote := billing.ExpectedAmount(billing.InputForRecord(rec), paidAt)

		if request.Status != domain.PaymentStatusFailed {
			paid, err := repos.Payments.HasCompletedPayment(ctx, rentalID)
			if err != nil {
				return err
			}
			if paid {
				return customError.WrapAlreadyPaid(rentalID)
			}
			if !request.Amount.Round(2).Equal(quote.Amount) {
				return customError.WrapAmountMismatch(quote.Amount.StringFixed(2), request.Amount.StringFixed(2))
			}
		}

		payment := &domain.Payment{
			TransactionID: transactionID,
			RentalID:      rentalID,
			Amount:        request.Amount.Round(2),
			Method:        request.Method,
			Status:        request.Status,
			PaidAt:        paidAt,
			Notes:         request.Notes,
		}
		if err := repos.Payments.Create(ctx, payment); err != nil {
			return translatePaymentError(err, transactionID, rentalID)
		}

		response = &domain.RecordPaymentResponse{
			PaymentID:      payment.ID,
			TransactionID:  payment.TransactionID,
			ExpectedAmount: quote.Amount,
		}
		return nil
	})
	if err != nil {
		return nil, fail(s.log, err, "record_payment", logrus.Fields{"rental_id": rentalID, "transaction_id": transactionID})
	}

	s.log.WithFields(logrus.Fields{
		"rental_id":      rentalID,
		"payment_id":     response.PaymentID,
		"transaction_id": response.TransactionID,
		"status":         request.Status,
		"amount":         request.Amount.StringFixed(2),
	}).Info("payment recorded")

	return response, nil
}

// CompletePayment moves a pending payment to completed. Completing a
// completed payment returns it unchanged.
func (s *PaymentService) CompletePayment(ctx context.Context, paymentID int64, actor domain.Actor) (*domain.Payment, error) {
	payment, err := s.Repos.Payments.GetByID(ctx, paymentID)
	if isNotFound(err) {
		return nil, customError.WrapPaymentNotFound(paymentID)
	}
	if err != nil {
		return nil, fail(s.log, err, "complete_payment", logrus.Fields{"payment_id": paymentID})
	}

	release, err := s.lock(ctx, payment.RentalID)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.now()

	err = s.Tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		rental, err := repos.Rentals.GetByIDForUpdate(ctx, payment.RentalID)
		if isNotFound(err) {
			return customError.WrapRentalNotFound(payment.RentalID)
		}
		if err != nil {
			return err
		}
		if !actor.CanAccess(rental) {
			return customError.WrapForbidden("rental belongs to another member")
		}

		current, err := repos.Payments.GetByID(ctx, paymentID)
		if isNotFound(err) {
			return customError.WrapPaymentNotFound(paymentID)
		}
		if err != nil {
			return err
		}

		switch current.Status {
		case domain.PaymentStatusCompleted:
			payment = current
			return nil
		case domain.PaymentStatusFailed:
			return customError.WrapInvalidState(fmt.Sprintf("payment %d has failed", paymentID))
		}

		paid, err := repos.Payments.HasCompletedPayment(ctx, current.RentalID)
		if err != nil {
			return err
		}
		if paid {
			return customError.WrapAlreadyPaid(current.RentalID)
		}

		if err := repos.Payments.MarkCompleted(ctx, current.ID, now); err != nil {
			return translatePaymentError(err, current.TransactionID, current.RentalID)
		}

		current.Status = domain.PaymentStatusCompleted
		current.PaidAt = now
		payment = current
		return nil
	})
	if err != nil {
		return nil, fail(s.log, err, "complete_payment", logrus.Fields{"payment_id": paymentID})
	}

	s.log.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"rental_id":  payment.RentalID,
	}).Info("payment completed")

	return payment, nil
}

func (s *PaymentService) ListPayments(ctx context.Context, rentalID int64, actor domain.Actor) ([]*domain.Payment, error) {
	rental, err := s.Repos.Rentals.GetByID(ctx, rentalID)
	if isNotFound(err) {
		return nil, customError.WrapRentalNotFound(rentalID)
	}
	if err != nil {
		return nil, fail(s.log, err, "list_payments", logrus.Fields{"rental_id": rentalID})
	}
	if !actor.CanAccess(rental) {
		return nil, customError.WrapForbidden("rental belongs to another member")
	}

	payments, err := s.Repos.Payments.GetByRentalID(ctx, rentalID)
	if err != nil {
		return nil, fail(s.log, err, "list_payments", logrus.Fields{"rental_id": rentalID})
	}

	return payments, nil
}

// lock takes the per-rental payment lock and returns its release func.
func (s *PaymentService) lock(ctx context.Context, rentalID int64) (func(), error) {
	token, acquired, err := s.Lock.Acquire(ctx, rentalID)
	if err != nil {
		s.log.WithError(err).WithField("rental_id", rentalID).Error("payment lock unavailable")
		return nil, customError.WrapCacheError(err)
	}
	if !acquired {
		return nil, customError.WrapPaymentInProgress(rentalID)
	}

	return func() {
		if err := s.Lock.Release(context.WithoutCancel(ctx), rentalID, token); err != nil {
			s.log.WithError(err).WithField("rental_id", rentalID).Warn("failed to release payment lock")
		}
	}, nil
}

func translatePaymentError(err error, transactionID string, rentalID int64) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateTransaction):
		return customError.WrapDuplicateTransaction(transactionID)
	case errors.Is(err, repository.ErrCompletedPaymentExists):
		return customError.WrapAlreadyPaid(rentalID)
	}
	return err
}
