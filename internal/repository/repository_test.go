package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/bike-rental-engine/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestBikeRepository_Reserve(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		expected bool
	}{
		{name: "available bike is reserved", affected: 1, expected: true},
		{name: "taken bike is not reserved", affected: 0, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewBikeRepository(db)

			mock.ExpectExec(regexp.QuoteMeta("UPDATE bikes")).
				WithArgs(int64(7), "Rented", "Available").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			ok, err := repo.Reserve(context.Background(), 7)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBikeRepository_ReleaseIsIdempotent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBikeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bikes")).
		WithArgs(int64(7), "Available").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Release(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBikeRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBikeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM bikes WHERE id = $1")).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	bike, err := repo.GetByID(context.Background(), 404)
	assert.Nil(t, bike)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestRentalRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRentalRepository(db)

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	planned := start.Add(3 * time.Hour)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO rentals")).
		WithArgs(int64(3), int64(7), int64(1), sqlmock.AnyArg(), sqlmock.AnyArg(), "active").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))

	rental := &domain.Rental{
		MemberID:      3,
		BikeID:        7,
		AdminID:       1,
		RentalStart:   start,
		PlannedReturn: &planned,
		Status:        domain.RentalStatusActive,
	}

	require.NoError(t, repo.Create(context.Background(), rental))
	assert.Equal(t, int64(11), rental.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_GetRecord(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRentalRepository(db)

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	planned := start.Add(3 * time.Hour)
	actual := start.Add(4*time.Hour + 40*time.Minute)

	columns := []string{
		"id", "member_id", "bike_id", "admin_id", "rental_start", "planned_return", "status",
		"created_at", "updated_at", "hourly_rate", "actual_return",
	}
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN LATERAL")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(11), int64(3), int64(7), int64(1), start, planned, "active", start, start, "50.00", actual))

	record, err := repo.GetRecord(context.Background(), 11)
	require.NoError(t, err)

	assert.Equal(t, int64(11), record.ID)
	assert.Equal(t, domain.RentalStatusActive, record.Status)
	assert.True(t, decimal.NewFromInt(50).Equal(record.HourlyRate))
	if assert.NotNil(t, record.ActualReturn) {
		assert.Equal(t, actual, *record.ActualReturn)
	}
	assert.Equal(t, domain.RentalStatusCompleted, record.DisplayStatus(actual.Add(time.Hour)))
}

func TestRentalRepository_ListRecordsBuildsFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRentalRepository(db)

	memberID := int64(3)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.member_id = $1 AND r.rental_start >= $2")).
		WithArgs(memberID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	records, err := repo.ListRecords(context.Background(), domain.RentalFilter{MemberID: &memberID, From: &from})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReturnRepository_GetLatestByRentalID_None(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReturnRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM returns")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "rental_id", "actual_return", "condition_notes", "created_at"}))

	ret, err := repo.GetLatestByRentalID(context.Background(), 11)
	assert.NoError(t, err)
	assert.Nil(t, ret)
}

func TestRentalRepository_GetLatestExtension(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	plannedReturn := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
	extensionEnd := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)
	original := &domain.Rental{ID: 1, MemberID: 5, BikeID: 9, RentalStart: start, PlannedReturn: &plannedReturn}
	columns := []string{"id", "member_id", "bike_id", "admin_id", "rental_start", "planned_return", "status", "created_at", "updated_at"}

	t.Run("returns the extension ending last", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRentalRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY planned_return DESC")).
			WithArgs(int64(5), int64(9), int64(1), plannedReturn, domain.RentalStatusCancelled).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(int64(2), int64(5), int64(9), int64(2), plannedReturn, extensionEnd, "pending", start, start))

		latest, err := repo.GetLatestExtension(context.Background(), original)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, int64(2), latest.ID)
		assert.True(t, latest.PlannedReturn.Equal(extensionEnd))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil when never extended", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRentalRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM rentals")).
			WillReturnRows(sqlmock.NewRows(columns))

		latest, err := repo.GetLatestExtension(context.Background(), original)
		assert.NoError(t, err)
		assert.Nil(t, latest)
	})
}

func TestPaymentRepository_CreateTranslatesUniqueViolations(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		expected   error
	}{
		{name: "transaction id reused", constraint: transactionIDConstraint, expected: ErrDuplicateTransaction},
		{name: "second completed payment", constraint: oneCompletedPaymentIndex, expected: ErrCompletedPaymentExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPaymentRepository(db)

			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payments")).
				WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: tt.constraint})

			err := repo.Create(context.Background(), &domain.Payment{
				TransactionID: "TXN-1",
				RentalID:      11,
				Amount:        decimal.NewFromInt(150),
				Method:        domain.PaymentMethodCash,
				Status:        domain.PaymentStatusCompleted,
				PaidAt:        time.Now(),
			})
			assert.True(t, errors.Is(err, tt.expected), "got %v", err)
		})
	}
}

func TestPaymentRepository_HasCompletedPayment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(int64(11), "completed").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.HasCompletedPayment(context.Background(), 11)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPaymentRepository_SumCompletedEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	total, err := repo.SumCompleted(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_CommitsOnSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	manager := NewTxManager(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bikes")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := manager.WithinTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		return repos.Bikes.Release(ctx, 7)
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	manager := NewTxManager(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bikes")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	boom := errors.New("insert failed")
	err := manager.WithinTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		if _, err := repos.Bikes.Reserve(ctx, 7); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
