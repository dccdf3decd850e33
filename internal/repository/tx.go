package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// NewRepositories binds every repository to the same connection or transaction.
func NewRepositories(db sqlx.ExtContext) Repositories {
	return Repositories{
		Bikes:    NewBikeRepository(db),
		Rentals:  NewRentalRepository(db),
		Returns:  NewReturnRepository(db),
		Payments: NewPaymentRepository(db),
	}
}

type txManager struct {
	db *sqlx.DB
}

func NewTxManager(db *sqlx.DB) TxManager {
	return &txManager{db: db}
}

func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) (err error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, NewRepositories(tx)); err != nil {
		return err
	}

	return tx.Commit()
}
