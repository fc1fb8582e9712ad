package repository

import (
	"context"
	"errors"
	"log/slog"

	"wallet_api/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

var (
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidOperationType = errors.New("invalid operation type")
)

// Pool is the subset of pgxpool.Pool the repository needs. pgxmock
// satisfies it as well.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const walletColumns = "id, balance, last_operation, created_at, updated_at"

type WalletPGRepository struct {
	pool   Pool
	logger *slog.Logger
}

func NewWalletPGRepository(pool Pool, logger *slog.Logger) *WalletPGRepository {
	return &WalletPGRepository{
		pool:   pool,
		logger: logger,
	}
}

func scanWallet(row pgx.Row) (models.Wallet, error) {
	var w models.Wallet
	var lastOp *string
	if err := row.Scan(&w.ID, &w.Balance, &lastOp, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return models.Wallet{}, err
	}
	if lastOp != nil {
		op := models.OperationType(*lastOp)
		w.LastOperation = &op
	}
	return w, nil
}

// Create inserts a new wallet with a generated id and zero balance.
func (r *WalletPGRepository) Create(ctx context.Context) (models.Wallet, error) {
	walletID := uuid.New()
	row := r.pool.QueryRow(ctx,
		"INSERT INTO wallets (id) VALUES ($1) RETURNING "+walletColumns, walletID)
	w, err := scanWallet(row)
	if err != nil {
		r.logger.Error("Failed to create wallet",
			slog.String("wallet_id", walletID.String()),
			slog.Any("err", err),
		)
		return models.Wallet{}, err
	}
	return w, nil
}

func (r *WalletPGRepository) GetByID(ctx context.Context, walletID uuid.UUID) (models.Wallet, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+walletColumns+" FROM wallets WHERE id = $1", walletID)
	w, err := scanWallet(row)
	if err == pgx.ErrNoRows {
		return models.Wallet{}, ErrWalletNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get wallet",
			slog.String("wallet_id", walletID.String()),
			slog.Any("err", err),
		)
		return models.Wallet{}, err
	}
	return w, nil
}

// LockForUpdate reads the wallet row under an exclusive row lock. Must be
// called within an open transaction; the lock is held until commit or
// rollback.
func (r *WalletPGRepository) LockForUpdate(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) (models.Wallet, error) {
	row := tx.QueryRow(ctx,
		"SELECT "+walletColumns+" FROM wallets WHERE id = $1 FOR UPDATE", walletID)
	w, err := scanWallet(row)
	if err == pgx.ErrNoRows {
		return models.Wallet{}, ErrWalletNotFound
	}
	if err != nil {
		r.logger.Error("Failed to select wallet for update",
			slog.String("wallet_id", walletID.String()),
			slog.Any("err", err),
		)
		return models.Wallet{}, err
	}
	return w, nil
}

// ApplyBalance writes the new balance and last-operation tag within the same
// transaction that holds the row lock.
func (r *WalletPGRepository) ApplyBalance(
	ctx context.Context,
	tx pgx.Tx,
	walletID uuid.UUID,
	newBalance decimal.Decimal,
	opType models.OperationType,
) (models.Wallet, error) {
	row := tx.QueryRow(ctx, `
        UPDATE wallets SET balance = $1, last_operation = $2, updated_at = NOW()
        WHERE id = $3
        RETURNING `+walletColumns, newBalance, string(opType), walletID)
	w, err := scanWallet(row)
	if err != nil {
		r.logger.Error("Failed to update wallet balance",
			slog.String("wallet_id", walletID.String()),
			slog.Any("err", err),
		)
		return models.Wallet{}, err
	}
	return w, nil
}

// PerformOperation applies a deposit or withdrawal atomically: the wallet row
// is locked for the duration of the transaction, so concurrent operations on
// the same wallet serialize in lock-acquisition order. A withdrawal that
// would drive the balance negative aborts with ErrInsufficientFunds and no
// write.
func (r *WalletPGRepository) PerformOperation(
	ctx context.Context,
	walletID uuid.UUID,
	opType models.OperationType,
	amount decimal.Decimal,
) (models.Wallet, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error("Failed to begin transaction",
			slog.String("wallet_id", walletID.String()),
			slog.Any("err", err),
		)
		return models.Wallet{}, err
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
			r.logger.Error("Failed to rollback transaction",
				slog.String("wallet_id", walletID.String()),
				slog.Any("err", err),
			)
		}
	}()

	w, err := r.LockForUpdate(ctx, tx, walletID)
	if err != nil {
		return models.Wallet{}, err
	}

	var newBalance decimal.Decimal
	if opType == models.OperationDeposit {
		newBalance = w.Balance.Add(amount)
	} else {
		newBalance = w.Balance.Sub(amount)
	}
	if newBalance.IsNegative() {
		return w, ErrInsufficientFunds
	}

	w, err = r.ApplyBalance(ctx, tx, walletID, newBalance, opType)
	if err != nil {
		return models.Wallet{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("Failed to commit transaction",
			slog.String("wallet_id", walletID.String()),
			slog.Any("err", err),
		)
		return models.Wallet{}, err
	}

	return w, nil
}
