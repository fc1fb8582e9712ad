package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"wallet_api/internal/metrics"
	"wallet_api/internal/models"
	"wallet_api/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=../../test/mock_wallet_repository.go -package=test WalletRepository

type WalletRepository interface {
	Create(ctx context.Context) (models.Wallet, error)
	GetByID(ctx context.Context, walletID uuid.UUID) (models.Wallet, error)
	PerformOperation(ctx context.Context, walletID uuid.UUID, opType models.OperationType, amount decimal.Decimal) (models.Wallet, error)
}

type WalletService struct {
	repo       WalletRepository
	logger     *slog.Logger
	maxRetries int
}

func NewWalletService(repo WalletRepository, logger *slog.Logger) *WalletService {
	return &WalletService{
		repo:       repo,
		logger:     logger,
		maxRetries: 3,
	}
}

func (s *WalletService) CreateWallet(ctx context.Context) (models.Wallet, error) {
	w, err := s.repo.Create(ctx)
	if err != nil {
		s.logger.Error("CreateWallet failed", slog.Any("err", err))
		return models.Wallet{}, err
	}
	s.logger.Info("Wallet created", slog.String("wallet_id", w.ID.String()))
	return w, nil
}

func (s *WalletService) GetWallet(ctx context.Context, walletID uuid.UUID) (models.Wallet, error) {
	w, err := s.repo.GetByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			s.logger.Warn("GetWallet: wallet not found",
				slog.String("wallet_id", walletID.String()),
			)
			return w, repository.ErrWalletNotFound
		}
		s.logger.Error("GetWallet failed",
			slog.String("wallet_id", walletID.String()),
			slog.Any("err", err),
		)
		return w, err
	}
	return w, nil
}

// ApplyOperation validates the request and applies it through the locked
// update. Validation failures never open a transaction. Serialization and
// deadlock failures (SQLSTATE 40001/40P01) are retried a few times.
func (s *WalletService) ApplyOperation(
	ctx context.Context,
	walletID uuid.UUID,
	opType models.OperationType,
	amount decimal.Decimal,
) (models.Wallet, error) {
	if !opType.Valid() {
		s.logger.Warn("ApplyOperation failed: unknown operation type",
			slog.String("wallet_id", walletID.String()),
			slog.String("operation", string(opType)),
		)
		metrics.OperationsFailed.Inc()
		return models.Wallet{}, repository.ErrInvalidOperationType
	}
	if amount.IsNegative() || amount.Exponent() < -2 {
		s.logger.Warn("ApplyOperation failed: malformed amount",
			slog.String("wallet_id", walletID.String()),
			slog.Any("amount", amount),
		)
		metrics.OperationsFailed.Inc()
		return models.Wallet{}, repository.ErrInvalidAmount
	}

	var lastErr error
	for i := 0; i < s.maxRetries; i++ {
		w, err := s.repo.PerformOperation(ctx, walletID, opType, amount)
		if err == nil {
			metrics.OperationsTotal.WithLabelValues(string(opType)).Inc()
			return w, nil
		}
		if isRetryableError(err) {
			s.logger.Warn("Retrying operation",
				slog.String("wallet_id", walletID.String()),
				slog.String("operation", string(opType)),
				slog.Int("attempt", i+1),
				slog.Any("err", err),
			)
			time.Sleep(time.Duration(1<<i) * 10 * time.Microsecond)
			lastErr = err
			continue
		}

		metrics.OperationsFailed.Inc()
		if errors.Is(err, repository.ErrWalletNotFound) {
			s.logger.Warn("Operation failed: wallet not found",
				slog.String("wallet_id", walletID.String()),
				slog.String("operation", string(opType)),
				slog.Any("amount", amount),
			)
			return w, repository.ErrWalletNotFound
		}
		if errors.Is(err, repository.ErrInsufficientFunds) {
			s.logger.Warn("Operation failed: insufficient funds",
				slog.String("wallet_id", walletID.String()),
				slog.Any("amount", amount),
				slog.Any("balance", w.Balance),
			)
			return w, repository.ErrInsufficientFunds
		}
		s.logger.Error("Operation failed: unknown error",
			slog.String("wallet_id", walletID.String()),
			slog.String("operation", string(opType)),
			slog.Any("amount", amount),
			slog.Any("err", err),
		)
		return w, err
	}
	metrics.OperationsFailed.Inc()
	s.logger.Error("Operation failed after retries",
		slog.String("wallet_id", walletID.String()),
		slog.String("operation", string(opType)),
		slog.Any("amount", amount),
		slog.Any("err", lastErr),
	)
	return models.Wallet{}, lastErr
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
