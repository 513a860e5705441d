package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/commercegate/ipg-service/internal/domain"
	"github.com/commercegate/ipg-service/internal/domain/models"
)

// OrderRepository implements ports.OrderStore on PostgreSQL. State
// transitions are compare-and-swap UPDATEs conditioned on the current
// status, so concurrent notification deliveries and the expiry sweep
// serialize on the row without advisory locks.
type OrderRepository struct {
	db *DBExecutor
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *DBExecutor) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, track_id, payment_id, amount, currency_code, language,
	response_url, error_url, status, result, response_code, auth_code,
	card_brand, card_last_four, transaction_ref, ack, created_at, updated_at`

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	amount := pgtype.Numeric{}
	if err := amount.Scan(order.Session.Amount.String()); err != nil {
		return fmt.Errorf("convert amount: %w", err)
	}

	_, err := r.db.Pool().Exec(ctx, `
		INSERT INTO payment_orders (
			id, track_id, amount, currency_code, language,
			response_url, error_url, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		order.ID,
		order.Session.TrackID,
		amount,
		order.Session.CurrencyCode,
		order.Session.Language,
		order.Session.ResponseURL,
		order.Session.ErrorURL,
		string(order.Status),
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	row := r.db.Pool().QueryRow(ctx,
		`SELECT `+orderColumns+` FROM payment_orders WHERE id = $1`, id)
	return scanOrder(row)
}

func (r *OrderRepository) GetByTrackID(ctx context.Context, trackID string) (*models.Order, error) {
	row := r.db.Pool().QueryRow(ctx,
		`SELECT `+orderColumns+` FROM payment_orders WHERE track_id = $1`, trackID)
	return scanOrder(row)
}

func (r *OrderRepository) AttachPaymentID(ctx context.Context, orderID, paymentID string) error {
	tag, err := r.db.Pool().Exec(ctx, `
		UPDATE payment_orders
		SET payment_id = $2, status = $3, updated_at = now()
		WHERE id = $1 AND status = $4`,
		orderID,
		paymentID,
		string(models.ResultAwaitingGatewayResult),
		string(models.ResultPending),
	)
	if err != nil {
		return fmt.Errorf("attach payment id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderInvalidState
	}
	return nil
}

func (r *OrderRepository) ApplyResult(ctx context.Context, orderID string, result models.OrderResult, diag models.PaymentDiagnostics, ack []byte) (bool, error) {
	if !result.IsTerminal() {
		return false, domain.ErrOrderInvalidState
	}

	// The status guard is the idempotency barrier: a redelivered
	// notification matches zero rows because the first delivery already
	// moved the order out of the non-terminal set.
	tag, err := r.db.Pool().Exec(ctx, `
		UPDATE payment_orders
		SET status = $2, result = $3, response_code = $4, auth_code = $5,
		    card_brand = $6, card_last_four = $7, transaction_ref = $8,
		    ack = $9, updated_at = now()
		WHERE id = $1 AND status IN ($10, $11)`,
		orderID,
		string(result),
		diag.Result,
		diag.ResponseCode,
		diag.AuthCode,
		diag.CardBrand,
		diag.CardLastFour,
		diag.TransactionRef,
		ack,
		string(models.ResultPending),
		string(models.ResultAwaitingGatewayResult),
	)
	if err != nil {
		return false, fmt.Errorf("apply result: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *OrderRepository) ExpireStale(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.db.Pool().Query(ctx, `
		UPDATE payment_orders
		SET status = $1, updated_at = now()
		WHERE status = $2 AND updated_at < $3
		RETURNING track_id`,
		string(models.ResultCancelled),
		string(models.ResultAwaitingGatewayResult),
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("expire stale orders: %w", err)
	}
	defer rows.Close()

	var trackIDs []string
	for rows.Next() {
		var trackID string
		if err := rows.Scan(&trackID); err != nil {
			return nil, fmt.Errorf("scan expired track id: %w", err)
		}
		trackIDs = append(trackIDs, trackID)
	}
	return trackIDs, rows.Err()
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		order          models.Order
		amount         pgtype.Numeric
		paymentID      pgtype.Text
		result         pgtype.Text
		responseCode   pgtype.Text
		authCode       pgtype.Text
		cardBrand      pgtype.Text
		cardLastFour   pgtype.Text
		transactionRef pgtype.Text
	)

	err := row.Scan(
		&order.ID,
		&order.Session.TrackID,
		&paymentID,
		&amount,
		&order.Session.CurrencyCode,
		&order.Session.Language,
		&order.Session.ResponseURL,
		&order.Session.ErrorURL,
		&order.Status,
		&result,
		&responseCode,
		&authCode,
		&cardBrand,
		&cardLastFour,
		&transactionRef,
		&order.Ack,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	value, err := amount.Value()
	if err != nil {
		return nil, fmt.Errorf("read amount: %w", err)
	}
	if str, ok := value.(string); ok {
		order.Session.Amount, err = decimal.NewFromString(str)
		if err != nil {
			return nil, fmt.Errorf("parse amount: %w", err)
		}
	}

	order.Session.PaymentID = paymentID.String
	order.Session.CreatedAt = order.CreatedAt
	order.Diagnostics = models.PaymentDiagnostics{
		Result:         result.String,
		ResponseCode:   responseCode.String,
		AuthCode:       authCode.String,
		CardBrand:      cardBrand.String,
		CardLastFour:   cardLastFour.String,
		TransactionRef: transactionRef.String,
	}
	return &order, nil
}
