package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"denomination-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	walletViewColumns       = `id, owner_id, name, currency, balance, version, created_at, updated_at`
	denominationViewColumns = `id, wallet_id, name, type, value, count, removed, version, updated_at`
	transactionViewColumns  = `id, transaction_group_id, wallet_id, event_id, version, type, denomination_id,
		denomination_name, denomination_type, denomination_value, quantity, amount, currency, actor_id, created_at`
)

// ReadModelStore implements ports.ReadModelStore on the *_views tables.
type ReadModelStore struct {
	pool Pool
}

// NewReadModelStore creates a new ReadModelStore.
func NewReadModelStore(pool Pool) *ReadModelStore {
	return &ReadModelStore{pool: pool}
}

// GetWallet fetches a wallet view by id.
func (r *ReadModelStore) GetWallet(ctx context.Context, id uuid.UUID) (*domain.WalletView, error) {
	query := `SELECT ` + walletViewColumns + ` FROM wallet_views WHERE id = $1`

	w, err := scanWalletView(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet view: %w", err)
	}
	return w, nil
}

// ListWallets returns the wallets owned by ownerID, oldest first.
func (r *ReadModelStore) ListWallets(ctx context.Context, ownerID string) ([]domain.WalletView, error) {
	query := `SELECT ` + walletViewColumns + ` FROM wallet_views WHERE owner_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list wallet views: %w", err)
	}
	defer rows.Close()

	wallets := make([]domain.WalletView, 0)
	for rows.Next() {
		w, err := scanWalletView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet view row: %w", err)
		}
		wallets = append(wallets, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet view rows: %w", err)
	}
	return wallets, nil
}

// ListDenominations returns every denomination row of a wallet, removed ones
// included, in registration order.
func (r *ReadModelStore) ListDenominations(ctx context.Context, walletID uuid.UUID) ([]domain.DenominationView, error) {
	query := `SELECT ` + denominationViewColumns + ` FROM denomination_views WHERE wallet_id = $1 ORDER BY position`

	rows, err := r.pool.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("list denomination views: %w", err)
	}
	defer rows.Close()

	denoms := make([]domain.DenominationView, 0)
	for rows.Next() {
		var d domain.DenominationView
		var typ string
		err := rows.Scan(&d.ID, &d.WalletID, &d.Name, &typ, &d.Value, &d.Count, &d.Removed, &d.Version, &d.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan denomination view row: %w", err)
		}
		d.Type = domain.DenominationType(typ)
		denoms = append(denoms, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate denomination view rows: %w", err)
	}
	return denoms, nil
}

// ListTransactions returns one page of matching rows, newest first, plus the total match count.
func (r *ReadModelStore) ListTransactions(ctx context.Context, walletID uuid.UUID, filter domain.TransactionFilter, page domain.Page) ([]domain.TransactionView, int64, error) {
	page = page.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("wallet_id = $%d", argIdx))
	args = append(args, walletID)
	argIdx++

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, string(filter.Type))
		argIdx++
	}
	if filter.DenominationID != nil {
		conditions = append(conditions, fmt.Sprintf("denomination_id = $%d", argIdx))
		args = append(args, *filter.DenominationID)
		argIdx++
	}
	if filter.TransactionGroupID != nil {
		conditions = append(conditions, fmt.Sprintf("transaction_group_id = $%d", argIdx))
		args = append(args, *filter.TransactionGroupID)
		argIdx++
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *filter.From)
		argIdx++
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", argIdx))
		args = append(args, *filter.To)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transaction_views %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transaction views: %w", err)
	}

	// Fetch page
	dataQuery := fmt.Sprintf(`SELECT %s FROM transaction_views %s
		ORDER BY version DESC, line_no LIMIT $%d OFFSET $%d`, transactionViewColumns, where, argIdx, argIdx+1)
	args = append(args, page.PageSize, page.Offset())

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transaction views: %w", err)
	}
	defer rows.Close()

	txns := make([]domain.TransactionView, 0)
	for rows.Next() {
		var t domain.TransactionView
		var typ, denomType string
		err := rows.Scan(
			&t.ID, &t.TransactionGroupID, &t.WalletID, &t.EventID, &t.Version, &typ,
			&t.DenominationID, &t.DenominationName, &denomType, &t.DenominationValue,
			&t.Quantity, &t.Amount, &t.Currency, &t.ActorID, &t.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction view row: %w", err)
		}
		t.Type = domain.TransactionType(typ)
		t.DenominationType = domain.DenominationType(denomType)
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction view rows: %w", err)
	}
	return txns, total, nil
}

// ApplyProjection writes change in one transaction if the wallet view is still at
// change.FromVersion. It reports false, and writes nothing, otherwise.
func (r *ReadModelStore) ApplyProjection(ctx context.Context, change domain.ProjectionChange) (bool, error) {
	applied := false
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		ok, err := advanceWalletView(ctx, tx, change)
		if err != nil || !ok {
			return err
		}

		for _, d := range change.Denominations {
			_, err := tx.Exec(ctx, `INSERT INTO denomination_views (`+denominationViewColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, type = EXCLUDED.type, value = EXCLUDED.value,
					count = EXCLUDED.count, removed = EXCLUDED.removed, version = EXCLUDED.version,
					updated_at = EXCLUDED.updated_at`,
				d.ID, d.WalletID, d.Name, string(d.Type), d.Value, d.Count, d.Removed, d.Version, d.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("upsert denomination view: %w", err)
			}
		}

		for i, t := range change.Transactions {
			_, err := tx.Exec(ctx, `INSERT INTO transaction_views (`+transactionViewColumns+`, line_no)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
				ON CONFLICT (id) DO NOTHING`,
				t.ID, t.TransactionGroupID, t.WalletID, t.EventID, t.Version, string(t.Type),
				t.DenominationID, t.DenominationName, string(t.DenominationType), t.DenominationValue,
				t.Quantity, t.Amount, t.Currency, t.ActorID, t.CreatedAt, i,
			)
			if err != nil {
				return fmt.Errorf("insert transaction view: %w", err)
			}
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// advanceWalletView inserts or version-guards the wallet row.
func advanceWalletView(ctx context.Context, tx pgx.Tx, change domain.ProjectionChange) (bool, error) {
	w := change.Wallet
	if change.FromVersion == 0 {
		tag, err := tx.Exec(ctx, `INSERT INTO wallet_views (`+walletViewColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (id) DO NOTHING`,
			w.ID, w.OwnerID, w.Name, w.Currency, w.Balance, w.Version, w.CreatedAt, w.UpdatedAt,
		)
		if err != nil {
			return false, fmt.Errorf("insert wallet view: %w", err)
		}
		return tag.RowsAffected() == 1, nil
	}

	tag, err := tx.Exec(ctx, `UPDATE wallet_views SET name = $1, currency = $2, balance = $3, version = $4, updated_at = $5
		WHERE id = $6 AND version = $7`,
		w.Name, w.Currency, w.Balance, w.Version, w.UpdatedAt, w.ID, change.FromVersion,
	)
	if err != nil {
		return false, fmt.Errorf("update wallet view: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Reset drops every view row.
func (r *ReadModelStore) Reset(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `TRUNCATE wallet_views, denomination_views, transaction_views`); err != nil {
		return fmt.Errorf("truncate views: %w", err)
	}
	return nil
}

func scanWalletView(row pgx.Row) (*domain.WalletView, error) {
	w := &domain.WalletView{}
	err := row.Scan(&w.ID, &w.OwnerID, &w.Name, &w.Currency, &w.Balance, &w.Version, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}
