// Package journal is the durable audit sink for orders, trades, and risk
// alerts. Writes are fire-and-forget from the trading core's perspective:
// the engine and risk manager log journal failures and keep trading.
package journal

import (
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/voltgrid-lab/bess-trading/internal/types"
	"github.com/voltgrid-lab/bess-trading/pkg/errors"
)

// Journal appends orders, trades, and risk alerts to DuckDB tables.
type Journal struct {
	db *sql.DB
	sq squirrel.StatementBuilderType
}

// Open opens or creates the journal database. Use ":memory:" for an
// ephemeral journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalUnavailable, "failed to open journal database", err)
	}

	j := &Journal{
		db: db,
		sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := j.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return j, nil
}

func (j *Journal) initialize() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT,
			asset_id TEXT,
			market TEXT,
			side TEXT,
			order_type TEXT,
			status TEXT,
			requested_qty DOUBLE,
			filled_qty DOUBLE,
			price DOUBLE,
			limit_price DOUBLE,
			settlement_period TEXT,
			settlement_date TIMESTAMP,
			created_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id TEXT,
			order_id TEXT,
			asset_id TEXT,
			market TEXT,
			side TEXT,
			quantity DOUBLE,
			price DOUBLE,
			total_value DOUBLE,
			fees DOUBLE,
			net_value DOUBLE,
			executed_at TIMESTAMP,
			settlement_date TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS risk_alerts (
			id TEXT,
			asset_id TEXT,
			severity TEXT,
			metric TEXT,
			current_value DOUBLE,
			limit_value DOUBLE,
			message TEXT,
			created_at TIMESTAMP
		)`,
	}

	for _, stmt := range statements {
		if _, err := j.db.Exec(stmt); err != nil {
			return errors.Wrap(errors.ErrCodeJournalUnavailable, "failed to create journal tables", err)
		}
	}

	return nil
}

// AppendOrder records a terminal-or-updated order snapshot.
func (j *Journal) AppendOrder(order types.Order) error {
	query := j.sq.
		Insert("orders").
		Columns(
			"id", "asset_id", "market", "side", "order_type", "status",
			"requested_qty", "filled_qty", "price", "limit_price",
			"settlement_period", "settlement_date", "created_at",
		).
		Values(
			order.ID, order.AssetID, string(order.Market), string(order.Side), string(order.Type), string(order.Status),
			order.RequestedQty, order.FilledQty, order.Price, order.LimitPrice,
			order.SettlementPeriod, order.SettlementDate, order.CreatedAt,
		).
		RunWith(j.db)

	if _, err := query.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to append order", err)
	}

	return nil
}

// AppendTrade records an executed trade.
func (j *Journal) AppendTrade(trade types.Trade) error {
	query := j.sq.
		Insert("trades").
		Columns(
			"id", "order_id", "asset_id", "market", "side",
			"quantity", "price", "total_value", "fees", "net_value",
			"executed_at", "settlement_date",
		).
		Values(
			trade.ID, trade.OrderID, trade.AssetID, string(trade.Market), string(trade.Side),
			trade.Quantity, trade.Price, trade.TotalValue, trade.Fees, trade.NetValue,
			trade.ExecutedAt, trade.SettlementDate,
		).
		RunWith(j.db)

	if _, err := query.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to append trade", err)
	}

	return nil
}

// AppendAlert records a risk alert at creation time. Acknowledgement is a
// live-state concern and is not journaled.
func (j *Journal) AppendAlert(alert types.RiskAlert) error {
	query := j.sq.
		Insert("risk_alerts").
		Columns(
			"id", "asset_id", "severity", "metric",
			"current_value", "limit_value", "message", "created_at",
		).
		Values(
			alert.ID, alert.AssetID, string(alert.Severity), alert.Metric,
			alert.CurrentValue, alert.LimitValue, alert.Message, alert.Timestamp,
		).
		RunWith(j.db)

	if _, err := query.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to append alert", err)
	}

	return nil
}

// Trades returns the audit trail of trades for one asset in execution order.
func (j *Journal) Trades(assetID string) ([]types.Trade, error) {
	query := j.sq.
		Select(
			"id", "order_id", "asset_id", "market", "side",
			"quantity", "price", "total_value", "fees", "net_value",
			"executed_at", "settlement_date",
		).
		From("trades").
		Where(squirrel.Eq{"asset_id": assetID}).
		OrderBy("executed_at ASC").
		RunWith(j.db)

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var trade types.Trade

		var market, side string

		err := rows.Scan(
			&trade.ID, &trade.OrderID, &trade.AssetID, &market, &side,
			&trade.Quantity, &trade.Price, &trade.TotalValue, &trade.Fees, &trade.NetValue,
			&trade.ExecutedAt, &trade.SettlementDate,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to scan trade", err)
		}

		trade.Market = types.Market(market)
		trade.Side = types.OrderSide(side)
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "error iterating trades", err)
	}

	return trades, nil
}

// OrderCount returns the number of journaled order snapshots for an asset.
func (j *Journal) OrderCount(assetID string) (int, error) {
	var count int

	query := j.sq.
		Select("COUNT(*)").
		From("orders").
		Where(squirrel.Eq{"asset_id": assetID}).
		RunWith(j.db)

	if err := query.QueryRow().Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to count orders", err)
	}

	return count, nil
}

// AlertCount returns the number of journaled alerts for an asset.
func (j *Journal) AlertCount(assetID string) (int, error) {
	var count int

	query := j.sq.
		Select("COUNT(*)").
		From("risk_alerts").
		Where(squirrel.Eq{"asset_id": assetID}).
		RunWith(j.db)

	if err := query.QueryRow().Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to count alerts", err)
	}

	return count, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if err := j.db.Close(); err != nil {
		return fmt.Errorf("failed to close journal: %w", err)
	}

	return nil
}
