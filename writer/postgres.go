package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	appconfig "quoteflow/config"
	"quoteflow/logger"
	"quoteflow/models"
)

const defaultTable = "market_data"

// marketDataRow is the persisted shape of one Record. The order book and
// raw payload are stored as jsonb so downstream charting can unpack levels
// without another parser.
type marketDataRow struct {
	ID        int64            `gorm:"primaryKey;autoIncrement"`
	Source    string           `gorm:"column:source;index"`
	Symbol    string           `gorm:"column:symbol"`
	Price     *decimal.Decimal `gorm:"column:price;type:numeric"`
	Bid       *decimal.Decimal `gorm:"column:bid;type:numeric"`
	Ask       *decimal.Decimal `gorm:"column:ask;type:numeric"`
	OrderBook *string          `gorm:"column:order_book;type:jsonb"`
	RawData   *string          `gorm:"column:raw_data;type:jsonb"`
	CreatedAt time.Time        `gorm:"column:created_at"`
}

func (marketDataRow) TableName() string { return defaultTable }

// PostgresWriter appends Record batches to the market data table with one
// insert per batch. The table is an append-only ingestion log: repeated
// identical batches create duplicate rows.
type PostgresWriter struct {
	db    *gorm.DB
	table string
	log   *logger.Log
}

// NewPostgresWriter opens the store connection and ensures the market data
// table exists.
func NewPostgresWriter(cfg *appconfig.Config) (*PostgresWriter, error) {
	db, err := gorm.Open(postgres.Open(cfg.Storage.Postgres.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	table := cfg.Storage.Postgres.Table
	if table == "" {
		table = defaultTable
	}
	if err := db.Table(table).AutoMigrate(&marketDataRow{}); err != nil {
		return nil, fmt.Errorf("migrate table %s: %w", table, err)
	}

	return &PostgresWriter{
		db:    db,
		table: table,
		log:   logger.GetLogger(),
	}, nil
}

// Write inserts the whole batch in one call.
func (w *PostgresWriter) Write(ctx context.Context, batch []models.Record) error {
	if len(batch) == 0 {
		return nil
	}
	rows := make([]marketDataRow, 0, len(batch))
	for _, rec := range batch {
		rows = append(rows, toRow(rec))
	}
	if err := w.db.WithContext(ctx).Table(w.table).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert %d market data rows: %w", len(rows), err)
	}
	w.log.WithComponent("postgres_writer").WithFields(logger.Fields{
		"table":   w.table,
		"records": len(rows),
	}).Debug("batch inserted")
	return nil
}

// Close releases the underlying connection pool.
func (w *PostgresWriter) Close() error {
	sqlDB, err := w.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRow(rec models.Record) marketDataRow {
	row := marketDataRow{
		Source:    string(rec.Source),
		Symbol:    rec.Symbol,
		Price:     rec.Price,
		Bid:       rec.Bid,
		Ask:       rec.Ask,
		CreatedAt: rec.FetchedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if rec.OrderBook != nil {
		if b, err := json.Marshal(rec.OrderBook); err == nil {
			s := string(b)
			row.OrderBook = &s
		}
	}
	if len(rec.Raw) > 0 {
		s := string(rec.Raw)
		row.RawData = &s
	}
	return row
}
