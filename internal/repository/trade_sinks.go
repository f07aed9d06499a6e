package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"SignalBoard/internal/domain/models"
	drepo "SignalBoard/internal/domain/repository"
	pkgclickhouse "SignalBoard/pkg/clickhouse"
	pkgkafka "SignalBoard/pkg/kafka"
)

// ClickHouseTradeStore archives realized trades in ClickHouse.
type ClickHouseTradeStore struct {
	db       *sql.DB
	database string
	table    string
}

// NewClickHouseTradeStore creates ClickHouse storage for <database>.<table>.
func NewClickHouseTradeStore(db *sql.DB, database, table string) *ClickHouseTradeStore {
	return &ClickHouseTradeStore{db: db, database: database, table: table}
}

func (s *ClickHouseTradeStore) qualified() string {
	return s.database + "." + s.table
}

func (s *ClickHouseTradeStore) Init(ctx context.Context) error {
	for _, stmt := range pkgclickhouse.TradeSchema(s.database, s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init trades table: %w", err)
		}
	}
	return nil
}

// chunkSize bounds rows per INSERT statement.
const chunkSize = 1000

func (s *ClickHouseTradeStore) StoreBatch(ctx context.Context, trades []*models.Trade) error {
	for start := 0; start < len(trades); start += chunkSize {
		end := start + chunkSize
		if end > len(trades) {
			end = len(trades)
		}
		q, args := buildTradeInsert(s.qualified(), trades[start:end])
		if q == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert trades: %w", err)
		}
	}
	return nil
}

func buildTradeInsert(table string, trades []*models.Trade) (string, []interface{}) {
	values := make([]string, 0, len(trades))
	args := make([]interface{}, 0, len(trades)*7)
	for _, t := range trades {
		if t == nil || t.Symbol == "" || t.ExitTime.IsZero() {
			continue
		}
		var entry interface{}
		if !t.EntryTime.IsZero() {
			entry = t.EntryTime.UTC()
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			t.Symbol,
			entry,
			t.ExitTime.UTC(),
			t.EntryPrice,
			t.ExitPrice,
			t.PnLPercent,
			t.PnLDollar,
		)
	}
	if len(values) == 0 {
		return "", nil
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (symbol, entry_time, exit_time, entry_price, exit_price, pnl_percent, pnl_dollar) VALUES %s",
		table, strings.Join(values, ","),
	)
	return q, args
}

// Health pings the archive database.
func (s *ClickHouseTradeStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseTradeStore) Close() error {
	return nil // Managed by pkg
}

// KafkaTradePublisher emits one JSON message per trade keyed by symbol.
type KafkaTradePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaTradePublisher creates Kafka publisher.
func NewKafkaTradePublisher(producer *pkgkafka.Producer, topic string) *KafkaTradePublisher {
	return &KafkaTradePublisher{producer: producer, topic: topic}
}

func tradeMessage(t *models.Trade) pkgkafka.Message {
	return pkgkafka.Message{
		Key:     []byte(t.Symbol),
		Value:   t,
		Headers: map[string]string{"event": "trade.closed"},
	}
}

func (p *KafkaTradePublisher) PublishBatch(ctx context.Context, trades []*models.Trade) error {
	msgs := make([]pkgkafka.Message, 0, len(trades))
	for _, t := range trades {
		if t != nil {
			msgs = append(msgs, tradeMessage(t))
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaTradePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var (
	_ drepo.Storage   = (*ClickHouseTradeStore)(nil)
	_ drepo.Publisher = (*KafkaTradePublisher)(nil)
)
