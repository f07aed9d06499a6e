package clickhouse

import "fmt"

// TradeSchema returns idempotent DDL for the realized-trade archive.
// ReplacingMergeTree keyed on (symbol, exit_time) collapses re-sent trades.
func TradeSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
	symbol LowCardinality(String),
	entry_time Nullable(DateTime64(6, 'UTC')),
	exit_time DateTime64(6, 'UTC'),
	entry_price Float64,
	exit_price Float64,
	pnl_percent Float64,
	pnl_dollar Float64,
	recorded_at DateTime64(3, 'UTC') DEFAULT now64(3)
) ENGINE = ReplacingMergeTree(recorded_at)
ORDER BY (symbol, exit_time)`, database, table),
	}
}
