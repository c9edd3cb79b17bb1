package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/krobus00/execution-simulator/internal/entity"
)

type SymbolMappingRepository struct {
	db *sqlx.DB
}

func NewSymbolMappingRepository(db *sqlx.DB) *SymbolMappingRepository {
	return &SymbolMappingRepository{db: db}
}

// GetKlineSymbol maps a trading symbol to the symbol its candles are stored
// under. Unmapped symbols map to themselves.
func (r *SymbolMappingRepository) GetKlineSymbol(ctx context.Context, exchange, symbol string) (string, error) {
	query, args, err := buildKlineSymbolQuery(exchange, symbol)
	if err != nil {
		return "", err
	}

	var klineSymbol string
	err = r.db.GetContext(ctx, &klineSymbol, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return symbol, nil
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(klineSymbol) == "" {
		return symbol, nil
	}

	return klineSymbol, nil
}

func buildKlineSymbolQuery(exchange, symbol string) (string, []any, error) {
	return sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("kline_symbol").
		From(entity.SymbolMapping{}.TableName()).
		Where(sq.Eq{"exchange": exchange, "symbol": symbol}).
		OrderBy("created_at desc").
		Limit(1).
		ToSql()
}
