package catalog

import (
	"context"
	"database/sql"

	"snackhub-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Reader resolves product snapshots for checkout in a single read.
type Reader interface {
	GetProducts(ctx context.Context, ids []string) ([]Snapshot, error)
}

type reader struct {
	db *sql.DB
}

func NewReader(db *sql.DB) Reader {
	return &reader{db: db}
}

func (r *reader) GetProducts(ctx context.Context, ids []string) ([]Snapshot, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetProducts"),
		zap.Int("id_count", len(ids)),
	)

	query := `
		SELECT id, name, price, stock, published
		FROM products
		WHERE id = ANY($1)
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		log.Error("failed to query product snapshots", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.Name, &s.Price, &s.Stock, &s.Published); err != nil {
			log.Error("failed to scan product snapshot", zap.Error(err))
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snapshots, nil
}
