package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cataloghq/catalog-ingest/internal/domain/catalog"
)

// upsertProductSQL merges one record in a single atomic statement keyed by
// the case-folded sku. Parameters for unprovided fields arrive as NULL:
// COALESCE keeps the existing value on update, and the insert branch falls
// back to the declared defaults. Never split into a read plus a write; two
// jobs may upsert the same key concurrently.
const upsertProductSQL = `
INSERT INTO products (sku, name, description, price, active, created_at, updated_at)
VALUES ($1, COALESCE($2, ''), $3, $4, TRUE, NOW(), NOW())
ON CONFLICT (lower(sku)) DO UPDATE
  SET name        = COALESCE($2, products.name),
      description = COALESCE($3, products.description),
      price       = COALESCE($4, products.price),
      updated_at  = NOW()
RETURNING (xmax = 0) AS inserted
`

type ProductMergeRepository struct {
	pool *pgxpool.Pool
}

func NewProductMergeRepository(pool *pgxpool.Pool) *ProductMergeRepository {
	return &ProductMergeRepository{pool: pool}
}

// MergeChunk applies one chunk of validated records inside a single
// transaction, batched over one round trip. Integrity failures surface as
// catalog.ErrConstraintViolation and roll the whole chunk back; chunks
// committed earlier stay persisted.
func (r *ProductMergeRepository) MergeChunk(ctx context.Context, records []catalog.Record) (catalog.MergeResult, error) {
	result := catalog.MergeResult{}
	if len(records) == 0 {
		return result, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("begin merge tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(upsertProductSQL, rec.SKU, rec.Name, rec.Description, rec.Price).
			QueryRow(func(row pgx.Row) error {
				var inserted bool
				if err := row.Scan(&inserted); err != nil {
					return err
				}
				if inserted {
					result.Inserted++
				} else {
					result.Updated++
				}
				return nil
			})
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return catalog.MergeResult{}, classifyMergeError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return catalog.MergeResult{}, fmt.Errorf("commit merge chunk: %w", err)
	}

	return result, nil
}

func classifyMergeError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%w: %s", catalog.ErrConstraintViolation, pgErr.Message)
	}
	return fmt.Errorf("merge chunk: %w", err)
}
