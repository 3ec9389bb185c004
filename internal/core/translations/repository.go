package translations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	api "go.opentelemetry.io/otel/metric"

	"github.com/LabelSafe/food-advisory-service/internal/infra/postgres"
	"github.com/LabelSafe/food-advisory-service/pkg/telemetry"
)

// ErrNotFound is returned by Find when no record exists for the barcode.
var ErrNotFound = errors.New("translation record not found")

// PostgresRepository stores translation cache records in the
// ingredient_translations table. Writes are keyed inserts of full records;
// concurrent inserts for the same barcode resolve to the first writer winning
// via ON CONFLICT DO NOTHING, which keeps the duplicate-miss race harmless.
type PostgresRepository struct {
	db postgres.DB
}

func NewPostgresRepository(db postgres.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Find(ctx context.Context, barcode string) (*CacheRecord, error) {
	query := `
		SELECT barcode, translations, ingredients_count, created_at
		FROM ingredient_translations
		WHERE barcode = $1`

	var record CacheRecord
	err := r.db.QueryRow(ctx, query, barcode).Scan(
		&record.Barcode, &record.Translations, &record.IngredientsCount, &record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		countDatabaseError(ctx, "find")
		return nil, fmt.Errorf("failed to query translation record: %w", err)
	}

	return &record, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, record *CacheRecord) error {
	query := `
		INSERT INTO ingredient_translations (
			id, barcode, translations, ingredients_count, created_at
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (barcode) DO NOTHING`

	_, err := r.db.Exec(ctx, query,
		uuid.New(), record.Barcode, record.Translations, record.IngredientsCount, record.CreatedAt,
	)
	if err != nil {
		countDatabaseError(ctx, "insert")
		return fmt.Errorf("failed to store translation record: %w", err)
	}

	return nil
}

func countDatabaseError(ctx context.Context, operation string) {
	if telemetry.DatabaseErrorsTotal != nil {
		telemetry.DatabaseErrorsTotal.Add(ctx, 1,
			api.WithAttributes(attribute.String("operation", operation)))
	}
}
