package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/repositories"
	"github.com/annuaire-sante/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
)

const defaultHistoryLimit = 100

// SearchHistoryAdapter implements the SearchHistoryRepository interface
type SearchHistoryAdapter struct {
	client *postgres.Client
}

var _ repositories.SearchHistoryRepository = (*SearchHistoryAdapter)(nil)

// NewSearchHistoryAdapter creates a new search history adapter
func NewSearchHistoryAdapter(client *postgres.Client) *SearchHistoryAdapter {
	return &SearchHistoryAdapter{client: client}
}

// Create records a search
func (a *SearchHistoryAdapter) Create(ctx context.Context, entry *entities.SearchHistory) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO search_history
		(id, query, normalized_query, type, service_ids, insurance_ids,
		 latitude, longitude, radius_km, open_now, result_count, latency_ms, caller_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := a.client.DB().ExecContext(ctx, query,
		entry.ID,
		entry.Query,
		entry.NormalizedQuery,
		string(entry.Type),
		pq.Array(entry.ServiceIDs),
		pq.Array(entry.InsuranceIDs),
		nullFloat(entry.Latitude),
		nullFloat(entry.Longitude),
		nullFloat(entry.RadiusKm),
		entry.OpenNow,
		entry.ResultCount,
		entry.LatencyMs,
		nullInt64(entry.CallerID),
		entry.CreatedAt,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to record search", err)
	}
	return nil
}

// ListRecent returns the latest searches, newest first
func (a *SearchHistoryAdapter) ListRecent(ctx context.Context, limit int) ([]*entities.SearchHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	query := `
		SELECT id, query, normalized_query, type, service_ids, insurance_ids,
		       latitude, longitude, radius_km, open_now, result_count, latency_ms, caller_id, created_at
		FROM search_history
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := a.client.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list search history", err)
	}
	defer rows.Close()

	entries := []*entities.SearchHistory{}
	for rows.Next() {
		e := &entities.SearchHistory{}
		var (
			structureType  string
			serviceIDs     pq.Int64Array
			insuranceIDs   pq.Int64Array
			lat, lon, radi sql.NullFloat64
			callerID       sql.NullInt64
		)
		err := rows.Scan(
			&e.ID,
			&e.Query,
			&e.NormalizedQuery,
			&structureType,
			&serviceIDs,
			&insuranceIDs,
			&lat,
			&lon,
			&radi,
			&e.OpenNow,
			&e.ResultCount,
			&e.LatencyMs,
			&callerID,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan search history", err)
		}

		e.Type = entities.StructureType(structureType)
		e.ServiceIDs = []int64(serviceIDs)
		e.InsuranceIDs = []int64(insuranceIDs)
		e.Latitude = floatPtr(lat)
		e.Longitude = floatPtr(lon)
		e.RadiusKm = floatPtr(radi)
		e.CallerID = int64Ptr(callerID)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PurgeBefore deletes searches older than cutoff
func (a *SearchHistoryAdapter) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := a.client.DB().ExecContext(ctx, `DELETE FROM search_history WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to purge search history", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to get rows affected", err)
	}
	return n, nil
}
