package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/repositories"
	"github.com/annuaire-sante/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
)

var structureColumns = []interface{}{
	"id", "name", "type",
	"street", "neighborhood", "city", "commune", "department",
	"latitude", "longitude", "phone", "email", "website",
	"opening_hours", "on_duty", "on_duty_from", "on_duty_to",
	"status", "manager_id", "created_at", "updated_at",
}

// StructureAdapter implements the StructureRepository interface
type StructureAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.StructureRepository = (*StructureAdapter)(nil)

// NewStructureAdapter creates a new structure adapter
func NewStructureAdapter(client *postgres.Client) *StructureAdapter {
	return &StructureAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListVerified returns verified structures ordered by name, hydrated
func (a *StructureAdapter) ListVerified(ctx context.Context, filter repositories.StructureFilter) ([]*entities.Structure, error) {
	filter.Status = entities.VerificationVerified
	return a.list(ctx, filter)
}

// ListAll returns structures of any status unless the filter names one
func (a *StructureAdapter) ListAll(ctx context.Context, filter repositories.StructureFilter) ([]*entities.Structure, error) {
	return a.list(ctx, filter)
}

func (a *StructureAdapter) list(ctx context.Context, filter repositories.StructureFilter) ([]*entities.Structure, error) {
	ds := a.db.From("structures").Select(structureColumns...)
	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": string(filter.Status)})
	}
	if filter.Type != "" && filter.Type != entities.StructureTypeAll {
		ds = ds.Where(goqu.Ex{"type": string(filter.Type)})
	}

	query, args, err := ds.Order(goqu.I("name").Asc(), goqu.I("id").Asc()).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list structures", err)
	}
	defer rows.Close()

	structures := []*entities.Structure{}
	for rows.Next() {
		s, err := scanStructure(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan structure", err)
		}
		structures = append(structures, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate structures", err)
	}

	if err := a.hydrate(ctx, structures); err != nil {
		return nil, err
	}
	return structures, nil
}

// GetVerified returns one verified structure with its collections
func (a *StructureAdapter) GetVerified(ctx context.Context, id int64) (*entities.Structure, error) {
	s, err := a.getOne(ctx, goqu.Ex{"id": id, "status": string(entities.VerificationVerified)})
	if err != nil {
		return nil, err
	}
	if err := a.hydrate(ctx, []*entities.Structure{s}); err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID returns a structure of any status, without collections
func (a *StructureAdapter) GetByID(ctx context.Context, id int64) (*entities.Structure, error) {
	return a.getOne(ctx, goqu.Ex{"id": id})
}

func (a *StructureAdapter) getOne(ctx context.Context, where goqu.Ex) (*entities.Structure, error) {
	query, args, err := a.db.From("structures").Select(structureColumns...).Where(where).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	s, err := scanStructure(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("structure with id %v not found", where["id"]))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get structure", err)
	}
	return s, nil
}

// Create inserts a structure and fills its ID and timestamps
func (a *StructureAdapter) Create(ctx context.Context, structure *entities.Structure) error {
	now := time.Now().UTC()
	record := structureRecord(structure)
	record["created_at"] = now
	record["updated_at"] = now

	query, args, err := a.db.Insert("structures").Rows(record).Returning("id").ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&structure.ID); err != nil {
		return translateError(err, "failed to create structure")
	}

	structure.CreatedAt = now
	structure.UpdatedAt = now
	return nil
}

// Update replaces the structure's own columns
func (a *StructureAdapter) Update(ctx context.Context, structure *entities.Structure) error {
	structure.UpdatedAt = time.Now().UTC()
	record := structureRecord(structure)
	record["updated_at"] = structure.UpdatedAt

	query, args, err := a.db.Update("structures").
		Set(record).
		Where(goqu.Ex{"id": structure.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(err, "failed to update structure")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("structure with id %d not found", structure.ID))
	}
	return nil
}

// Delete removes a structure; services, insurances, stock and
// evaluations cascade in the schema
func (a *StructureAdapter) Delete(ctx context.Context, id int64) error {
	query, args, err := a.db.Delete("structures").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete structure", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("structure with id %d not found", id))
	}
	return nil
}

func structureRecord(s *entities.Structure) goqu.Record {
	return goqu.Record{
		"name":          s.Name,
		"type":          string(s.Type),
		"street":        s.Address.Street,
		"neighborhood":  s.Address.Neighborhood,
		"city":          s.Address.City,
		"commune":       s.Address.Commune,
		"department":    s.Address.Department,
		"latitude":      nullFloat(s.Latitude),
		"longitude":     nullFloat(s.Longitude),
		"phone":         s.Phone,
		"email":         s.Email,
		"website":       s.Website,
		"opening_hours": s.OpeningHours,
		"on_duty":       s.OnDuty,
		"on_duty_from":  nullTime(s.OnDutyFrom),
		"on_duty_to":    nullTime(s.OnDutyTo),
		"status":        string(s.Status),
		"manager_id":    nullInt64(s.ManagerID),
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStructure(row rowScanner) (*entities.Structure, error) {
	s := &entities.Structure{}
	var (
		structureType, status string
		lat, lon              sql.NullFloat64
		onDutyFrom, onDutyTo  sql.NullTime
		managerID             sql.NullInt64
	)

	err := row.Scan(
		&s.ID, &s.Name, &structureType,
		&s.Address.Street, &s.Address.Neighborhood, &s.Address.City, &s.Address.Commune, &s.Address.Department,
		&lat, &lon, &s.Phone, &s.Email, &s.Website,
		&s.OpeningHours, &s.OnDuty, &onDutyFrom, &onDutyTo,
		&status, &managerID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Type = entities.StructureType(structureType)
	s.Status = entities.VerificationStatus(status)
	s.Latitude = floatPtr(lat)
	s.Longitude = floatPtr(lon)
	s.OnDutyFrom = timePtr(onDutyFrom)
	s.OnDutyTo = timePtr(onDutyTo)
	s.ManagerID = int64Ptr(managerID)
	return s, nil
}
