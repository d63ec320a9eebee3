package database

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/repositories"
	"github.com/annuaire-sante/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
)

var evaluationColumns = []interface{}{"id", "structure_id", "user_id", "rating", "comment", "created_at"}

// EvaluationAdapter implements the EvaluationRepository interface
type EvaluationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.EvaluationRepository = (*EvaluationAdapter)(nil)

// NewEvaluationAdapter creates a new evaluation adapter
func NewEvaluationAdapter(client *postgres.Client) *EvaluationAdapter {
	return &EvaluationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListByStructure returns a structure's evaluations, newest first
func (a *EvaluationAdapter) ListByStructure(ctx context.Context, structureID int64) ([]*entities.Evaluation, error) {
	query, args, err := a.db.From("evaluations").
		Select(evaluationColumns...).
		Where(goqu.Ex{"structure_id": structureID}).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list evaluations", err)
	}
	defer rows.Close()

	evaluations := []*entities.Evaluation{}
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan evaluation", err)
		}
		evaluations = append(evaluations, e)
	}
	return evaluations, rows.Err()
}

// Exists reports whether the user already rated the structure
func (a *EvaluationAdapter) Exists(ctx context.Context, structureID, userID int64) (bool, error) {
	query, args, err := a.db.From("evaluations").
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{"structure_id": structureID, "user_id": userID}).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, apperrors.NewInternalError("failed to check evaluation", err)
	}
	return count > 0, nil
}

// Create inserts an evaluation. The (structure_id, user_id) unique index
// turns a racing duplicate into Conflict.
func (a *EvaluationAdapter) Create(ctx context.Context, evaluation *entities.Evaluation) error {
	evaluation.CreatedAt = time.Now().UTC()

	query, args, err := a.db.Insert("evaluations").Rows(goqu.Record{
		"structure_id": evaluation.StructureID,
		"user_id":      evaluation.UserID,
		"rating":       evaluation.Rating,
		"comment":      evaluation.Comment,
		"created_at":   evaluation.CreatedAt,
	}).Returning("id").ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&evaluation.ID); err != nil {
		return translateError(err, fmt.Sprintf("evaluation of structure %d by user %d", evaluation.StructureID, evaluation.UserID))
	}
	return nil
}

func scanEvaluation(row rowScanner) (*entities.Evaluation, error) {
	e := &entities.Evaluation{}
	if err := row.Scan(&e.ID, &e.StructureID, &e.UserID, &e.Rating, &e.Comment, &e.CreatedAt); err != nil {
		return nil, err
	}
	return e, nil
}
