package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/annuaire-sante/backend/internal/application/services"
	"github.com/annuaire-sante/backend/internal/domain/entities"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
)

func TestEvaluationService_Submit(t *testing.T) {
	structures := new(MockStructureRepository)
	structures.On("GetVerified", mock.Anything, int64(4)).Return(verified(4, "Clinique", entities.StructureTypeClinic), nil)
	evaluations := new(MockEvaluationRepository)
	evaluations.On("Exists", mock.Anything, int64(4), int64(9)).Return(false, nil)
	evaluations.On("Create", mock.Anything, mock.AnythingOfType("*entities.Evaluation")).Return(nil)

	svc := services.NewEvaluationService(structures, evaluations, nil)

	evaluation := &entities.Evaluation{StructureID: 4, Rating: 5, Comment: " Très bon accueil "}
	require.NoError(t, svc.Submit(context.Background(), plainUser, evaluation))
	assert.Equal(t, int64(9), evaluation.UserID)
	assert.Equal(t, "Très bon accueil", evaluation.Comment)
	assert.False(t, evaluation.CreatedAt.IsZero())
}

func TestEvaluationService_Submit_SecondRatingConflicts(t *testing.T) {
	structures := new(MockStructureRepository)
	structures.On("GetVerified", mock.Anything, int64(4)).Return(verified(4, "Clinique", entities.StructureTypeClinic), nil)
	evaluations := new(MockEvaluationRepository)
	evaluations.On("Exists", mock.Anything, int64(4), int64(9)).Return(true, nil)

	svc := services.NewEvaluationService(structures, evaluations, nil)

	err := svc.Submit(context.Background(), plainUser, &entities.Evaluation{StructureID: 4, Rating: 3})
	assert.True(t, apperrors.IsConflict(err))
	evaluations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEvaluationService_Submit_RatingOutOfRange(t *testing.T) {
	svc := services.NewEvaluationService(new(MockStructureRepository), new(MockEvaluationRepository), nil)

	for _, rating := range []int{0, 6, -1} {
		err := svc.Submit(context.Background(), plainUser, &entities.Evaluation{StructureID: 4, Rating: rating})
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Contains(t, appErr.Fields, "rating")
	}
}

func TestEvaluationService_Submit_UnverifiedStructure(t *testing.T) {
	structures := new(MockStructureRepository)
	structures.On("GetVerified", mock.Anything, int64(4)).Return(nil, apperrors.NewNotFoundError("structure not found"))

	svc := services.NewEvaluationService(structures, new(MockEvaluationRepository), nil)

	err := svc.Submit(context.Background(), plainUser, &entities.Evaluation{StructureID: 4, Rating: 4})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestEvaluationService_Submit_Anonymous(t *testing.T) {
	svc := services.NewEvaluationService(new(MockStructureRepository), new(MockEvaluationRepository), nil)

	err := svc.Submit(context.Background(), nil, &entities.Evaluation{StructureID: 4, Rating: 4})
	assert.Equal(t, apperrors.ErrorTypeUnauthenticated, apperrors.TypeOf(err))
}
