package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/annuaire-sante/backend/internal/application/services"
	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/repositories"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
)

func TestStructureService_Create(t *testing.T) {
	repo := new(MockStructureRepository)
	indexer := new(MockStructureIndexer)
	index := services.NewIndexSyncService(repo, indexer, nil)
	svc := services.NewStructureService(repo, index, nil)

	structure := &entities.Structure{Name: "  Hôpital de Zone  ", Type: entities.StructureTypeHospital}

	repo.On("Create", mock.Anything, structure).Run(func(args mock.Arguments) {
		args.Get(1).(*entities.Structure).ID = 12
	}).Return(nil)
	repo.On("GetVerified", mock.Anything, int64(12)).Return(nil, apperrors.NewNotFoundError("structure not found"))
	indexer.On("Delete", mock.Anything, int64(12)).Return(nil)

	require.NoError(t, svc.Create(context.Background(), admin, structure))
	assert.Equal(t, "Hôpital de Zone", structure.Name)
	assert.Equal(t, entities.VerificationPending, structure.Status)
	indexer.AssertExpectations(t)
}

func TestStructureService_Create_IndexFailureDoesNotFail(t *testing.T) {
	repo := new(MockStructureRepository)
	indexer := new(MockStructureIndexer)
	svc := services.NewStructureService(repo, services.NewIndexSyncService(repo, indexer, nil), nil)

	structure := &entities.Structure{Name: "Pharmacie", Type: entities.StructureTypePharmacy, Status: entities.VerificationVerified}
	repo.On("Create", mock.Anything, structure).Return(nil)
	repo.On("GetVerified", mock.Anything, mock.Anything).Return(structure, nil)
	indexer.On("Index", mock.Anything, structure).Return(errors.New("typesense down"))

	assert.NoError(t, svc.Create(context.Background(), admin, structure))
}

func TestStructureService_Create_RequiresAdmin(t *testing.T) {
	svc := services.NewStructureService(new(MockStructureRepository), nil, nil)

	err := svc.Create(context.Background(), manager5, &entities.Structure{Name: "X", Type: entities.StructureTypeClinic})
	assert.Equal(t, apperrors.ErrorTypeForbidden, apperrors.TypeOf(err))

	err = svc.Create(context.Background(), nil, &entities.Structure{Name: "X", Type: entities.StructureTypeClinic})
	assert.Equal(t, apperrors.ErrorTypeUnauthenticated, apperrors.TypeOf(err))
}

func TestStructureService_Create_Validation(t *testing.T) {
	svc := services.NewStructureService(new(MockStructureRepository), nil, nil)

	err := svc.Create(context.Background(), admin, &entities.Structure{
		Type:     "spa",
		Latitude: floatPtr(6.3),
	})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	assert.Contains(t, appErr.Fields, "name")
	assert.Contains(t, appErr.Fields, "type")
	assert.Contains(t, appErr.Fields, "latitude")
}

func TestStructureService_Create_OpeningHoursAliases(t *testing.T) {
	svc := services.NewStructureService(new(MockStructureRepository), nil, nil)

	err := svc.Create(context.Background(), admin, &entities.Structure{
		Name: "Pharmacie du Port",
		Type: entities.StructureTypePharmacy,
		OpeningHours: entities.OpeningHours{
			"monday": {Open: "08:00", Close: "18:00"},
			"Lundi":  {Closed: true},
		},
	})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	assert.Contains(t, appErr.Fields, "opening_hours")

	repo := new(MockStructureRepository)
	structure := &entities.Structure{
		Name:         "Pharmacie du Port",
		Type:         entities.StructureTypePharmacy,
		OpeningHours: entities.OpeningHours{"Lundi": {Open: "08:00", Close: "18:00"}},
	}
	repo.On("Create", mock.Anything, structure).Return(nil)

	require.NoError(t, services.NewStructureService(repo, nil, nil).Create(context.Background(), admin, structure))
	assert.Equal(t, entities.OpeningHours{"monday": {Open: "08:00", Close: "18:00"}}, structure.OpeningHours)
}

func TestStructureService_Update_ManagerKeepsStatusAndManager(t *testing.T) {
	repo := new(MockStructureRepository)
	svc := services.NewStructureService(repo, nil, nil)

	existing := managedStructure(5, 5)
	repo.On("GetByID", mock.Anything, int64(5)).Return(existing, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	changes := &entities.Structure{ID: 5, Name: "Nouveau nom", Type: entities.StructureTypeClinic}
	require.NoError(t, svc.Update(context.Background(), manager5, changes))
	assert.Equal(t, entities.VerificationVerified, changes.Status)
	require.NotNil(t, changes.ManagerID)
	assert.Equal(t, int64(5), *changes.ManagerID)

	promote := &entities.Structure{ID: 5, Name: "X", Type: entities.StructureTypeClinic, Status: entities.VerificationRejected}
	err := svc.Update(context.Background(), manager5, promote)
	assert.Equal(t, apperrors.ErrorTypeForbidden, apperrors.TypeOf(err))

	handOver := &entities.Structure{ID: 5, Name: "X", Type: entities.StructureTypeClinic, ManagerID: int64Ptr(8)}
	err = svc.Update(context.Background(), manager5, handOver)
	assert.Equal(t, apperrors.ErrorTypeForbidden, apperrors.TypeOf(err))
}

func TestStructureService_Update_OtherManagerForbidden(t *testing.T) {
	repo := new(MockStructureRepository)
	repo.On("GetByID", mock.Anything, int64(6)).Return(managedStructure(6, 7), nil)
	svc := services.NewStructureService(repo, nil, nil)

	err := svc.Update(context.Background(), manager5, &entities.Structure{ID: 6, Name: "X", Type: entities.StructureTypeClinic})
	assert.Equal(t, apperrors.ErrorTypeForbidden, apperrors.TypeOf(err))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestStructureService_Delete(t *testing.T) {
	repo := new(MockStructureRepository)
	indexer := new(MockStructureIndexer)
	svc := services.NewStructureService(repo, services.NewIndexSyncService(repo, indexer, nil), nil)

	repo.On("Delete", mock.Anything, int64(3)).Return(nil)
	indexer.On("Delete", mock.Anything, int64(3)).Return(nil)

	err := svc.Delete(context.Background(), manager5, 3)
	assert.Equal(t, apperrors.ErrorTypeForbidden, apperrors.TypeOf(err))

	require.NoError(t, svc.Delete(context.Background(), admin, 3))
	indexer.AssertCalled(t, "Delete", mock.Anything, int64(3))
}

func TestStructureService_List_IgnoresAllType(t *testing.T) {
	repo := new(MockStructureRepository)
	repo.On("ListVerified", mock.Anything, repositories.StructureFilter{}).Return([]*entities.Structure{}, nil)
	svc := services.NewStructureService(repo, nil, nil)

	_, err := svc.List(context.Background(), entities.StructureTypeAll)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
