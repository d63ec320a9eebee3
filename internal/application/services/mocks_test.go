package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/providers"
	"github.com/annuaire-sante/backend/internal/domain/repositories"
)

type MockStructureRepository struct {
	mock.Mock
}

func (m *MockStructureRepository) ListVerified(ctx context.Context, filter repositories.StructureFilter) ([]*entities.Structure, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Structure), args.Error(1)
}

func (m *MockStructureRepository) GetVerified(ctx context.Context, id int64) (*entities.Structure, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Structure), args.Error(1)
}

func (m *MockStructureRepository) GetByID(ctx context.Context, id int64) (*entities.Structure, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Structure), args.Error(1)
}

func (m *MockStructureRepository) ListAll(ctx context.Context, filter repositories.StructureFilter) ([]*entities.Structure, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Structure), args.Error(1)
}

func (m *MockStructureRepository) Create(ctx context.Context, structure *entities.Structure) error {
	args := m.Called(ctx, structure)
	return args.Error(0)
}

func (m *MockStructureRepository) Update(ctx context.Context, structure *entities.Structure) error {
	args := m.Called(ctx, structure)
	return args.Error(0)
}

func (m *MockStructureRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockAssociationRepository struct {
	mock.Mock
}

func (m *MockAssociationRepository) AttachService(ctx context.Context, pivot *entities.ServicePivot) (*entities.ServicePivot, error) {
	args := m.Called(ctx, pivot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ServicePivot), args.Error(1)
}

func (m *MockAssociationRepository) UpdateService(ctx context.Context, pivot *entities.ServicePivot) (*entities.ServicePivot, error) {
	args := m.Called(ctx, pivot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ServicePivot), args.Error(1)
}

func (m *MockAssociationRepository) DetachService(ctx context.Context, structureID, serviceID int64) error {
	args := m.Called(ctx, structureID, serviceID)
	return args.Error(0)
}

func (m *MockAssociationRepository) AttachInsurance(ctx context.Context, pivot *entities.InsurancePivot) (*entities.InsurancePivot, error) {
	args := m.Called(ctx, pivot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.InsurancePivot), args.Error(1)
}

func (m *MockAssociationRepository) UpdateInsurance(ctx context.Context, pivot *entities.InsurancePivot) (*entities.InsurancePivot, error) {
	args := m.Called(ctx, pivot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.InsurancePivot), args.Error(1)
}

func (m *MockAssociationRepository) DetachInsurance(ctx context.Context, structureID, insuranceID int64) error {
	args := m.Called(ctx, structureID, insuranceID)
	return args.Error(0)
}

func (m *MockAssociationRepository) AttachStock(ctx context.Context, item *entities.StockItem) (*entities.StockItem, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.StockItem), args.Error(1)
}

func (m *MockAssociationRepository) UpdateStock(ctx context.Context, item *entities.StockItem) (*entities.StockItem, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.StockItem), args.Error(1)
}

func (m *MockAssociationRepository) DetachStock(ctx context.Context, structureID, productID int64) error {
	args := m.Called(ctx, structureID, productID)
	return args.Error(0)
}

type MockEvaluationRepository struct {
	mock.Mock
}

func (m *MockEvaluationRepository) ListByStructure(ctx context.Context, structureID int64) ([]*entities.Evaluation, error) {
	args := m.Called(ctx, structureID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Evaluation), args.Error(1)
}

func (m *MockEvaluationRepository) Exists(ctx context.Context, structureID, userID int64) (bool, error) {
	args := m.Called(ctx, structureID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEvaluationRepository) Create(ctx context.Context, evaluation *entities.Evaluation) error {
	args := m.Called(ctx, evaluation)
	return args.Error(0)
}

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) ListServices(ctx context.Context) ([]*entities.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Service), args.Error(1)
}

func (m *MockCatalogRepository) CreateService(ctx context.Context, service *entities.Service) error {
	return m.Called(ctx, service).Error(0)
}

func (m *MockCatalogRepository) ListInsurances(ctx context.Context) ([]*entities.InsuranceCompany, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.InsuranceCompany), args.Error(1)
}

func (m *MockCatalogRepository) CreateInsurance(ctx context.Context, insurance *entities.InsuranceCompany) error {
	return m.Called(ctx, insurance).Error(0)
}

func (m *MockCatalogRepository) ListProducts(ctx context.Context) ([]*entities.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Product), args.Error(1)
}

func (m *MockCatalogRepository) CreateProduct(ctx context.Context, product *entities.Product) error {
	return m.Called(ctx, product).Error(0)
}

type MockSearchHistoryRepository struct {
	mock.Mock
}

func (m *MockSearchHistoryRepository) Create(ctx context.Context, entry *entities.SearchHistory) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockSearchHistoryRepository) ListRecent(ctx context.Context, limit int) ([]*entities.SearchHistory, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SearchHistory), args.Error(1)
}

func (m *MockSearchHistoryRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockStructureIndexer struct {
	mock.Mock
}

func (m *MockStructureIndexer) EnsureSchema(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockStructureIndexer) Index(ctx context.Context, structure *entities.Structure) error {
	return m.Called(ctx, structure).Error(0)
}

func (m *MockStructureIndexer) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStructureIndexer) Suggest(ctx context.Context, q string, limit int) ([]*providers.StructureSuggestion, error) {
	args := m.Called(ctx, q, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*providers.StructureSuggestion), args.Error(1)
}

func (m *MockStructureIndexer) Reset(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func floatPtr(v float64) *float64 { return &v }

func int64Ptr(v int64) *int64 { return &v }
