package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/repositories"
	"github.com/annuaire-sante/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
)

// AssociationAdapter implements the AssociationRepository interface. Every
// mutation locks the structure row first so that concurrent changes to
// the same structure's relations are serialized.
type AssociationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.AssociationRepository = (*AssociationAdapter)(nil)

// NewAssociationAdapter creates a new association adapter
func NewAssociationAdapter(client *postgres.Client) *AssociationAdapter {
	return &AssociationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// pivotTable describes one association table
type pivotTable struct {
	table        string
	relatedTable string
	relatedKey   string
	label        string
}

var (
	servicePivots = pivotTable{
		table: "structure_services", relatedTable: "services",
		relatedKey: "service_id", label: "service",
	}
	insurancePivots = pivotTable{
		table: "structure_insurances", relatedTable: "insurance_companies",
		relatedKey: "insurance_id", label: "insurance company",
	}
	stockPivots = pivotTable{
		table: "stock_items", relatedTable: "products",
		relatedKey: "product_id", label: "product",
	}
)

// AttachService attaches a service to a structure
func (a *AssociationAdapter) AttachService(ctx context.Context, pivot *entities.ServicePivot) (*entities.ServicePivot, error) {
	out := &entities.ServicePivot{}
	err := a.attach(ctx, servicePivots, pivot.StructureID, pivot.ServiceID, goqu.Record{
		"availability": string(pivot.Availability),
		"notes":        pivot.Notes,
	}, []interface{}{"structure_id", "service_id", "availability", "notes"}, func(row rowScanner) error {
		return scanServicePivot(row, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateService replaces the pivot data of an attached service
func (a *AssociationAdapter) UpdateService(ctx context.Context, pivot *entities.ServicePivot) (*entities.ServicePivot, error) {
	out := &entities.ServicePivot{}
	err := a.update(ctx, servicePivots, pivot.StructureID, pivot.ServiceID, goqu.Record{
		"availability": string(pivot.Availability),
		"notes":        pivot.Notes,
	}, []interface{}{"structure_id", "service_id", "availability", "notes"}, func(row rowScanner) error {
		return scanServicePivot(row, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DetachService removes a service from a structure
func (a *AssociationAdapter) DetachService(ctx context.Context, structureID, serviceID int64) error {
	return a.detach(ctx, servicePivots, structureID, serviceID)
}

// AttachInsurance affiliates an insurance company with a structure
func (a *AssociationAdapter) AttachInsurance(ctx context.Context, pivot *entities.InsurancePivot) (*entities.InsurancePivot, error) {
	out := &entities.InsurancePivot{}
	err := a.attach(ctx, insurancePivots, pivot.StructureID, pivot.InsuranceID, goqu.Record{
		"modalities": pivot.Modalities,
	}, []interface{}{"structure_id", "insurance_id", "modalities"}, func(row rowScanner) error {
		return row.Scan(&out.StructureID, &out.InsuranceID, &out.Modalities)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateInsurance replaces the modalities of an affiliation
func (a *AssociationAdapter) UpdateInsurance(ctx context.Context, pivot *entities.InsurancePivot) (*entities.InsurancePivot, error) {
	out := &entities.InsurancePivot{}
	err := a.update(ctx, insurancePivots, pivot.StructureID, pivot.InsuranceID, goqu.Record{
		"modalities": pivot.Modalities,
	}, []interface{}{"structure_id", "insurance_id", "modalities"}, func(row rowScanner) error {
		return row.Scan(&out.StructureID, &out.InsuranceID, &out.Modalities)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DetachInsurance removes an affiliation
func (a *AssociationAdapter) DetachInsurance(ctx context.Context, structureID, insuranceID int64) error {
	return a.detach(ctx, insurancePivots, structureID, insuranceID)
}

// AttachStock adds a product to a structure's stock
func (a *AssociationAdapter) AttachStock(ctx context.Context, item *entities.StockItem) (*entities.StockItem, error) {
	out := &entities.StockItem{}
	err := a.attach(ctx, stockPivots, item.StructureID, item.ProductID, goqu.Record{
		"quantity":   item.Quantity,
		"status":     string(item.Status),
		"updated_at": time.Now().UTC(),
	}, stockReturning, func(row rowScanner) error {
		return scanStockItem(row, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStock replaces the quantity and status of a stocked product
func (a *AssociationAdapter) UpdateStock(ctx context.Context, item *entities.StockItem) (*entities.StockItem, error) {
	out := &entities.StockItem{}
	err := a.update(ctx, stockPivots, item.StructureID, item.ProductID, goqu.Record{
		"quantity":   item.Quantity,
		"status":     string(item.Status),
		"updated_at": time.Now().UTC(),
	}, stockReturning, func(row rowScanner) error {
		return scanStockItem(row, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DetachStock removes a product from a structure's stock
func (a *AssociationAdapter) DetachStock(ctx context.Context, structureID, productID int64) error {
	return a.detach(ctx, stockPivots, structureID, productID)
}

var stockReturning = []interface{}{"structure_id", "product_id", "quantity", "status", "updated_at"}

func (a *AssociationAdapter) attach(ctx context.Context, p pivotTable, structureID, relatedID int64, data goqu.Record, returning []interface{}, scan func(rowScanner) error) error {
	return a.client.WithTx(ctx, func(tx *sql.Tx) error {
		if err := a.lockStructure(ctx, tx, structureID); err != nil {
			return err
		}
		if err := a.requireRelated(ctx, tx, p, relatedID); err != nil {
			return err
		}

		record := goqu.Record{"structure_id": structureID, p.relatedKey: relatedID}
		for k, v := range data {
			record[k] = v
		}

		query, args, err := a.db.Insert(p.table).
			Rows(record).
			OnConflict(goqu.DoNothing()).
			Returning(returning...).
			ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build insert query", err)
		}

		err = scan(tx.QueryRowContext(ctx, query, args...))
		if err == sql.ErrNoRows {
			return apperrors.NewConflictError(fmt.Sprintf("%s %d is already attached to structure %d", p.label, relatedID, structureID))
		}
		if err != nil {
			return translateError(err, "failed to attach "+p.label)
		}
		return nil
	})
}

func (a *AssociationAdapter) update(ctx context.Context, p pivotTable, structureID, relatedID int64, data goqu.Record, returning []interface{}, scan func(rowScanner) error) error {
	return a.client.WithTx(ctx, func(tx *sql.Tx) error {
		if err := a.lockStructure(ctx, tx, structureID); err != nil {
			return err
		}

		query, args, err := a.db.Update(p.table).
			Set(data).
			Where(goqu.Ex{"structure_id": structureID, p.relatedKey: relatedID}).
			Returning(returning...).
			ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build update query", err)
		}

		err = scan(tx.QueryRowContext(ctx, query, args...))
		if err == sql.ErrNoRows {
			return apperrors.NewNotFoundError(fmt.Sprintf("%s %d is not attached to structure %d", p.label, relatedID, structureID))
		}
		if err != nil {
			return translateError(err, "failed to update "+p.label)
		}
		return nil
	})
}

func (a *AssociationAdapter) detach(ctx context.Context, p pivotTable, structureID, relatedID int64) error {
	return a.client.WithTx(ctx, func(tx *sql.Tx) error {
		if err := a.lockStructure(ctx, tx, structureID); err != nil {
			return err
		}

		query, args, err := a.db.Delete(p.table).
			Where(goqu.Ex{"structure_id": structureID, p.relatedKey: relatedID}).
			ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build delete query", err)
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return apperrors.NewInternalError("failed to detach "+p.label, err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return apperrors.NewInternalError("failed to get rows affected", err)
		}
		if rowsAffected == 0 {
			return apperrors.NewNotFoundError(fmt.Sprintf("%s %d is not attached to structure %d", p.label, relatedID, structureID))
		}
		return nil
	})
}

func (a *AssociationAdapter) lockStructure(ctx context.Context, tx *sql.Tx, structureID int64) error {
	query, args, err := a.db.From("structures").
		Select("id").
		Where(goqu.Ex{"id": structureID}).
		ForUpdate(exp.Wait).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build lock query", err)
	}

	var id int64
	err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return apperrors.NewNotFoundError(fmt.Sprintf("structure with id %d not found", structureID))
	}
	if err != nil {
		return apperrors.NewInternalError("failed to lock structure", err)
	}
	return nil
}

func (a *AssociationAdapter) requireRelated(ctx context.Context, tx *sql.Tx, p pivotTable, relatedID int64) error {
	query, args, err := a.db.From(p.relatedTable).
		Select("id").
		Where(goqu.Ex{"id": relatedID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build query", err)
	}

	var id int64
	err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return apperrors.NewNotFoundError(fmt.Sprintf("%s with id %d not found", p.label, relatedID))
	}
	if err != nil {
		return apperrors.NewInternalError("failed to look up "+p.label, err)
	}
	return nil
}

func scanServicePivot(row rowScanner, out *entities.ServicePivot) error {
	var availability string
	if err := row.Scan(&out.StructureID, &out.ServiceID, &availability, &out.Notes); err != nil {
		return err
	}
	out.Availability = entities.Availability(availability)
	return nil
}

func scanStockItem(row rowScanner, out *entities.StockItem) error {
	var status string
	if err := row.Scan(&out.StructureID, &out.ProductID, &out.Quantity, &status, &out.UpdatedAt); err != nil {
		return err
	}
	out.Status = entities.StockStatus(status)
	return nil
}
