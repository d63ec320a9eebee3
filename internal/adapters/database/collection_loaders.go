package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/lib/pq"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	apperrors "github.com/annuaire-sante/backend/pkg/errors"
)

const (
	loaderWait          = 2 * time.Millisecond
	loaderBatchCapacity = 500
)

// collectionLoaders batch the per-structure collections of one read so a
// listing costs one query per collection instead of one per structure.
// They are built per read and never cached across requests.
type collectionLoaders struct {
	services    *dataloader.Loader[int64, []entities.StructureService]
	insurances  *dataloader.Loader[int64, []entities.StructureInsurance]
	evaluations *dataloader.Loader[int64, []entities.Evaluation]
	stocks      *dataloader.Loader[int64, []entities.StockItem]
}

func newCollectionLoaders(q *collectionQueries) *collectionLoaders {
	return &collectionLoaders{
		services:    newCollectionLoader(q.services),
		insurances:  newCollectionLoader(q.insurances),
		evaluations: newCollectionLoader(q.evaluations),
		stocks:      newCollectionLoader(q.stocks),
	}
}

func newCollectionLoader[V any](fetch func(ctx context.Context, ids []int64) (map[int64][]V, error)) *dataloader.Loader[int64, []V] {
	batch := func(ctx context.Context, keys []int64) []*dataloader.Result[[]V] {
		results := make([]*dataloader.Result[[]V], len(keys))
		grouped, err := fetch(ctx, keys)
		for i, key := range keys {
			if err != nil {
				results[i] = &dataloader.Result[[]V]{Error: err}
				continue
			}
			items := grouped[key]
			if items == nil {
				items = []V{}
			}
			results[i] = &dataloader.Result[[]V]{Data: items}
		}
		return results
	}

	return dataloader.NewBatchedLoader(batch,
		dataloader.WithWait[int64, []V](loaderWait),
		dataloader.WithBatchCapacity[int64, []V](loaderBatchCapacity),
		dataloader.WithCache[int64, []V](&dataloader.NoCache[int64, []V]{}),
	)
}

// hydrate attaches services, insurances, evaluations and stock to every
// structure in place
func (a *StructureAdapter) hydrate(ctx context.Context, structures []*entities.Structure) error {
	if len(structures) == 0 {
		return nil
	}

	ids := make([]int64, len(structures))
	for i, s := range structures {
		ids[i] = s.ID
	}

	loaders := newCollectionLoaders(&collectionQueries{client: a.client.DB(), db: a.db})
	servicesThunk := loaders.services.LoadMany(ctx, ids)
	insurancesThunk := loaders.insurances.LoadMany(ctx, ids)
	evaluationsThunk := loaders.evaluations.LoadMany(ctx, ids)
	stocksThunk := loaders.stocks.LoadMany(ctx, ids)

	services, errs := servicesThunk()
	if err := firstError(errs); err != nil {
		return err
	}
	insurances, errs := insurancesThunk()
	if err := firstError(errs); err != nil {
		return err
	}
	evaluations, errs := evaluationsThunk()
	if err := firstError(errs); err != nil {
		return err
	}
	stocks, errs := stocksThunk()
	if err := firstError(errs); err != nil {
		return err
	}

	for i, s := range structures {
		s.Services = services[i]
		s.Insurances = insurances[i]
		s.Evaluations = evaluations[i]
		s.Stocks = stocks[i]
	}
	return nil
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// collectionQueries fetch one collection for a set of structures with a
// single structure_id = ANY(...) query
type collectionQueries struct {
	client *sql.DB
	db     *goqu.Database
}

func anyStructure(column string, ids []int64) exp.LiteralExpression {
	return goqu.L(column+" = ANY(?)", pq.Array(ids))
}

func (q *collectionQueries) query(ctx context.Context, ds *goqu.SelectDataset, what string) (*sql.Rows, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build "+what+" query", err)
	}
	rows, err := q.client.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load "+what, err)
	}
	return rows, nil
}

func (q *collectionQueries) services(ctx context.Context, ids []int64) (map[int64][]entities.StructureService, error) {
	ds := q.db.From(goqu.T("structure_services").As("ss")).
		Join(goqu.T("services").As("s"), goqu.On(goqu.I("s.id").Eq(goqu.I("ss.service_id")))).
		Select("ss.structure_id", "ss.availability", "ss.notes",
			"s.id", "s.name", "s.category", "s.description", "s.created_at").
		Where(anyStructure("ss.structure_id", ids)).
		Order(goqu.I("s.name").Asc())

	rows, err := q.query(ctx, ds, "structure services")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]entities.StructureService)
	for rows.Next() {
		var item entities.StructureService
		var availability string
		if err := rows.Scan(&item.Pivot.StructureID, &availability, &item.Pivot.Notes,
			&item.ID, &item.Name, &item.Category, &item.Description, &item.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan structure service", err)
		}
		item.Pivot.ServiceID = item.ID
		item.Pivot.Availability = entities.Availability(availability)
		out[item.Pivot.StructureID] = append(out[item.Pivot.StructureID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate structure services", err)
	}
	return out, nil
}

func (q *collectionQueries) insurances(ctx context.Context, ids []int64) (map[int64][]entities.StructureInsurance, error) {
	ds := q.db.From(goqu.T("structure_insurances").As("si")).
		Join(goqu.T("insurance_companies").As("i"), goqu.On(goqu.I("i.id").Eq(goqu.I("si.insurance_id")))).
		Select("si.structure_id", "si.modalities",
			"i.id", "i.name", "i.phone", "i.email", "i.logo", "i.website", "i.created_at").
		Where(anyStructure("si.structure_id", ids)).
		Order(goqu.I("i.name").Asc())

	rows, err := q.query(ctx, ds, "structure insurances")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]entities.StructureInsurance)
	for rows.Next() {
		var item entities.StructureInsurance
		if err := rows.Scan(&item.Pivot.StructureID, &item.Pivot.Modalities,
			&item.ID, &item.Name, &item.Phone, &item.Email, &item.Logo, &item.Website, &item.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan structure insurance", err)
		}
		item.Pivot.InsuranceID = item.ID
		out[item.Pivot.StructureID] = append(out[item.Pivot.StructureID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate structure insurances", err)
	}
	return out, nil
}

func (q *collectionQueries) evaluations(ctx context.Context, ids []int64) (map[int64][]entities.Evaluation, error) {
	ds := q.db.From("evaluations").
		Select(evaluationColumns...).
		Where(anyStructure("structure_id", ids)).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc())

	rows, err := q.query(ctx, ds, "evaluations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]entities.Evaluation)
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan evaluation", err)
		}
		out[e.StructureID] = append(out[e.StructureID], *e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate evaluations", err)
	}
	return out, nil
}

func (q *collectionQueries) stocks(ctx context.Context, ids []int64) (map[int64][]entities.StockItem, error) {
	ds := q.db.From(goqu.T("stock_items").As("st")).
		Join(goqu.T("products").As("p"), goqu.On(goqu.I("p.id").Eq(goqu.I("st.product_id")))).
		Select("st.structure_id", "st.product_id", "st.quantity", "st.status", "st.updated_at",
			"p.name", "p.description", "p.created_at").
		Where(anyStructure("st.structure_id", ids)).
		Order(goqu.I("p.name").Asc())

	rows, err := q.query(ctx, ds, "stock items")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]entities.StockItem)
	for rows.Next() {
		var item entities.StockItem
		var status string
		product := &entities.Product{}
		if err := rows.Scan(&item.StructureID, &item.ProductID, &item.Quantity, &status, &item.UpdatedAt,
			&product.Name, &product.Description, &product.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan stock item", err)
		}
		product.ID = item.ProductID
		item.Status = entities.StockStatus(status)
		item.Product = product
		out[item.StructureID] = append(out[item.StructureID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate stock items", err)
	}
	return out, nil
}
