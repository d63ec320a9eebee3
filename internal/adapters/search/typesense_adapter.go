package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/domain/providers"
	tsclient "github.com/annuaire-sante/backend/internal/infrastructure/clients/typesense"
	"github.com/annuaire-sante/backend/pkg/textnorm"
)

const maxSuggestions = 20

// TypesenseAdapter indexes verified structures in Typesense and answers
// name suggestions
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ providers.StructureIndexer = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// EnsureSchema creates the structures collection when missing
func (a *TypesenseAdapter) EnsureSchema(ctx context.Context) error {
	return a.client.InitSchema(ctx)
}

// Reset drops and recreates the structures collection
func (a *TypesenseAdapter) Reset(ctx context.Context) error {
	if err := a.client.DropSchema(ctx); err != nil && !isNotFound(err) {
		return err
	}
	return a.client.InitSchema(ctx)
}

// Index upserts a verified structure; any other status removes it from
// the index so suggestions never leak unverified names
func (a *TypesenseAdapter) Index(ctx context.Context, structure *entities.Structure) error {
	if !structure.IsVerified() {
		return a.Delete(ctx, structure.ID)
	}

	_, err := a.client.Client().Collection(tsclient.StructuresCollection).Documents().Upsert(ctx, buildStructureDocument(structure))
	if err != nil {
		return fmt.Errorf("failed to index structure %d: %w", structure.ID, err)
	}
	return nil
}

// Delete removes a structure from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id int64) error {
	_, err := a.client.Client().Collection(tsclient.StructuresCollection).Document(strconv.FormatInt(id, 10)).Delete(ctx)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete structure %d from index: %w", id, err)
	}
	return nil
}

// Suggest returns verified structures whose name matches q, typo tolerant
func (a *TypesenseAdapter) Suggest(ctx context.Context, q string, limit int) ([]*providers.StructureSuggestion, error) {
	if limit <= 0 || limit > maxSuggestions {
		limit = maxSuggestions
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(textnorm.Fold(q)),
		QueryBy: pointer.String("name_folded,name"),
		PerPage: pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(tsclient.StructuresCollection).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to search structures: %w", err)
	}

	suggestions := []*providers.StructureSuggestion{}
	if result.Hits == nil {
		return suggestions, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		if s, ok := suggestionFromDocument(*hit.Document); ok {
			suggestions = append(suggestions, s)
		}
	}
	return suggestions, nil
}

func buildStructureDocument(s *entities.Structure) map[string]interface{} {
	doc := map[string]interface{}{
		"id":          strconv.FormatInt(s.ID, 10),
		"name":        s.Name,
		"name_folded": textnorm.Fold(s.Name),
		"type":        string(s.Type),
		"rating":      s.AverageRating(),
		"updated_at":  s.UpdatedAt.Unix(),
	}
	if s.Address.City != "" {
		doc["city"] = s.Address.City
	}
	if s.HasCoordinates() {
		doc["location"] = []float64{*s.Latitude, *s.Longitude}
	}
	return doc
}

func suggestionFromDocument(doc map[string]interface{}) (*providers.StructureSuggestion, bool) {
	rawID, _ := doc["id"].(string)
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, false
	}

	s := &providers.StructureSuggestion{ID: id}
	s.Name, _ = doc["name"].(string)
	if t, ok := doc["type"].(string); ok {
		s.Type = entities.StructureType(t)
	}
	s.City, _ = doc["city"].(string)
	return s, true
}

func isNotFound(err error) bool {
	var httpErr *typesense.HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound
}
