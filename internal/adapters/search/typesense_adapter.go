package search

import (
	"context"
	"fmt"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/optimed-health/backend/internal/domain/entities"
	"github.com/optimed-health/backend/internal/domain/repositories"
	tsclient "github.com/optimed-health/backend/internal/infrastructure/clients/typesense"
)

// TypesenseAdapter implements hospital search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements HospitalSearchRepository
var _ repositories.HospitalSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	// Check if collection exists
	_, err := a.client.Client().Collection(tsclient.HospitalsCollection).Retrieve(ctx)
	if err == nil {
		return nil // Collection exists
	}

	schema := &api.CollectionSchema{
		Name: tsclient.HospitalsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "address", Type: "string"},
			{Name: "specialties", Type: "string[]", Facet: pointer.True()},
			{Name: "is_active", Type: "bool"},
			{Name: "location", Type: "geopoint"},
			{Name: "baseline_wait_min", Type: "int32"},
			{Name: "current_queue", Type: "int32"},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// Index indexes a hospital
func (a *TypesenseAdapter) Index(ctx context.Context, hospital *entities.Hospital) error {
	document := map[string]interface{}{
		"id":                hospital.ID,
		"name":              hospital.Name,
		"address":           hospital.Address,
		"specialties":       hospital.Specialties,
		"is_active":         hospital.IsActive,
		"location":          []float64{hospital.Location.Latitude, hospital.Location.Longitude},
		"baseline_wait_min": hospital.BaselineWaitMin,
		"current_queue":     hospital.CurrentQueue,
		"created_at":        hospital.CreatedAt.Unix(),
	}

	_, err := a.client.Client().Collection(tsclient.HospitalsCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index hospital: %w", err)
	}

	return nil
}

// Delete removes a hospital from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.HospitalsCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete hospital from index: %w", err)
	}
	return nil
}

// SearchByName performs a fuzzy name search. Typo tolerance comes from
// Typesense itself; a misspelled hospital name still resolves.
func (a *TypesenseAdapter) SearchByName(ctx context.Context, query string, limit int) ([]*entities.Hospital, error) {
	if limit <= 0 {
		limit = 10
	}

	searchParams := &api.SearchCollectionParams{
		Q:        pointer.String(query),
		QueryBy:  pointer.String("name,address"),
		FilterBy: pointer.String("is_active:=true"),
		PerPage:  pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(tsclient.HospitalsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search hospitals: %w", err)
	}

	hospitals := []*entities.Hospital{}
	if result.Hits == nil {
		return hospitals, nil
	}

	for _, hit := range *result.Hits {
		doc := *hit.Document
		hospitals = append(hospitals, hospitalFromDocument(doc))
	}

	return hospitals, nil
}

// Suggest returns hospital name suggestions for a prefix
func (a *TypesenseAdapter) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}

	searchParams := &api.SearchCollectionParams{
		Q:        pointer.String(prefix),
		QueryBy:  pointer.String("name"),
		FilterBy: pointer.String("is_active:=true"),
		Prefix:   pointer.String("true"),
		PerPage:  pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(tsclient.HospitalsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch suggestions: %w", err)
	}

	suggestions := []string{}
	if result.Hits == nil {
		return suggestions, nil
	}

	for _, hit := range *result.Hits {
		doc := *hit.Document
		if name, ok := doc["name"].(string); ok {
			suggestions = append(suggestions, name)
		}
	}

	return suggestions, nil
}

// hospitalFromDocument rebuilds a partial hospital from a Typesense hit.
// Typesense returns map[string]interface{}, so every field is cast defensively;
// callers needing the full record should re-fetch from the database by ID.
func hospitalFromDocument(doc map[string]interface{}) *entities.Hospital {
	hospital := &entities.Hospital{}

	if val, ok := doc["id"].(string); ok {
		hospital.ID = val
	}
	if val, ok := doc["name"].(string); ok {
		hospital.Name = val
	}
	if val, ok := doc["address"].(string); ok {
		hospital.Address = val
	}
	if val, ok := doc["is_active"].(bool); ok {
		hospital.IsActive = val
	}
	if val, ok := doc["baseline_wait_min"].(float64); ok {
		hospital.BaselineWaitMin = int(val)
	}
	if val, ok := doc["current_queue"].(float64); ok {
		hospital.CurrentQueue = int(val)
	}
	if loc, ok := doc["location"].([]interface{}); ok && len(loc) == 2 {
		if lat, ok := loc[0].(float64); ok {
			hospital.Location.Latitude = lat
		}
		if lon, ok := loc[1].(float64); ok {
			hospital.Location.Longitude = lon
		}
	}
	if vals, ok := doc["specialties"].([]interface{}); ok {
		for _, v := range vals {
			if s, ok := v.(string); ok {
				hospital.Specialties = append(hospital.Specialties, s)
			}
		}
	}

	return hospital
}
