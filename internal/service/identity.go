package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/labelstack/hub/internal/models"
)

// resolveExisting matches each upsert item to an already-persisted record of
// the dataset, external id first and server id second. The result is aligned
// with items: resolved[i] is the matched record or nil when the item will
// create a new one. Lookups are batched, one query per identity kind.
func resolveExisting(
	ctx context.Context, records RecordsRepository, datasetID uuid.UUID, items []models.RecordUpsert,
) ([]*models.Record, error) {
	externalIDs := make([]string, 0, len(items))
	ids := make([]uuid.UUID, 0, len(items))

	for i := range items {
		if items[i].ExternalID != nil {
			externalIDs = append(externalIDs, *items[i].ExternalID)
		}

		if items[i].ID != uuid.Nil {
			ids = append(ids, items[i].ID)
		}
	}

	byExternalID := make(map[string]*models.Record, len(externalIDs))

	if len(externalIDs) > 0 {
		found, err := records.ListByExternalIDs(ctx, datasetID, externalIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve records by external ids: %w", err)
		}

		for i := range found {
			if found[i].ExternalID != nil {
				byExternalID[*found[i].ExternalID] = &found[i]
			}
		}
	}

	byID := make(map[uuid.UUID]*models.Record, len(ids))

	if len(ids) > 0 {
		found, err := records.ListByIDs(ctx, datasetID, ids)
		if err != nil {
			return nil, fmt.Errorf("resolve records by ids: %w", err)
		}

		for i := range found {
			byID[found[i].ID] = &found[i]
		}
	}

	resolved := make([]*models.Record, len(items))

	for i := range items {
		if items[i].ExternalID != nil {
			if rec, ok := byExternalID[*items[i].ExternalID]; ok {
				resolved[i] = rec

				continue
			}
		}

		if items[i].ID != uuid.Nil {
			if rec, ok := byID[items[i].ID]; ok {
				resolved[i] = rec
			}
		}
	}

	return resolved, nil
}
