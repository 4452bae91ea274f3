package validators

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/labelstack/hub/internal/huberrors"
	"github.com/labelstack/hub/internal/models"
)

// ExistingRecordsFinder is the read access the bulk create validator needs to
// detect external id collisions against already-persisted records.
type ExistingRecordsFinder interface {
	ListByExternalIDs(ctx context.Context, datasetID uuid.UUID, externalIDs []string) ([]models.Record, error)
}

// RecordsBulkCreateValidator validates a whole bulk create batch before any
// write: dataset readiness, external id collisions, then each item in input
// order. The first invalid item aborts the batch; its error is wrapped with
// the item's position so the caller can attribute the failure.
type RecordsBulkCreateValidator struct {
	records ExistingRecordsFinder
}

// NewRecordsBulkCreateValidator creates a bulk create validator.
func NewRecordsBulkCreateValidator(records ExistingRecordsFinder) *RecordsBulkCreateValidator {
	return &RecordsBulkCreateValidator{records: records}
}

// Validate checks the batch against the dataset.
func (v *RecordsBulkCreateValidator) Validate(
	ctx context.Context, dataset *models.Dataset, bulk *models.RecordsBulkCreate,
) error {
	if !dataset.IsReady() {
		return huberrors.NewNotReadyError("records cannot be created for a non published dataset")
	}

	if err := bulk.CheckUniqueExternalIDs(); err != nil {
		return err
	}

	if err := v.checkExternalIDCollisions(ctx, dataset, bulk); err != nil {
		return err
	}

	for i := range bulk.Items {
		if err := ValidateRecordCreate(dataset, &bulk.Items[i]); err != nil {
			return WrapRecordPositionError(i, err)
		}
	}

	return nil
}

func (v *RecordsBulkCreateValidator) checkExternalIDCollisions(
	ctx context.Context, dataset *models.Dataset, bulk *models.RecordsBulkCreate,
) error {
	externalIDs := make([]string, 0, len(bulk.Items))

	for i := range bulk.Items {
		if id := bulk.Items[i].ExternalID; id != nil {
			externalIDs = append(externalIDs, *id)
		}
	}

	if len(externalIDs) == 0 {
		return nil
	}

	existing, err := v.records.ListByExternalIDs(ctx, dataset.ID, externalIDs)
	if err != nil {
		return fmt.Errorf("list records by external ids: %w", err)
	}

	if len(existing) == 0 {
		return nil
	}

	found := make([]string, 0, len(existing))
	for i := range existing {
		if existing[i].ExternalID != nil {
			found = append(found, *existing[i].ExternalID)
		}
	}

	return huberrors.NewConflictError(
		"found records with same external ids: " + strings.Join(found, ", "))
}

// ValidateRecordsBulkUpsert validates a bulk upsert batch: dataset readiness,
// then each item as a create or update depending on whether identity
// resolution found an existing record at that position. resolved must be
// aligned with bulk.Items.
func ValidateRecordsBulkUpsert(
	dataset *models.Dataset, bulk *models.RecordsBulkUpsert, resolved []*models.Record,
) error {
	if !dataset.IsReady() {
		return huberrors.NewNotReadyError("records cannot be upserted for a non published dataset")
	}

	if err := bulk.CheckUniqueExternalIDs(); err != nil {
		return err
	}

	for i := range bulk.Items {
		if err := ValidateRecordUpsert(dataset, resolved[i], &bulk.Items[i]); err != nil {
			return WrapRecordPositionError(i, err)
		}
	}

	return nil
}

// WrapRecordPositionError attributes an item-level error to its batch
// position. The resulting message is part of the API contract:
// "record at position {i} is not valid because {cause}".
func WrapRecordPositionError(position int, err error) error {
	return huberrors.NewValidationErrorf("record at position %d is not valid because %v", position, err)
}
