package sqlite

import (
	"context"

	"scanengine/internal/domain/repository"
	"scanengine/internal/errors"
	"scanengine/internal/infra/persistence/model"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// credentialStore implements the repository.CredentialStore interface.
type credentialStore struct {
	db *gorm.DB
}

// NewCredentialStore is the constructor for credentialStore.
func NewCredentialStore(db *gorm.DB) repository.CredentialStore {
	return &credentialStore{db: db}
}

// Get reads one credential slot.
func (store *credentialStore) Get(ctx context.Context, kind repository.CredentialKind) (string, error) {
	var credential model.CredentialModel
	err := store.db.WithContext(ctx).
		Where("kind = ?", string(kind)).
		First(&credential).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", repository.ErrCredentialNotFound
		}

		return "", pkgerrors.Wrapf(err, "failed to read credential slot %s", kind)
	}

	return credential.Value, nil
}

// Set writes one credential slot, replacing any previous value.
func (store *credentialStore) Set(ctx context.Context, kind repository.CredentialKind, value string) error {
	credential := model.CredentialModel{
		Kind:  string(kind),
		Value: value,
	}

	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&credential).Error

	return pkgerrors.Wrapf(err, "failed to write credential slot %s", kind)
}

// Delete removes one credential slot. Removing an empty slot succeeds.
func (store *credentialStore) Delete(ctx context.Context, kind repository.CredentialKind) error {
	err := store.db.WithContext(ctx).
		Where("kind = ?", string(kind)).
		Delete(&model.CredentialModel{}).Error

	return pkgerrors.Wrapf(err, "failed to delete credential slot %s", kind)
}

// ClearAll removes every slot, best effort: a failure on one slot does not
// stop removal of the remaining ones.
func (store *credentialStore) ClearAll(ctx context.Context) error {
	var errs []error
	for _, kind := range repository.AllCredentialKinds() {
		if err := store.Delete(ctx, kind); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return pkgerrors.Wrap(errors.Join(errs...), "failed to clear credential slots")
	}

	return nil
}
