package memory

import (
	"context"
	"fmt"
	"maps"

	"github.com/iho/ledgerpost/internal/domain"
)

// MappingRepository implements usecase.MappingRepository.
type MappingRepository struct {
	store *Store
}

// AccountCode resolves a posting role to an account code.
func (r *MappingRepository) AccountCode(_ context.Context, role string) (string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	code, ok := r.store.mappings[role]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrMappingNotFound, role)
	}
	return code, nil
}

// Set maps role to accountCode.
func (r *MappingRepository) Set(_ context.Context, role, accountCode string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.mappings[role] = accountCode
	return nil
}

// List returns every role mapping.
func (r *MappingRepository) List(_ context.Context) (map[string]string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return maps.Clone(r.store.mappings), nil
}
