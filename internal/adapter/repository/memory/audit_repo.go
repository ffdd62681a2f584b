package memory

import (
	"context"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/usecase"
)

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	store *Store
}

// Create stores an audit log immediately.
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	return r.CreateTx(ctx, nil, log)
}

// CreateTx stores an audit log as part of t.
func (r *AuditRepository) CreateTx(ctx context.Context, t usecase.Transaction, log *domain.AuditLog) error {
	return r.store.write(ctx, t, func(tx *Tx) error {
		tx.audit = append(tx.audit, copyOf(log))
		return nil
	})
}

// List returns audit logs matching filter, newest first.
func (r *AuditRepository) List(_ context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var matched []*domain.AuditLog
	for i := len(r.store.audit) - 1; i >= 0; i-- {
		log := r.store.audit[i]
		if filter.UserID != "" && log.UserID != filter.UserID {
			continue
		}
		if filter.Action != "" && log.Action != filter.Action {
			continue
		}
		if filter.ResourceType != "" && log.ResourceType != filter.ResourceType {
			continue
		}
		if filter.ResourceID != "" && log.ResourceID != filter.ResourceID {
			continue
		}
		matched = append(matched, log)
	}

	limit, offset := domain.ValidatePagination(filter.Limit, filter.Offset)
	result := make([]*domain.AuditLog, 0, len(matched))
	for _, log := range page(matched, limit, offset) {
		result = append(result, copyOf(log))
	}
	return result, nil
}
