package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/ledgerpost/internal/domain"
)

// PeriodUseCase gates posting by fiscal period.
type PeriodUseCase struct {
	txManager  TransactionManager
	periodRepo PeriodRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	options
}

// NewPeriodUseCase creates a new PeriodUseCase.
func NewPeriodUseCase(
	txManager TransactionManager,
	periodRepo PeriodRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	opts ...Option,
) *PeriodUseCase {
	return &PeriodUseCase{
		txManager:  txManager,
		periodRepo: periodRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		options:    newOptions(opts),
	}
}

// CreatePeriodInput represents input for creating a fiscal period.
type CreatePeriodInput struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
	CreatedBy string
}

// CreatePeriod creates an open fiscal period. Periods may not overlap.
func (uc *PeriodUseCase) CreatePeriod(ctx context.Context, input CreatePeriodInput) (*domain.FiscalPeriod, error) {
	now := uc.now().UTC()
	period := &domain.FiscalPeriod{
		ID:        uc.idGen.Generate(),
		Name:      input.Name,
		StartDate: domain.DateOf(input.StartDate),
		EndDate:   domain.DateOf(input.EndDate),
		Status:    domain.PeriodStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	err := uc.runInTx(ctx, uc.txManager, func(ctx context.Context, tx Transaction) error {
		existing, err := uc.periodRepo.ListOverlapping(ctx, tx, period.StartDate, period.EndDate)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("%w: %s overlaps %s", domain.ErrPeriodOverlap, period.Name, existing[0].Name)
		}

		if err := uc.periodRepo.Create(ctx, tx, period); err != nil {
			return err
		}

		return uc.audit(ctx, tx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       input.CreatedBy,
			Action:       domain.AuditActionPeriodCreate,
			ResourceType: "fiscal_period",
			ResourceID:   period.ID,
			AfterState:   domain.MarshalState(period),
		})
	})
	if err != nil {
		return nil, err
	}

	return period, nil
}

// Resolve returns the period an entry dated date posts into. The period row
// is share-locked in tx so it cannot be closed until tx ends.
//
// With an explicit period id the period must be open and contain date. Without
// one, the open period covering date is used; if no periods exist at all the
// entry posts with no period and Resolve returns nil.
func (uc *PeriodUseCase) Resolve(ctx context.Context, tx Transaction, date time.Time, explicitID string) (*domain.FiscalPeriod, error) {
	if explicitID != "" {
		period, err := uc.periodRepo.GetByIDForShare(ctx, tx, explicitID)
		if err != nil {
			return nil, err
		}
		if err := period.EnsurePostable(date); err != nil {
			return nil, err
		}
		return period, nil
	}

	period, err := uc.periodRepo.FindOpenByDate(ctx, tx, domain.DateOf(date))
	if err == nil {
		return period, nil
	}
	if !errors.Is(err, domain.ErrPeriodNotFound) {
		return nil, err
	}

	count, err := uc.periodRepo.Count(ctx, tx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	return nil, fmt.Errorf("%w: %s", domain.ErrNoOpenPeriod, domain.DateOf(date).Format(time.DateOnly))
}

// ClosePeriod moves an open period to closed.
func (uc *PeriodUseCase) ClosePeriod(ctx context.Context, id, user string) (*domain.FiscalPeriod, error) {
	return uc.transition(ctx, id, user, domain.AuditActionPeriodClose, domain.EventTypePeriodClosed,
		func(p *domain.FiscalPeriod, at time.Time) error { return p.Close(user, at) })
}

// LockPeriod moves a closed period to locked. This cannot be undone.
func (uc *PeriodUseCase) LockPeriod(ctx context.Context, id, user string) (*domain.FiscalPeriod, error) {
	return uc.transition(ctx, id, user, domain.AuditActionPeriodLock, domain.EventTypePeriodLocked,
		func(p *domain.FiscalPeriod, at time.Time) error { return p.Lock(user, at) })
}

func (uc *PeriodUseCase) transition(
	ctx context.Context,
	id, user string,
	action domain.AuditAction,
	eventType string,
	apply func(*domain.FiscalPeriod, time.Time) error,
) (*domain.FiscalPeriod, error) {
	var period *domain.FiscalPeriod

	err := uc.runInTx(ctx, uc.txManager, func(ctx context.Context, tx Transaction) error {
		p, err := uc.periodRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		before := domain.MarshalState(p)

		if err := apply(p, uc.now().UTC()); err != nil {
			return err
		}
		if err := uc.periodRepo.UpdateStatus(ctx, tx, p); err != nil {
			return err
		}

		event := uc.outboxEvent(uc.idGen.Generate(), domain.AggregateTypeFiscalPeriod, p.ID, eventType,
			domain.PeriodStatusEvent{PeriodID: p.ID, Name: p.Name, Status: string(p.Status), By: user})
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}

		period = p
		return uc.audit(ctx, tx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       user,
			Action:       action,
			ResourceType: "fiscal_period",
			ResourceID:   p.ID,
			BeforeState:  before,
			AfterState:   domain.MarshalState(p),
		})
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PeriodTransitions.WithLabelValues(string(period.Status)).Inc()
	}
	uc.logger.Info().Str("period_id", period.ID).Str("status", string(period.Status)).Str("by", user).Msg("fiscal period transitioned")

	return period, nil
}

// GetPeriod retrieves a fiscal period by ID.
func (uc *PeriodUseCase) GetPeriod(ctx context.Context, id string) (*domain.FiscalPeriod, error) {
	return uc.periodRepo.GetByID(ctx, nil, id)
}

// ListPeriods lists fiscal periods ordered by start date.
func (uc *PeriodUseCase) ListPeriods(ctx context.Context, limit, offset int) ([]*domain.FiscalPeriod, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.periodRepo.List(ctx, limit, offset)
}
