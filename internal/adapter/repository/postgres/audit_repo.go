package postgres

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/infrastructure/postgres/generated"
	"github.com/iho/ledgerpost/internal/usecase"
)

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	conn
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(pool DB) *AuditRepository {
	return &AuditRepository{conn{pool: pool}}
}

const insertAuditLog = `
	INSERT INTO audit_logs (
		id, user_id, action, resource_type, resource_id,
		before_state, after_state, status, error_message, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

// Create inserts an audit log entry outside any transaction.
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	return r.CreateTx(ctx, nil, log)
}

// CreateTx inserts an audit log entry in tx, so it commits or rolls back with the change it describes.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.Status == "" {
		log.Status = domain.AuditStatusSuccess
	}

	before, err := marshalState(log.BeforeState)
	if err != nil {
		return err
	}
	after, err := marshalState(log.AfterState)
	if err != nil {
		return err
	}

	var db generated.DBTX = r.pool
	if tx != nil {
		pgxTx, err := pgxTxOf(tx)
		if err != nil {
			return err
		}
		db = pgxTx
	}

	_, err = db.Exec(ctx, insertAuditLog,
		log.ID,
		log.UserID,
		string(log.Action),
		log.ResourceType,
		log.ResourceID,
		before,
		after,
		string(log.Status),
		log.ErrorMessage,
		log.CreatedAt,
	)
	return err
}

// List retrieves audit logs, newest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	query := `
		SELECT id, user_id, action, resource_type, resource_id,
		       before_state, after_state, status, error_message, created_at
		FROM audit_logs
		WHERE 1=1
	`
	args := []any{}
	arg := func(clause string, value any) {
		args = append(args, value)
		query += clause + strconv.Itoa(len(args))
	}

	if filter.UserID != "" {
		arg(` AND user_id = $`, filter.UserID)
	}
	if filter.Action != "" {
		arg(` AND action = $`, string(filter.Action))
	}
	if filter.ResourceType != "" {
		arg(` AND resource_type = $`, filter.ResourceType)
	}
	if filter.ResourceID != "" {
		arg(` AND resource_id = $`, filter.ResourceID)
	}

	query += ` ORDER BY created_at DESC, id DESC`

	if filter.Limit > 0 {
		arg(` LIMIT $`, filter.Limit)
	}
	if filter.Offset > 0 {
		arg(` OFFSET $`, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		var (
			log                     domain.AuditLog
			action, status          string
			beforeState, afterState []byte
		)

		err := rows.Scan(
			&log.ID,
			&log.UserID,
			&action,
			&log.ResourceType,
			&log.ResourceID,
			&beforeState,
			&afterState,
			&status,
			&log.ErrorMessage,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		log.Action = domain.AuditAction(action)
		log.Status = domain.AuditStatus(status)
		if beforeState != nil {
			_ = json.Unmarshal(beforeState, &log.BeforeState)
		}
		if afterState != nil {
			_ = json.Unmarshal(afterState, &log.AfterState)
		}

		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

func marshalState(state domain.JSON) ([]byte, error) {
	if state == nil {
		return nil, nil
	}
	return json.Marshal(state)
}
