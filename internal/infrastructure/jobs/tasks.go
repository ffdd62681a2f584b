package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/integration"
)

const (
	// QueueDefault is the queue every ledger task runs on.
	QueueDefault = "default"
	// TaskPostEvent posts one business event.
	TaskPostEvent = "ledger:post_event"
	// TaskRetryFailures sweeps the failure ledger.
	TaskRetryFailures = "ledger:retry_failures"
)

// taskNamespace seeds the deterministic task ids.
var taskNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("ledgerpost/"+TaskPostEvent))

// TaskID returns the asynq task id for the event key. Enqueueing the same
// event twice while the first task is pending is a conflict, not a duplicate.
func TaskID(key domain.EventKey) string {
	return uuid.NewSHA1(taskNamespace, []byte(key.String())).String()
}

// NewPostEventTask constructs a TaskPostEvent task carrying env.
func NewPostEventTask(env integration.Envelope) (*asynq.Task, error) {
	data, err := env.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return asynq.NewTask(TaskPostEvent, data, asynq.TaskID(TaskID(env.Key)), asynq.Queue(QueueDefault)), nil
}

// RetryFailuresPayload bounds one retry sweep.
type RetryFailuresPayload struct {
	Limit int `json:"limit"`
}

// NewRetryFailuresTask constructs a TaskRetryFailures task.
func NewRetryFailuresTask(limit int) (*asynq.Task, error) {
	data, err := json.Marshal(RetryFailuresPayload{Limit: limit})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRetryFailures, data), nil
}

// RetrySweep schedules TaskRetryFailures on spec, sweeping up to batch
// failures per run.
func RetrySweep(spec string, batch int) (CronRegistration, error) {
	task, err := NewRetryFailuresTask(batch)
	if err != nil {
		return CronRegistration{}, err
	}
	return CronRegistration{
		Spec:    spec,
		Task:    task,
		Options: []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(0), asynq.Unique(time.Minute)},
	}, nil
}
