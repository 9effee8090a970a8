package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskCadenceReconcile = "cadence.reconcile"

// CadenceReconcilePayload parametrizes one reconciliation run. A positive
// BatchSize bounds the run; zero means the worker's configured size.
type CadenceReconcilePayload struct {
	Trigger   string `json:"trigger"`
	BatchSize int    `json:"batchSize,omitempty"`
}

func NewCadenceReconcileTask(payload CadenceReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCadenceReconcile, data), nil
}

func ParseCadenceReconcilePayload(task *asynq.Task) (CadenceReconcilePayload, error) {
	var payload CadenceReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CadenceReconcilePayload{}, err
	}
	return payload, nil
}
