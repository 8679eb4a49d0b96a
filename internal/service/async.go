package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mfbarbosa/acervo/internal/model"
)

// AsyncCapture runs timeline captures in the background. Captures against a
// large timeline take minutes at the mandated inter-page delay; callers that
// cannot hold the request open submit a job and poll its status instead.
type AsyncCapture struct {
	capturador CapturadorTimeline
	jobs       *model.JobStatusStore
}

// NewAsyncCapture creates an async capture runner.
func NewAsyncCapture(capturador CapturadorTimeline) *AsyncCapture {
	return &AsyncCapture{
		capturador: capturador,
		jobs:       model.NewJobStatusStore(),
	}
}

// SubmitJob queues a timeline capture and returns its job id immediately.
func (ac *AsyncCapture) SubmitJob(cred model.Credencial, processoID int64, opcoes model.OpcoesCaptura) string {
	jobID := uuid.NewString()
	correlationID := uuid.NewString()

	ac.jobs.Set(jobID, &model.JobStatus{
		JobID:         jobID,
		Status:        "queued",
		CorrelationID: correlationID,
	})

	// Detached from the request context: the job outlives the HTTP call.
	go ac.run(context.Background(), jobID, correlationID, cred, processoID, opcoes)

	return jobID
}

// GetJobStatus retrieves the status of an async capture job.
func (ac *AsyncCapture) GetJobStatus(jobID string) (*model.JobStatus, bool) {
	return ac.jobs.Get(jobID)
}

func (ac *AsyncCapture) run(ctx context.Context, jobID, correlationID string, cred model.Credencial, processoID int64, opcoes model.OpcoesCaptura) {
	if status, exists := ac.jobs.Get(jobID); exists {
		status.Status = "processing"
		ac.jobs.Set(jobID, status)
	}

	slog.Info("Starting async timeline capture",
		"job_id", jobID,
		"correlation_id", correlationID,
		"processo_id", processoID,
	)

	resultado, err := ac.capturador.CapturarTimeline(ctx, cred, processoID, opcoes)

	if status, exists := ac.jobs.Get(jobID); exists {
		if err != nil {
			status.Status = "failed"
			status.Erro = err.Error()
		} else {
			status.Status = "completed"
			status.Resultado = resultado
		}
		ac.jobs.Set(jobID, status)
	}

	if err != nil {
		slog.Error("Async timeline capture failed",
			"job_id", jobID,
			"correlation_id", correlationID,
			"processo_id", processoID,
			"error", err,
		)
		return
	}

	slog.Info("Async timeline capture completed",
		"job_id", jobID,
		"correlation_id", correlationID,
		"processo_id", processoID,
		"mongo_id", resultado.MongoID,
	)
}
