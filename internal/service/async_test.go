package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfbarbosa/acervo/internal/model"
)

func TestSubmitJobCompletes(t *testing.T) {
	ac := NewAsyncCapture(&fakeCapturador{})

	jobID := ac.SubmitJob(model.Credencial{AdvogadoID: 3}, 1, model.OpcoesCaptura{})
	require.NotEmpty(t, jobID)

	assert.Eventually(t, func() bool {
		status, ok := ac.GetJobStatus(jobID)
		return ok && status.Status == "completed"
	}, time.Second, 5*time.Millisecond)

	status, ok := ac.GetJobStatus(jobID)
	require.True(t, ok)
	require.NotNil(t, status.Resultado)
	assert.Equal(t, "oid-abc", status.Resultado.MongoID)
	assert.Empty(t, status.Erro)
}

func TestSubmitJobRecordsFailure(t *testing.T) {
	ac := NewAsyncCapture(&fakeCapturador{failIDs: map[int64]bool{7: true}})

	jobID := ac.SubmitJob(model.Credencial{AdvogadoID: 3}, 7, model.OpcoesCaptura{})

	assert.Eventually(t, func() bool {
		status, ok := ac.GetJobStatus(jobID)
		return ok && status.Status == "failed"
	}, time.Second, 5*time.Millisecond)

	status, _ := ac.GetJobStatus(jobID)
	assert.Contains(t, status.Erro, "timeout")
	assert.Nil(t, status.Resultado)
}

type blockingCapturador struct {
	entered chan struct{}
	release chan struct{}
}

func (c *blockingCapturador) CapturarTimeline(ctx context.Context, cred model.Credencial, processoID int64, opcoes model.OpcoesCaptura) (*model.ResultadoCaptura, error) {
	close(c.entered)
	<-c.release
	return &model.ResultadoCaptura{TotalItens: 1, MongoID: "oid-abc"}, nil
}

func TestGetJobStatusSafeWhileJobRuns(t *testing.T) {
	capturador := &blockingCapturador{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	ac := NewAsyncCapture(capturador)

	jobID := ac.SubmitJob(model.Credencial{AdvogadoID: 3}, 1, model.OpcoesCaptura{})
	<-capturador.entered

	// Poll across the processing->completed transition while the worker is
	// mutating the status. The race detector flags any shared mutable state.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			if status, ok := ac.GetJobStatus(jobID); ok {
				_ = status.Status
				_ = status.Erro
				_ = status.Resultado
			}
		}
	}()

	close(capturador.release)
	<-done

	assert.Eventually(t, func() bool {
		status, ok := ac.GetJobStatus(jobID)
		return ok && status.Status == "completed"
	}, time.Second, 5*time.Millisecond)
}

func TestGetJobStatusReturnsSnapshot(t *testing.T) {
	ac := NewAsyncCapture(&fakeCapturador{})

	jobID := ac.SubmitJob(model.Credencial{AdvogadoID: 3}, 1, model.OpcoesCaptura{})
	require.Eventually(t, func() bool {
		status, ok := ac.GetJobStatus(jobID)
		return ok && status.Status == "completed"
	}, time.Second, 5*time.Millisecond)

	status, ok := ac.GetJobStatus(jobID)
	require.True(t, ok)
	status.Status = "mangled"

	again, ok := ac.GetJobStatus(jobID)
	require.True(t, ok)
	assert.Equal(t, "completed", again.Status, "callers must not be able to mutate the stored status")
}

func TestGetJobStatusUnknownJob(t *testing.T) {
	ac := NewAsyncCapture(&fakeCapturador{})

	_, ok := ac.GetJobStatus("no-such-job")
	assert.False(t, ok)
}
