package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/mfbarbosa/acervo/internal/config"
	"github.com/mfbarbosa/acervo/internal/model"
	"github.com/mfbarbosa/acervo/internal/service"
)

// Alvo is one (tribunal, grau) pair the scheduler captures.
type Alvo struct {
	Tribunal int
	Grau     model.Grau
}

// ParseAlvos parses the SCHEDULER_TRIBUNAIS value, a comma-separated list of
// tribunal:grau pairs, e.g. "1:1,1:2,15:1".
func ParseAlvos(spec string) ([]Alvo, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}

	var alvos []Alvo
	for _, part := range strings.Split(spec, ",") {
		fields := strings.Split(strings.TrimSpace(part), ":")
		if len(fields) != 2 {
			return nil, fmt.Errorf("invalid alvo %q, expected tribunal:grau", part)
		}
		tribunal, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("invalid tribunal in %q: %w", part, err)
		}
		grau, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("invalid grau in %q: %w", part, err)
		}
		a := Alvo{Tribunal: tribunal, Grau: model.Grau(grau)}
		if a.Tribunal < 1 || a.Tribunal > 24 || !a.Grau.Valid() {
			return nil, fmt.Errorf("alvo %q out of range", part)
		}
		alvos = append(alvos, a)
	}
	return alvos, nil
}

// Scheduler periodically recaptures the acervo listing of the configured
// tribunal instances. Each run goes through the same distributed lock as
// manual captures, so multiple pods on the same cron never double-capture.
type Scheduler struct {
	cron   *cron.Cron
	acervo *service.AcervoService
	cred   model.Credencial
	alvos  []Alvo
	spec   string
}

// New creates a scheduler from configuration. Returns nil when disabled.
func New(cfg *config.Config, acervo *service.AcervoService) (*Scheduler, error) {
	if !cfg.SchedulerEnabled {
		slog.Info("Scheduler is disabled by configuration")
		return nil, nil
	}

	alvos, err := ParseAlvos(cfg.SchedulerTribunais)
	if err != nil {
		return nil, err
	}
	if len(alvos) == 0 {
		return nil, errors.New("scheduler enabled but SCHEDULER_TRIBUNAIS is empty")
	}
	if cfg.SchedulerToken == "" || cfg.SchedulerAdvogadoID <= 0 {
		return nil, errors.New("scheduler enabled but credential is not configured")
	}

	return &Scheduler{
		cron:   cron.New(),
		acervo: acervo,
		cred: model.Credencial{
			AdvogadoID: cfg.SchedulerAdvogadoID,
			Token:      cfg.SchedulerToken,
		},
		alvos: alvos,
		spec:  cfg.SchedulerCron,
	}, nil
}

// Start registers the cron entry and begins ticking.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.spec, err)
	}

	s.cron.Start()

	slog.Info("Scheduler started",
		"cron", s.spec,
		"alvos", len(s.alvos),
		"advogado_id", s.cred.AdvogadoID,
	)
	return nil
}

// Stop halts the cron and waits for an in-flight run to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		slog.Info("Scheduler stopped")
	case <-ctx.Done():
		slog.Warn("Timeout waiting for scheduled capture to complete")
	}
}

// run captures every configured alvo sequentially. Lock contention with a
// sibling pod is expected and skipped quietly.
func (s *Scheduler) run() {
	ctx := context.Background()

	slog.Info("Scheduled acervo capture starting", "alvos", len(s.alvos))

	for _, alvo := range s.alvos {
		resultado, err := s.acervo.CapturarAcervo(ctx, s.cred, alvo.Tribunal, alvo.Grau)
		if err != nil {
			if errors.Is(err, service.ErrCapturaEmAndamento) {
				slog.Debug("Acervo capture already running elsewhere",
					"tribunal", alvo.Tribunal,
					"grau", alvo.Grau.Path(),
				)
				continue
			}
			slog.Error("Scheduled acervo capture failed",
				"tribunal", alvo.Tribunal,
				"grau", alvo.Grau.Path(),
				"error", err,
			)
			continue
		}

		slog.Info("Scheduled acervo capture finished",
			"tribunal", alvo.Tribunal,
			"grau", alvo.Grau.Path(),
			"listados", resultado.TotalListados,
			"novos", resultado.TotalNovos,
		)
	}
}
