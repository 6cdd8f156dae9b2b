package feedback

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/juju/errors"
)

const TypeWarmStats = "feedback:warm-stats"

type WarmStatsPayload struct {
	PackageName string `json:"package_name"`
	FormID      string `json:"form_id,omitempty"`
}

func NewWarmStatsTask(packageName, formID string) (*asynq.Task, error) {
	payload, err := json.Marshal(WarmStatsPayload{PackageName: packageName, FormID: formID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeWarmStats, payload), nil
}

// HandleWarmStatsTask rebuilds the cached stats of the package, and of the
// form when the payload names one. A package without rated feedback is
// skipped and a malformed payload is never retried.
func (s *Service) HandleWarmStatsTask(ctx context.Context, t *asynq.Task) error {
	var payload WarmStatsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logger.Errorf("warm-stats payload decode error: %v", err)
		return errors.Annotatef(asynq.SkipRetry, "decoding warm-stats payload: %v", err)
	}
	if payload.PackageName == "" {
		return errors.Annotate(asynq.SkipRetry, "warm-stats payload without package_name")
	}

	scopes := []string{""}
	if payload.FormID != "" {
		scopes = append(scopes, payload.FormID)
	}
	for _, formID := range scopes {
		if _, err := s.RefreshStats(ctx, payload.PackageName, formID); err != nil {
			if errors.Is(err, errors.NotFound) {
				logger.Debugf("no rated feedback for %q form %q, skipping", payload.PackageName, formID)
				continue
			}
			return errors.Trace(err)
		}
	}
	logger.Debugf("stats warmed for package %q", payload.PackageName)
	return nil
}

// RegisterHandlers ลงทะเบียน handler ทั้งหมดของ package feedback
func RegisterHandlers(mux *asynq.ServeMux, s *Service) {
	mux.HandleFunc(TypeWarmStats, s.HandleWarmStatsTask)
}
