package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
	"github.com/kirillkom/restaurant-classifier/internal/core/ports"
)

const DefaultClassifyTimeout = 45 * time.Second

type ClassifyRestaurantUseCase struct {
	model ports.ChatModel
	now   func() time.Time
}

// NewClassifyRestaurantUseCase builds the classifier. A nil model means no
// credential is configured and every call reports configuration_missing.
func NewClassifyRestaurantUseCase(model ports.ChatModel) *ClassifyRestaurantUseCase {
	return &ClassifyRestaurantUseCase{
		model: model,
		now:   time.Now,
	}
}

// Classify always returns a label. Failures are carried in the result with
// a nil latency.
func (uc *ClassifyRestaurantUseCase) Classify(ctx context.Context, in domain.ClassifyInput, timeout time.Duration) (result domain.Classification) {
	if uc.model == nil {
		return domain.Classification{
			Failure: domain.NewFailure(domain.FailureConfigurationMissing, "model credential missing"),
		}
	}

	prompt := buildClassificationPrompt(in)

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("classify_panic", "name", in.Name, "panic", r)
			result = domain.Classification{
				Failure: domain.NewFailure(domain.FailureProvider, fmt.Sprintf("model call panicked: %v", r)),
			}
		}
	}()

	start := uc.now()
	reply, err := uc.model.Complete(callCtx, prompt)
	if err != nil {
		slog.Warn("classify_failed", "name", in.Name, "error", err)
		return domain.Classification{Failure: domain.FailureFromError(err)}
	}
	latency := uc.now().Sub(start)

	category := NormalizeCategory(reply)
	slog.Debug("classify_reply",
		"name", in.Name,
		"reply", reply,
		"category", category,
		"latency_ms", float64(latency.Microseconds())/1000.0,
	)
	return domain.Classification{
		Category: category,
		Latency:  &latency,
		Reply:    reply,
	}
}
