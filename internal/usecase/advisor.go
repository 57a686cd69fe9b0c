package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campusgreen/internal/domain/entity"
	"campusgreen/internal/domain/repository"
	"campusgreen/internal/metrics"

	"github.com/apex/log"
)

// Advisor is the advice gateway. Every call resolves to a value: text
// operations fall back to their own literal and waste classification
// resolves to an explicit Failure. Calls are independent; there is no
// retry, cache or local timeout.
type Advisor struct {
	generator repository.ContentGenerator
}

func NewAdvisor(gen repository.ContentGenerator) *Advisor {
	return &Advisor{generator: gen}
}

func (a *Advisor) Handle(ctx context.Context, req entity.AdviceRequest) entity.AdviceResult {
	switch r := req.(type) {
	case entity.FreeformQuery:
		return a.freeformAdvice(ctx, r)
	case entity.DailyTip:
		return a.dailyTip(ctx, r)
	case entity.ClassifyWaste:
		return a.classifyWaste(ctx, r)
	case entity.PolishCaption:
		return a.polishCaption(ctx, r)
	case entity.Encouragement:
		return a.encouragement(ctx, r)
	default:
		// Unreachable while AdviceRequest stays closed.
		return entity.FailureResult(fmt.Sprintf("unsupported advice request %T", req))
	}
}

func (a *Advisor) FreeformAdvice(ctx context.Context, query string) string {
	return a.Handle(ctx, entity.FreeformQuery{Query: query}).Text
}

func (a *Advisor) DailyTip(ctx context.Context, completedChallengeIDs []string) string {
	return a.Handle(ctx, entity.DailyTip{CompletedChallengeIDs: completedChallengeIDs}).Text
}

func (a *Advisor) ClassifyWaste(ctx context.Context, image []byte, mimeType string) entity.AdviceResult {
	return a.Handle(ctx, entity.ClassifyWaste{Image: image, MIMEType: mimeType})
}

func (a *Advisor) PolishCaption(ctx context.Context, draft string) string {
	return a.Handle(ctx, entity.PolishCaption{Draft: draft}).Text
}

func (a *Advisor) Encouragement(ctx context.Context, suggestion string) string {
	return a.Handle(ctx, entity.Encouragement{Suggestion: suggestion}).Text
}

func (a *Advisor) freeformAdvice(ctx context.Context, r entity.FreeformQuery) entity.AdviceResult {
	temp := freeformTemperature
	text, err := a.call(ctx, r.Operation(), entity.Generation{
		Prompt:            r.Query,
		SystemInstruction: freeformInstruction,
		Temperature:       &temp,
	})
	if err != nil || text == "" {
		return a.fallback(r.Operation(), FreeformFallback)
	}
	return a.fromModel(r.Operation(), text)
}

// dailyTip keeps two fallbacks: one for an empty response and another for
// a failed call.
func (a *Advisor) dailyTip(ctx context.Context, r entity.DailyTip) entity.AdviceResult {
	temp := dailyTipTemperature
	text, err := a.call(ctx, r.Operation(), entity.Generation{
		Prompt:            dailyTipPrompt(r.CompletedChallengeIDs),
		SystemInstruction: dailyTipInstruction,
		Temperature:       &temp,
	})
	if err != nil {
		return a.fallback(r.Operation(), DailyTipErrorFallback)
	}
	if text == "" {
		return a.fallback(r.Operation(), DailyTipEmptyFallback)
	}
	return a.fromModel(r.Operation(), text)
}

func (a *Advisor) polishCaption(ctx context.Context, r entity.PolishCaption) entity.AdviceResult {
	text, err := a.call(ctx, r.Operation(), entity.Generation{Prompt: polishPrompt(r.Draft)})
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		return a.fallback(r.Operation(), r.Draft)
	}
	return a.fromModel(r.Operation(), text)
}

func (a *Advisor) encouragement(ctx context.Context, r entity.Encouragement) entity.AdviceResult {
	text, err := a.call(ctx, r.Operation(), entity.Generation{Prompt: encouragementPrompt(r.Suggestion)})
	if err != nil || text == "" {
		return a.fallback(r.Operation(), EncouragementFallback)
	}
	return a.fromModel(r.Operation(), text)
}

// call runs one upstream generation inside the failure boundary. Errors and
// panics from the generator both come back as an error.
func (a *Advisor) call(ctx context.Context, op string, gen entity.Generation) (text string, err error) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("generator panic: %v", rec)
		}
		metrics.AdvisorDurationSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
		if err != nil {
			log.WithError(err).WithField("operation", op).Error("[ADVISOR] upstream call failed")
		}
	}()
	return a.generator.Generate(ctx, gen)
}

func (a *Advisor) fromModel(op, text string) entity.AdviceResult {
	metrics.AdvisorRequestsTotal.WithLabelValues(op, metrics.OutcomeModel).Inc()
	return entity.TextResult(text, true)
}

func (a *Advisor) fallback(op, text string) entity.AdviceResult {
	metrics.AdvisorRequestsTotal.WithLabelValues(op, metrics.OutcomeFallback).Inc()
	log.WithField("operation", op).Warn("[ADVISOR] serving fallback")
	return entity.TextResult(text, false)
}
