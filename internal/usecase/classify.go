package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"campusgreen/internal/domain/entity"
	"campusgreen/internal/metrics"

	"github.com/apex/log"
)

const defaultImageMIMEType = "image/jpeg"

func (a *Advisor) classifyWaste(ctx context.Context, r entity.ClassifyWaste) entity.AdviceResult {
	op := r.Operation()
	if len(r.Image) == 0 {
		return a.rejected(op, fmt.Errorf("%w: empty image", entity.ErrAnalysisFailed))
	}
	mimeType := r.MIMEType
	if mimeType == "" {
		mimeType = defaultImageMIMEType
	}

	text, err := a.call(ctx, op, entity.Generation{
		Prompt:           classifyInstruction,
		Image:            &entity.Image{Data: r.Image, MIMEType: mimeType},
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		// Already logged by call.
		return a.failed(op, fmt.Errorf("%w: %v", entity.ErrAnalysisFailed, err))
	}

	c, err := parseClassification(text)
	if err != nil {
		return a.rejected(op, err)
	}
	metrics.AdvisorRequestsTotal.WithLabelValues(op, metrics.OutcomeModel).Inc()
	return entity.StructuredResult(c)
}

type classificationPayload struct {
	Category string `json:"category"`
	Advice   string `json:"advice"`
}

// parseClassification decodes the model's JSON answer. Anything short of a
// known category with advice text is an error; no category is assumed.
func parseClassification(text string) (entity.Classification, error) {
	raw := extractJSON(text)
	if raw == "" {
		return entity.Classification{}, fmt.Errorf("%w: empty response", entity.ErrAnalysisFailed)
	}

	var p classificationPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return entity.Classification{}, fmt.Errorf("%w: malformed response: %v", entity.ErrAnalysisFailed, err)
	}
	category, ok := entity.ParseCategory(p.Category)
	if !ok {
		return entity.Classification{}, fmt.Errorf("%w: unknown category %q", entity.ErrAnalysisFailed, p.Category)
	}
	advice := strings.TrimSpace(p.Advice)
	if advice == "" {
		return entity.Classification{}, fmt.Errorf("%w: missing advice", entity.ErrAnalysisFailed)
	}
	return entity.Classification{Category: category, Advice: advice}, nil
}

// extractJSON returns the outermost JSON object in text, dropping any code
// fence or lead-in around it. Text without an object is returned trimmed.
func extractJSON(text string) string {
	s := strings.TrimSpace(text)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

// rejected logs a classification that failed without an upstream error.
func (a *Advisor) rejected(op string, err error) entity.AdviceResult {
	log.WithError(err).WithField("operation", op).Warn("[ADVISOR] classification rejected")
	return a.failed(op, err)
}

func (a *Advisor) failed(op string, err error) entity.AdviceResult {
	metrics.AdvisorRequestsTotal.WithLabelValues(op, metrics.OutcomeFailed).Inc()
	if !errors.Is(err, entity.ErrAnalysisFailed) {
		err = fmt.Errorf("%w: %v", entity.ErrAnalysisFailed, err)
	}
	return entity.FailureResult(err.Error())
}
