package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"campusgreen/internal/domain/entity"
	"campusgreen/internal/domain/repository"
	"campusgreen/internal/metrics"
	"campusgreen/internal/usecase"

	"github.com/apex/log"
	"github.com/gofiber/fiber/v2"
)

// Message shown to students when a scan cannot be classified.
const (
	scanFailedMessage = "AI analysis failed. Try a clearer photo."
	scanFailedCode    = "analysis_failed"
)

type AdviceHandler struct {
	advisor  *usecase.Advisor
	inFlight repository.InFlightGuard
}

func NewAdviceHandler(advisor *usecase.Advisor, inFlight repository.InFlightGuard) *AdviceHandler {
	return &AdviceHandler{advisor: advisor, inFlight: inFlight}
}

type adviceRequest struct {
	Query string `json:"query"`
}

type dailyTipRequest struct {
	CompletedChallenges []string `json:"completed_challenges"`
}

type captionRequest struct {
	Text string `json:"text"`
}

type suggestionRequest struct {
	Suggestion string `json:"suggestion"`
}

type textResponse struct {
	Text      string `json:"text"`
	FromModel bool   `json:"from_model"`
}

func (h *AdviceHandler) HandleAdvice(c *fiber.Ctx) error {
	var req adviceRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		return badRequest(c, "query is required")
	}
	return h.respondText(c, entity.FreeformQuery{Query: strings.TrimSpace(req.Query)})
}

func (h *AdviceHandler) HandleDailyTip(c *fiber.Ctx) error {
	var req dailyTipRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	return h.respondText(c, entity.DailyTip{CompletedChallengeIDs: req.CompletedChallenges})
}

func (h *AdviceHandler) HandlePolishCaption(c *fiber.Ctx) error {
	var req captionRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return badRequest(c, "text is required")
	}
	return h.respondText(c, entity.PolishCaption{Draft: req.Text})
}

func (h *AdviceHandler) HandleQuestSuggestion(c *fiber.Ctx) error {
	var req suggestionRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Suggestion) == "" {
		return badRequest(c, "suggestion is required")
	}
	return h.respondText(c, entity.Encouragement{Suggestion: strings.TrimSpace(req.Suggestion)})
}

// HandleScan takes a multipart upload with the photo in the "image" field.
func (h *AdviceHandler) HandleScan(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return badRequest(c, "image is required")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "image could not be read")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil || len(data) == 0 {
		return badRequest(c, "image could not be read")
	}

	mimeType := c.FormValue("mime_type")
	if mimeType == "" {
		mimeType = fh.Header.Get("Content-Type")
	}
	if mimeType != "" && !strings.HasPrefix(mimeType, "image/") {
		mimeType = ""
	}

	res, err := h.run(c, entity.ClassifyWaste{Image: data, MIMEType: mimeType})
	if err != nil {
		return writeError(c, err)
	}
	if res.Failed() {
		// Reason carries upstream detail and stays in the logs.
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": scanFailedMessage,
			"code":  scanFailedCode,
		})
	}
	return c.Status(fiber.StatusOK).JSON(res.Classification)
}

func (h *AdviceHandler) respondText(c *fiber.Ctx, req entity.AdviceRequest) error {
	res, err := h.run(c, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(textResponse{Text: res.Text, FromModel: res.FromModel})
}

// run holds the caller's busy flag for the operation while the advisor call
// is outstanding.
func (h *AdviceHandler) run(c *fiber.Ctx, req entity.AdviceRequest) (entity.AdviceResult, error) {
	ctx := c.Context()
	key := callerID(c) + ":" + req.Operation()

	token, ok, err := h.inFlight.Acquire(ctx, key)
	if err != nil {
		return entity.AdviceResult{}, fmt.Errorf("%w: in-flight guard: %v", entity.ErrInternalServer, err)
	}
	if !ok {
		metrics.InFlightRejectedTotal.WithLabelValues(req.Operation()).Inc()
		return entity.AdviceResult{}, entity.ErrRequestInFlight
	}
	defer func() {
		// The request context may already be done; release regardless.
		if err := h.inFlight.Release(context.Background(), key, token); err != nil {
			log.WithError(err).WithField("key", key).Warn("[API] failed to release in-flight flag")
		}
	}()

	return h.advisor.Handle(ctx, req), nil
}

// writeError maps domain errors to HTTP status codes.
func writeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, entity.ErrRequestInFlight) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	log.WithError(err).Error("[API] request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal gateway error"})
}

func callerID(c *fiber.Ctx) string {
	if id := strings.TrimSpace(c.Get("X-User-ID")); id != "" {
		return id
	}
	return c.IP()
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": entity.ErrInvalidRequest.Error() + ": " + msg})
}
