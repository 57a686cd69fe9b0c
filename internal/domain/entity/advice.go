package entity

import "strings"

// Operation names, shared by logs, metrics and in-flight keys.
const (
	OpFreeformAdvice = "freeform_advice"
	OpDailyTip       = "daily_tip"
	OpClassifyWaste  = "classify_waste"
	OpPolishCaption  = "polish_caption"
	OpEncouragement  = "encouragement"
)

// AdviceRequest is one of FreeformQuery, DailyTip, ClassifyWaste,
// PolishCaption or Encouragement. The set is closed.
type AdviceRequest interface {
	Operation() string
	adviceRequest()
}

type FreeformQuery struct {
	Query string
}

type DailyTip struct {
	CompletedChallengeIDs []string
}

type ClassifyWaste struct {
	Image    []byte
	MIMEType string
}

type PolishCaption struct {
	Draft string
}

// Encouragement validates a quest idea submitted by a student.
type Encouragement struct {
	Suggestion string
}

func (FreeformQuery) Operation() string { return OpFreeformAdvice }
func (DailyTip) Operation() string      { return OpDailyTip }
func (ClassifyWaste) Operation() string { return OpClassifyWaste }
func (PolishCaption) Operation() string { return OpPolishCaption }
func (Encouragement) Operation() string { return OpEncouragement }

func (FreeformQuery) adviceRequest() {}
func (DailyTip) adviceRequest()      {}
func (ClassifyWaste) adviceRequest() {}
func (PolishCaption) adviceRequest() {}
func (Encouragement) adviceRequest() {}

type Category string

const (
	CategoryRecycle  Category = "Recycle"
	CategoryCompost  Category = "Compost"
	CategoryLandfill Category = "Landfill"
)

var categories = []Category{CategoryRecycle, CategoryCompost, CategoryLandfill}

// ParseCategory matches s against the known categories ignoring case and
// surrounding whitespace. It never guesses: unknown input reports false.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range categories {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

type Classification struct {
	Category Category `json:"category"`
	Advice   string   `json:"advice"`
}

type ResultKind int

const (
	PlainText ResultKind = iota
	Structured
	Failure
)

// AdviceResult is what the gateway hands back for every request. Text
// operations always resolve to PlainText (model output or a fallback);
// only waste classification can resolve to Failure.
type AdviceResult struct {
	Kind           ResultKind
	Text           string
	Classification *Classification
	Reason         string

	// FromModel is false when Text is a fallback value.
	FromModel bool
}

func TextResult(text string, fromModel bool) AdviceResult {
	return AdviceResult{Kind: PlainText, Text: text, FromModel: fromModel}
}

func StructuredResult(c Classification) AdviceResult {
	return AdviceResult{Kind: Structured, Classification: &c, FromModel: true}
}

func FailureResult(reason string) AdviceResult {
	return AdviceResult{Kind: Failure, Reason: reason}
}

func (r AdviceResult) Failed() bool {
	return r.Kind == Failure
}

// Image is inline binary content sent alongside a prompt.
type Image struct {
	Data     []byte
	MIMEType string
}

// Generation is a single upstream completion call.
type Generation struct {
	Prompt            string
	Image             *Image
	SystemInstruction string
	// Temperature is nil when the endpoint default should apply.
	Temperature      *float32
	ResponseMIMEType string
}
