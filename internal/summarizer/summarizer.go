// Package summarizer turns a historical and forecast sales series into a short
// narrative by calling an external text-generation service.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrDisabled is the reason reported when no text-generation backend is configured.
var ErrDisabled = errors.New("summarizer is disabled")

// Request is the numeric input of a summary, without periods.
type Request struct {
	ItemName   string    `json:"item_name"`
	Historical []float64 `json:"historical"`
	Forecast   []float64 `json:"forecast"`
}

// Analysis is the outcome of a summary. When Available is false the call
// failed and Reason says why; callers render an empty analysis.
type Analysis struct {
	Text      string `json:"text"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Summarizer never fails the caller: every failure becomes an unavailable Analysis.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) Analysis
}

// Text wraps a successful summary.
func Text(text string) Analysis {
	return Analysis{Text: text, Available: true}
}

// Unavailable wraps a failure reason.
func Unavailable(err error) Analysis {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return Analysis{Available: false, Reason: reason}
}

// Prompt renders the instruction sent to the text-generation service.
func Prompt(req Request) string {
	return fmt.Sprintf(
		"Analyze the sales forecast for the item '%s'. The historical sales data is %s and the forecasted sales for the next %d months are %s.",
		req.ItemName, formatValues(req.Historical), len(req.Forecast), formatValues(req.Forecast))
}

func formatValues(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', 2, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type noopSummarizer struct{}

// NewNoop returns a Summarizer that always reports ErrDisabled.
func NewNoop() Summarizer {
	return noopSummarizer{}
}

func (noopSummarizer) Summarize(ctx context.Context, req Request) Analysis {
	return Unavailable(ErrDisabled)
}
