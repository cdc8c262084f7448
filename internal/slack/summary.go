package slack

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/theopenlane/eushield/internal/types"
)

const (
	// maxSummarySignals caps how many signals are listed per category
	maxSummarySignals = 5
	// sectionTextLimit is the Block Kit limit for section text
	sectionTextLimit = 3000
)

var statusEmoji = map[types.Status]string{
	types.StatusGreen: ":large_green_circle:",
	types.StatusRed:   ":red_circle:",
	types.StatusGrey:  ":white_circle:",
}

// NotifyAnalysis posts the summary of a fresh analysis
func (c *Client) NotifyAnalysis(ctx context.Context, domain, analyzedURL string, result types.ScoringResult) error {
	return c.Send(ctx, AnalysisMessage(domain, analyzedURL, result))
}

// AnalysisMessage formats a scoring result into a Block Kit message
func AnalysisMessage(domain, analyzedURL string, result types.ScoringResult) Message {
	header := fmt.Sprintf("EU operator check: %s", domain)

	blocks := []Block{
		{
			Type: "header",
			Text: &TextObject{Type: "plain_text", Text: header},
		},
		{
			Type: "section",
			Fields: []TextObject{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Status:*\n%s %s", statusEmoji[result.Status], result.Status)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Score:*\n%d", result.Score)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Confidence:*\n%d%%", result.Confidence)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Analyzed:*\n%s", analyzedURL)},
			},
		},
	}

	positive := lo.Filter(result.Signals, func(s types.MatchedSignal, _ int) bool {
		return s.Category == types.CategoryEUPositive
	})
	redFlags := lo.Filter(result.Signals, func(s types.MatchedSignal, _ int) bool {
		return s.Category == types.CategoryRedFlag
	})

	if text := signalList("EU signals", positive); text != "" {
		blocks = append(blocks, Block{Type: "section", Text: &TextObject{Type: "mrkdwn", Text: text}})
	}

	if text := signalList("Red flags", redFlags); text != "" {
		blocks = append(blocks, Block{Type: "section", Text: &TextObject{Type: "mrkdwn", Text: text}})
	}

	blocks = append(blocks, Block{
		Type: "context",
		Elements: []TextObject{{
			Type: "mrkdwn",
			Text: fmt.Sprintf("%d of %d positive signals matched", len(positive), result.TotalPossibleSignals),
		}},
	})

	return Message{
		Text:   fmt.Sprintf("%s: %s (score %d)", header, result.Status, result.Score),
		Blocks: blocks,
	}
}

// signalList renders the heaviest signals of one category, or "" when there are none
func signalList(title string, signals []types.MatchedSignal) string {
	if len(signals) == 0 {
		return ""
	}

	sorted := slices.Clone(signals)
	slices.SortStableFunc(sorted, func(a, b types.MatchedSignal) int {
		return abs(b.Weight) - abs(a.Weight)
	})

	lines := lo.Map(lo.Slice(sorted, 0, maxSummarySignals), func(s types.MatchedSignal, _ int) string {
		return fmt.Sprintf("• %s (%+d, %dx)", s.Label, s.Weight, s.MatchCount)
	})

	if extra := len(sorted) - maxSummarySignals; extra > 0 {
		lines = append(lines, fmt.Sprintf("_and %d more_", extra))
	}

	return truncateText(fmt.Sprintf("*%s:*\n%s", title, strings.Join(lines, "\n")), sectionTextLimit)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}

// truncateText truncates text to maxLen bytes, adding an ellipsis if truncated
func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}

	return text[:maxLen-3] + "..."
}
