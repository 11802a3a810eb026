package telegram

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"community_notifier/internal/app"
	domainTelegram "community_notifier/internal/domain/telegram"
)

// RunReporter posts daily run summaries to the operator chat.
type RunReporter struct {
	channel    domainTelegram.ReportChannel
	operatorID int64
}

func NewRunReporter(channel domainTelegram.ReportChannel, operatorID int64) *RunReporter {
	return &RunReporter{channel: channel, operatorID: operatorID}
}

func (r *RunReporter) ReportRun(ctx context.Context, summary app.RunSummary) error {
	if err := r.channel.PostReport(ctx, r.operatorID, FormatRunSummary(summary)); err != nil {
		return fmt.Errorf("failed to send run report to operator %d: %w", r.operatorID, err)
	}
	return nil
}

// FormatRunSummary renders a run summary as plain text.
func FormatRunSummary(s app.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily run %s\n", s.Day)
	fmt.Fprintf(&b, "Active: %d, created: %d, skipped: %d, failed: %d\n", s.Active, s.Created, s.Skipped, s.Failed)

	if len(s.PerCollection) > 0 {
		keys := make([]string, 0, len(s.PerCollection))
		for k := range s.PerCollection {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%d", k, s.PerCollection[k]))
		}
		fmt.Fprintf(&b, "By collection: %s\n", strings.Join(parts, ", "))
	}

	if s.SummarySent {
		fmt.Fprintf(&b, "Summary push: %d sent, %d failed", s.PushSent, s.PushFailed)
	} else {
		b.WriteString("Summary push: not sent")
	}
	return b.String()
}
