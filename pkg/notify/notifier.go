// Package notify posts scan findings to Slack.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	goslack "github.com/slack-go/slack"

	"github.com/wisbric/kubeowl/pkg/fault"
)

// Notifier sends scan summaries to a Slack channel.
type Notifier struct {
	client  *goslack.Client
	channel string
	logger  *slog.Logger
}

// NewNotifier creates a Slack Notifier. If botToken is empty, the notifier
// will be a noop (logging only).
func NewNotifier(botToken, channel string, logger *slog.Logger) *Notifier {
	var client *goslack.Client
	if botToken != "" {
		client = goslack.New(botToken)
	}
	return &Notifier{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

// IsEnabled returns true if the notifier has a Slack client and a channel.
func (n *Notifier) IsEnabled() bool {
	return n.client != nil && n.channel != ""
}

// PostScanSummary posts a summary of a scan that found critical faults.
// Called only when stats.Critical > 0; failures are logged, never surfaced.
func (n *Notifier) PostScanSummary(ctx context.Context, clusterID string, stats fault.Stats, critical []fault.Info) {
	if !n.IsEnabled() {
		n.logger.Debug("slack notifier disabled, skipping scan summary", "cluster_id", clusterID)
		return
	}

	header := fmt.Sprintf(":rotating_light: Scan of cluster %s found %d critical faults (%d total)",
		clusterID, stats.Critical, stats.Total)

	blocks := []goslack.Block{
		goslack.NewHeaderBlock(goslack.NewTextBlockObject(goslack.PlainTextType, "kubeowl scan alert", false, false)),
		goslack.NewSectionBlock(goslack.NewTextBlockObject(goslack.MarkdownType, header, false, false), nil, nil),
	}

	shown := critical
	if len(shown) > 5 {
		shown = shown[:5]
	}
	for _, f := range shown {
		line := fmt.Sprintf("*%s* `%s/%s` — %s", f.Type, f.Namespace, f.ResourceName, f.Summary)
		blocks = append(blocks,
			goslack.NewSectionBlock(goslack.NewTextBlockObject(goslack.MarkdownType, line, false, false), nil, nil))
	}

	_, _, err := n.client.PostMessageContext(ctx, n.channel,
		goslack.MsgOptionBlocks(blocks...),
		goslack.MsgOptionText(header, false),
	)
	if err != nil {
		n.logger.Warn("posting scan summary to slack failed", "cluster_id", clusterID, "error", err)
		return
	}
	n.logger.Info("posted scan summary to slack", "cluster_id", clusterID, "critical", stats.Critical)
}
