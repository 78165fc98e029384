package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/internal/strategyconfig"
	"github.com/wonny/limitrade/pkg/httputil"
	"github.com/wonny/limitrade/pkg/logger"
)

const (
	itemLinkBase = "https://www.rolimons.com/item/"
	siteLink     = "https://www.rolimons.com"
	footerText   = "limitrade"
)

// embed colors by confidence
const (
	colorGreen  = 0x00FF00
	colorYellow = 0xFFFF00
	colorOrange = 0xFFA500
	colorRed    = 0xFF0000
	colorBlue   = 0x0099FF
)

// PolicySource yields the alert policy in force for the next delivery
type PolicySource interface {
	Config() *strategyconfig.Config
}

// Discord delivers combination alerts through a webhook.
// Implements contracts.Notifier.
type Discord struct {
	client     *httputil.Client
	webhookURL string
	roleID     string
	policy     PolicySource
	logger     *logger.Logger
	now        func() time.Time
}

// NewDiscord creates a webhook notifier. An empty webhookURL disables delivery.
func NewDiscord(client *httputil.Client, webhookURL, roleID string, policy PolicySource, log *logger.Logger) *Discord {
	if log == nil {
		log = logger.NewNop()
	}
	return &Discord{
		client:     client,
		webhookURL: webhookURL,
		roleID:     roleID,
		policy:     policy,
		logger:     log,
		now:        time.Now,
	}
}

type webhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []embed `json:"embeds"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	URL         string       `json:"url"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields"`
	Footer      embedFooter  `json:"footer"`
	Timestamp   string       `json:"timestamp"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text string `json:"text"`
}

// Notify sends one webhook message per qualifying combination and returns how many were delivered.
// Delivery stops at the first failure.
func (d *Discord) Notify(ctx context.Context, result *contracts.ScanResult) (int, error) {
	if d.webhookURL == "" {
		return 0, nil
	}

	cfg := d.policy.Config()
	selected := Select(result.Combinations, cfg.Alerts)
	sent := 0
	for _, combo := range selected {
		payload := d.buildPayload(combo, result.Profile)

		if err := d.post(ctx, payload); err != nil {
			return sent, err
		}
		sent++
	}

	if len(selected) > 0 {
		d.logger.WithFields(map[string]interface{}{
			"run_id":    result.RunID,
			"qualified": len(selected),
			"sent":      sent,
		}).Info("Discord alerts delivered")
	}
	return sent, nil
}

// Summary posts a market overview of one completed scan
func (d *Discord) Summary(ctx context.Context, result *contracts.ScanResult) error {
	if d.webhookURL == "" {
		return nil
	}
	now := d.now().UTC()
	payload := webhookPayload{
		Embeds: []embed{{
			Title:       "Market summary",
			Description: fmt.Sprintf("Scan %s with the %s profile", result.RunID, result.Profile),
			URL:         siteLink,
			Color:       colorBlue,
			Fields: []embedField{
				{Name: "Items scanned", Value: fmt.Sprintf("%d", result.Metrics.TotalItems), Inline: true},
				{Name: "Top picks", Value: fmt.Sprintf("%d", len(result.TopPicks)), Inline: true},
				{Name: "Trade combos", Value: fmt.Sprintf("%d", len(result.Combinations)), Inline: true},
				{Name: "Alerts sent", Value: fmt.Sprintf("%d", result.Alerts), Inline: true},
				{Name: "Market risk", Value: fmt.Sprintf("%.2f", result.Risk.Value), Inline: true},
				{Name: "Duration", Value: fmt.Sprintf("%.1fs", result.Duration().Seconds()), Inline: true},
			},
			Footer:    embedFooter{Text: footerText},
			Timestamp: now.Format(time.RFC3339),
		}},
	}
	return d.post(ctx, payload)
}

// SystemAlert posts an operational message colored by level
func (d *Discord) SystemAlert(ctx context.Context, message, level string) error {
	if d.webhookURL == "" {
		return nil
	}
	now := d.now().UTC()
	payload := webhookPayload{
		Embeds: []embed{{
			Title:       "System alert",
			Description: message,
			URL:         siteLink,
			Color:       levelColor(level),
			Footer:      embedFooter{Text: footerText},
			Timestamp:   now.Format(time.RFC3339),
		}},
	}
	return d.post(ctx, payload)
}

func (d *Discord) post(ctx context.Context, payload webhookPayload) error {
	resp, err := d.client.PostJSON(ctx, d.webhookURL, payload)
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	defer resp.Body.Close()
	if err := httputil.CheckStatus(resp); err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}

func (d *Discord) buildPayload(combo contracts.TradeCombination, strategy string) webhookPayload {
	now := d.now().UTC()

	link := siteLink
	if len(combo.Request) > 0 {
		link = fmt.Sprintf("%s%d", itemLinkBase, combo.Request[0])
	}

	description := fmt.Sprintf("**%s → %s**\n\n**Strategy**: %s\n**Risk**: %s\n**Outlook**: %s",
		joinNames(combo.OfferNames, combo.Offer),
		joinNames(combo.RequestNames, combo.Request),
		strategy, combo.RiskLevel, Outlook(combo.Score),
	)

	payload := webhookPayload{
		Embeds: []embed{{
			Title:       "Trade opportunity",
			Description: description,
			URL:         link,
			Color:       confidenceColor(combo.Score),
			Fields: []embedField{
				{Name: "Projected gain", Value: fmt.Sprintf("**%d** (%.1f%%)", combo.ProjectedGain, combo.ROIPercent), Inline: true},
				{Name: "Confidence", Value: fmt.Sprintf("**%.1f%%**", combo.Score*100), Inline: true},
				{Name: "Detected", Value: fmt.Sprintf("<t:%d:R>", now.Unix()), Inline: true},
			},
			Footer:    embedFooter{Text: footerText},
			Timestamp: now.Format(time.RFC3339),
		}},
	}
	if d.roleID != "" {
		payload.Content = fmt.Sprintf("<@&%s> New trade opportunity!", d.roleID)
	}
	return payload
}

// joinNames prefers display names and falls back to ids
func joinNames(names []string, ids []int64) string {
	if len(names) == len(ids) && len(names) > 0 {
		return strings.Join(names, " + ")
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("#%d", id)
	}
	return strings.Join(parts, " + ")
}

func confidenceColor(confidence float64) int {
	switch {
	case confidence > 0.95:
		return colorGreen
	case confidence > 0.9:
		return colorYellow
	case confidence > 0.8:
		return colorOrange
	default:
		return colorRed
	}
}

func levelColor(level string) int {
	switch level {
	case contracts.AlertSuccess:
		return colorGreen
	case contracts.AlertWarning:
		return colorYellow
	case contracts.AlertError:
		return colorRed
	default:
		return colorBlue
	}
}
