package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octodash/pkg/domain/interfaces"
	"github.com/m-mizutani/octodash/pkg/domain/model"
)

type slackAction struct {
	httpClient *http.Client
}

// NewSlackAction creates a new SlackAction instance
func NewSlackAction() interfaces.ActionExecutor {
	return &slackAction{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Execute posts the rendered message to the configured webhook
func (s *slackAction) Execute(ctx context.Context, action model.Action, event model.RunEvent) error {
	slackAction, err := action.ToSlackAction()
	if err != nil {
		return goerr.Wrap(err, "failed to parse slack action")
	}

	webhookURL := os.ExpandEnv(slackAction.WebhookURL)
	if webhookURL == "" {
		return goerr.New("webhook URL is empty after expansion")
	}

	message, err := renderRunTemplate(slackAction.Message, event)
	if err != nil {
		return err
	}

	payload := model.SlackPayload{
		Text:     message,
		UserName: slackAction.UserName,
	}
	if slackAction.Color != "" {
		payload.Text = ""
		payload.Attachments = []model.Attachment{
			{
				Color:     slackAction.Color,
				Text:      message,
				Footer:    fmt.Sprintf("octodash - %s", event.Repository),
				Timestamp: time.Now().Unix(),
			},
		}
		if event.Run != nil {
			payload.Attachments[0].Title = event.Run.Name
			payload.Attachments[0].TitleLink = event.Run.URL
		}
	}

	if err := s.send(ctx, webhookURL, payload); err != nil {
		return err
	}

	ctxlog.From(ctx).Debug("Slack notification sent",
		slog.String("event", string(event.Type)),
		slog.String("webhook_url", maskWebhookURL(webhookURL)),
	)
	return nil
}

func (s *slackAction) send(ctx context.Context, webhookURL string, payload model.SlackPayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal slack payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return goerr.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to send request", goerr.V("webhook_url", maskWebhookURL(webhookURL)))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var respBody bytes.Buffer
		_, _ = respBody.ReadFrom(resp.Body)
		return goerr.New("slack webhook returned error",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", respBody.String()),
		)
	}

	return nil
}

// renderRunTemplate executes a text/template with the event as data
func renderRunTemplate(text string, event model.RunEvent) (string, error) {
	tmpl, err := template.New("message").Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", goerr.Wrap(err, "failed to parse message template")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, event); err != nil {
		return "", goerr.Wrap(err, "failed to execute message template")
	}
	return buf.String(), nil
}

func maskWebhookURL(url string) string {
	if strings.Contains(url, "hooks.slack.com") {
		parts := strings.Split(url, "/")
		if len(parts) > 3 {
			for i := len(parts) - 3; i < len(parts); i++ {
				if len(parts[i]) > 4 {
					parts[i] = parts[i][:2] + "***"
				}
			}
			return strings.Join(parts, "/")
		}
	}
	if len(url) > 20 {
		return url[:20] + "***"
	}
	return "***"
}
