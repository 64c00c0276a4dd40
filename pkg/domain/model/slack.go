package model

// SlackAction represents a Slack notification action. Message is a
// text/template rendered against RunEvent.
type SlackAction struct {
	WebhookURL string `yaml:"webhook_url"`
	Message    string `yaml:"message"`
	Color      string `yaml:"color,omitempty"`    // good, warning, danger, or #hex
	UserName   string `yaml:"username,omitempty"` // only honored if the webhook allows it
}

// SlackPayload represents the JSON payload for Slack webhook
type SlackPayload struct {
	Text        string       `json:"text,omitempty"`
	UserName    string       `json:"username,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	Color     string `json:"color,omitempty"`
	Title     string `json:"title,omitempty"`
	TitleLink string `json:"title_link,omitempty"`
	Text      string `json:"text,omitempty"`
	Footer    string `json:"footer,omitempty"`
	Timestamp int64  `json:"ts,omitempty"`
}
