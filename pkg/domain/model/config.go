package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

const (
	DefaultPollInterval     = 3 * time.Minute
	DefaultMaxDownloadBytes = 256 << 20
	DefaultServerAddr       = "127.0.0.1:8080"
)

var (
	DefaultDeploymentTokens = []string{"deploy", "production", "prod", "release"}
	DefaultArtifactTokens   = []string{"test", "results"}
)

// Config represents the application configuration
type Config struct {
	GitHub       GitHubConfig     `yaml:"github"`
	Repository   Repository       `yaml:"repository"`
	PollInterval time.Duration    `yaml:"poll_interval"`
	Classifier   ClassifierConfig `yaml:"classifier"`
	Download     DownloadConfig   `yaml:"download"`
	Server       ServerConfig     `yaml:"server"`
	Hooks        HooksConfig      `yaml:"hooks"`
}

type GitHubConfig struct {
	// BaseURL overrides the REST endpoint, e.g. for GitHub Enterprise
	// ("https://ghe.example.com/api/v3/").
	BaseURL string `yaml:"base_url,omitempty"`
}

type ClassifierConfig struct {
	DeploymentTokens []string `yaml:"deployment_tokens,omitempty"`
	ArtifactTokens   []string `yaml:"artifact_tokens,omitempty"`
}

type DownloadConfig struct {
	MaxBytes int64 `yaml:"max_bytes,omitempty"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// HooksConfig defines actions fired by the watch command when a run completes
type HooksConfig struct {
	RunSuccess []Action `yaml:"run_success,omitempty"`
	RunFailure []Action `yaml:"run_failure,omitempty"`
}

// NewConfig returns a Config with every default filled in.
func NewConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued settings.
func (c *Config) ApplyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if len(c.Classifier.DeploymentTokens) == 0 {
		c.Classifier.DeploymentTokens = append([]string(nil), DefaultDeploymentTokens...)
	}
	if len(c.Classifier.ArtifactTokens) == 0 {
		c.Classifier.ArtifactTokens = append([]string(nil), DefaultArtifactTokens...)
	}
	if c.Download.MaxBytes <= 0 {
		c.Download.MaxBytes = DefaultMaxDownloadBytes
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
}

// Action represents an action to be executed
type Action struct {
	Type string                 `yaml:"type"` // "slack", "command", "notify"
	Data map[string]interface{} `yaml:",inline"`
}

// ToSlackAction converts Action to SlackAction for type safety
func (a *Action) ToSlackAction() (*SlackAction, error) {
	if a.Type != "slack" {
		return nil, goerr.New("action is not a slack type", goerr.V("type", a.Type))
	}

	webhookURL, ok := a.Data["webhook_url"].(string)
	if !ok || webhookURL == "" {
		return nil, goerr.New("slack action requires 'webhook_url' field")
	}

	message, ok := a.Data["message"].(string)
	if !ok || message == "" {
		return nil, goerr.New("slack action requires 'message' field")
	}

	slackAction := &SlackAction{
		WebhookURL: webhookURL,
		Message:    message,
	}
	if color, ok := a.Data["color"].(string); ok {
		slackAction.Color = color
	}
	if userName, ok := a.Data["username"].(string); ok {
		slackAction.UserName = userName
	}

	return slackAction, nil
}

// ToNotifyAction converts Action to NotifyAction for type safety
func (a *Action) ToNotifyAction() (*NotifyAction, error) {
	if a.Type != "notify" {
		return nil, goerr.New("action is not a notify type", goerr.V("type", a.Type))
	}

	message, ok := a.Data["message"].(string)
	if !ok || message == "" {
		return nil, goerr.New("notify action requires 'message' field")
	}

	notifyAction := &NotifyAction{
		Title:   "octodash",
		Message: message,
	}
	if title, ok := a.Data["title"].(string); ok && title != "" {
		notifyAction.Title = title
	}
	if sound, ok := a.Data["sound"].(bool); ok {
		notifyAction.Sound = &sound
	}

	return notifyAction, nil
}

// ToCommandAction converts Action to CommandAction for type safety
func (a *Action) ToCommandAction() (*CommandAction, error) {
	if a.Type != "command" {
		return nil, goerr.New("action is not a command type", goerr.V("type", a.Type))
	}

	command, ok := a.Data["command"].(string)
	if !ok || command == "" {
		return nil, goerr.New("command action requires 'command' field")
	}

	cmdAction := &CommandAction{Command: command}

	if v, ok := a.Data["args"]; ok {
		args, err := toStringSlice(v)
		if err != nil {
			return nil, goerr.Wrap(err, "command action 'args' must be a string array")
		}
		cmdAction.Args = args
	}

	if v, ok := a.Data["env"]; ok {
		env, err := toStringSlice(v)
		if err != nil {
			return nil, goerr.Wrap(err, "command action 'env' must be a string array")
		}
		cmdAction.Env = env
	}

	if v, ok := a.Data["timeout"]; ok {
		switch t := v.(type) {
		case string:
			timeout, err := time.ParseDuration(t)
			if err != nil {
				return nil, goerr.Wrap(err, "invalid timeout format", goerr.V("timeout", t))
			}
			cmdAction.Timeout = timeout
		case time.Duration:
			cmdAction.Timeout = t
		default:
			return nil, goerr.New("command action 'timeout' must be a duration string")
		}
	}

	return cmdAction, nil
}

func toStringSlice(v interface{}) ([]string, error) {
	switch s := v.(type) {
	case []string:
		return s, nil
	case []interface{}:
		out := make([]string, len(s))
		for i, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, goerr.New("element is not a string", goerr.V("index", i))
			}
			out[i] = str
		}
		return out, nil
	default:
		return nil, goerr.New("value is not an array")
	}
}
