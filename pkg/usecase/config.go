package usecase

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octodash/pkg/domain"
	"github.com/m-mizutani/octodash/pkg/domain/interfaces"
	"github.com/m-mizutani/octodash/pkg/domain/model"
	"gopkg.in/yaml.v3"
)

var configFileNames = []string{".octodash.yml", ".octodash.yaml"}

type configService struct {
	defaultPath string
}

// NewConfigService creates a ConfigService rooted at ~/.config/octodash
func NewConfigService() interfaces.ConfigService {
	homeDir, _ := os.UserHomeDir()
	return &configService{
		defaultPath: filepath.Join(homeDir, ".config", "octodash", "config.yml"),
	}
}

// Load reads and parses the YAML file at path, filling defaults.
func (c *configService) Load(path string) (*model.Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is supplied by the user
	if err != nil {
		return nil, domain.ErrConfiguration.Wrap(err, goerr.V("path", path))
	}

	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, domain.ErrConfiguration.Wrap(err, goerr.V("path", path))
	}
	cfg.ApplyDefaults()

	return &cfg, nil
}

// LoadDefault loads the default config file. A missing file yields defaults.
func (c *configService) LoadDefault() (*model.Config, error) {
	cfg, err := c.Load(c.defaultPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.NewConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// LoadFromDirectory loads the first project config file found in dir. The
// returned path is empty when there is none, and set even when parsing fails.
func (c *configService) LoadFromDirectory(dir string) (*model.Config, string, error) {
	path := c.findConfigInDirectory(dir)
	if path == "" {
		return model.NewConfig(), "", nil
	}

	cfg, err := c.Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

func (c *configService) findConfigInDirectory(dir string) string {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func (c *configService) GetDefaultPath() string {
	return c.defaultPath
}

func (c *configService) GenerateTemplate() string {
	return fmt.Sprintf(`# octodash configuration

github:
  # REST endpoint; set for GitHub Enterprise, e.g. https://ghe.example.com/api/v3/
  # base_url: https://api.github.com/

# Repository used when neither flags nor the git remote provide one
# repository:
#   owner: octocat
#   name: hello-world

poll_interval: %s

classifier:
  # Runs whose name contains one of these (case-insensitive) are deployments
  deployment_tokens: [%s]
  # First artifact whose name contains one of these holds the test report
  artifact_tokens: [%s]

download:
  max_bytes: %d

server:
  addr: %s
  allowed_origins: ["*"]

hooks:
  run_success:
    - type: command
      command: echo
      args: ["$OCTODASH_RUN_NAME succeeded"]
  run_failure:
    - type: slack
      webhook_url: ${SLACK_WEBHOOK_URL}
      message: "{{.Run.Name}} failed on {{.Run.Branch}}: {{.Run.URL}}"
      color: danger
    - type: notify
      title: "octodash"
      message: "{{.Run.Name}} failed"
`,
		model.DefaultPollInterval,
		joinQuoted(model.DefaultDeploymentTokens),
		joinQuoted(model.DefaultArtifactTokens),
		model.DefaultMaxDownloadBytes,
		model.DefaultServerAddr,
	)
}

func joinQuoted(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%q", item)
	}
	return out
}

func (c *configService) SaveTemplate(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return domain.ErrConfiguration.Wrap(goerr.New("config file already exists, use --force to overwrite"), goerr.V("path", path))
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return domain.ErrConfiguration.Wrap(err, goerr.V("path", path))
	}

	if err := os.WriteFile(path, []byte(c.GenerateTemplate()), 0600); err != nil {
		return domain.ErrConfiguration.Wrap(err, goerr.V("path", path))
	}

	return nil
}
