package usecase

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/m-mizutani/octodash/pkg/domain"
	"github.com/m-mizutani/octodash/pkg/domain/model"
)

// PreferenceStorage remembers the last repository the user looked at.
type PreferenceStorage struct {
	configDir string
}

func NewPreferenceStorage() *PreferenceStorage {
	homeDir, _ := os.UserHomeDir()
	return NewPreferenceStorageAt(filepath.Join(homeDir, ".config", "octodash"))
}

func NewPreferenceStorageAt(dir string) *PreferenceStorage {
	return &PreferenceStorage{configDir: dir}
}

func (s *PreferenceStorage) getStatePath() string {
	return filepath.Join(s.configDir, "state.json")
}

type stateData struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

func (s *PreferenceStorage) SaveRepository(ctx context.Context, repo model.Repository) error {
	if err := os.MkdirAll(s.configDir, 0700); err != nil {
		return domain.ErrConfiguration.Wrap(err)
	}

	data := stateData{Owner: repo.Owner, Repo: repo.Name}
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return domain.ErrConfiguration.Wrap(err)
	}

	if err := os.WriteFile(s.getStatePath(), jsonData, 0600); err != nil {
		return domain.ErrConfiguration.Wrap(err)
	}

	return nil
}

// LoadRepository returns nil without error when nothing was saved yet.
func (s *PreferenceStorage) LoadRepository(ctx context.Context) (*model.Repository, error) {
	data, err := os.ReadFile(s.getStatePath()) // #nosec G304 - path is built from a fixed directory
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, domain.ErrConfiguration.Wrap(err)
	}

	var state stateData
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, domain.ErrConfiguration.Wrap(err)
	}
	if state.Owner == "" || state.Repo == "" {
		return nil, nil
	}

	return &model.Repository{Owner: state.Owner, Name: state.Repo}, nil
}
