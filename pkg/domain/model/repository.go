package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

type Repository struct {
	Owner string `json:"owner" yaml:"owner"`
	Name  string `json:"name" yaml:"name"`
}

func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

func (r Repository) IsZero() bool {
	return r.Owner == "" && r.Name == ""
}

func (r Repository) Validate() error {
	if r.Owner == "" || r.Name == "" {
		return goerr.New("owner and repository name are required", goerr.V("repo", r.FullName()))
	}
	if strings.ContainsAny(r.Owner+r.Name, "/ ") {
		return goerr.New("owner and repository name must not contain '/' or spaces", goerr.V("repo", r.FullName()))
	}
	return nil
}

// ParseRepository parses "owner/name".
func ParseRepository(s string) (Repository, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Repository{}, goerr.New("repository must be in owner/name form", goerr.V("input", s))
	}
	repo := Repository{Owner: owner, Name: name}
	if err := repo.Validate(); err != nil {
		return Repository{}, err
	}
	return repo, nil
}
