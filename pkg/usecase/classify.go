package usecase

import (
	"strings"

	"github.com/m-mizutani/octodash/pkg/domain/model"
)

// RunClassifier picks deployment runs by case-insensitive substring match of
// the run name against a token set.
type RunClassifier struct {
	tokens []string
}

// NewRunClassifier uses model.DefaultDeploymentTokens when tokens is empty.
func NewRunClassifier(tokens []string) *RunClassifier {
	if len(tokens) == 0 {
		tokens = model.DefaultDeploymentTokens
	}
	return &RunClassifier{tokens: normalizeTokens(tokens)}
}

var defaultClassifier = NewRunClassifier(nil)

// ClassifyDeployments filters runs with the default deployment tokens.
func ClassifyDeployments(runs []*model.Run) []*model.Run {
	return defaultClassifier.Deployments(runs)
}

func (c *RunClassifier) IsDeployment(run *model.Run) bool {
	return run != nil && matchesAny(run.Name, c.tokens)
}

// Deployments keeps the relative order of runs. The result is never nil.
func (c *RunClassifier) Deployments(runs []*model.Run) []*model.Run {
	deployments := make([]*model.Run, 0, len(runs))
	for _, run := range runs {
		if c.IsDeployment(run) {
			deployments = append(deployments, run)
		}
	}
	return deployments
}

// ByConclusion keeps runs whose conclusion equals target. "all" returns runs
// as is; an empty target selects runs without a conclusion yet. Nil entries
// are dropped by any other target.
func ByConclusion(runs []*model.Run, target string) []*model.Run {
	if target == model.FilterAll {
		return runs
	}
	filtered := make([]*model.Run, 0, len(runs))
	for _, run := range runs {
		if run != nil && strings.EqualFold(string(run.Conclusion), target) {
			filtered = append(filtered, run)
		}
	}
	return filtered
}

// ByStatus is the status counterpart of ByConclusion.
func ByStatus(runs []*model.Run, target string) []*model.Run {
	if target == model.FilterAll {
		return runs
	}
	filtered := make([]*model.Run, 0, len(runs))
	for _, run := range runs {
		if run != nil && strings.EqualFold(string(run.Status), target) {
			filtered = append(filtered, run)
		}
	}
	return filtered
}

// Summarize counts runs by conclusion. Nil entries are not counted.
func Summarize(runs []*model.Run) model.RunStats {
	var stats model.RunStats
	for _, run := range runs {
		if run == nil {
			continue
		}
		stats.Total++
		switch run.Conclusion {
		case model.RunConclusionSuccess:
			stats.Success++
		case model.RunConclusionFailure:
			stats.Failure++
		default:
			stats.Other++
		}
	}
	return stats
}

func normalizeTokens(tokens []string) []string {
	normalized := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.ToLower(strings.TrimSpace(token))
		if token != "" {
			normalized = append(normalized, token)
		}
	}
	return normalized
}

// matchesAny expects tokens already lower-cased.
func matchesAny(name string, tokens []string) bool {
	lower := strings.ToLower(name)
	for _, token := range tokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
