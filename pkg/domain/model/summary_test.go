package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/octodash/pkg/domain/model"
)

func TestTestSummary(t *testing.T) {
	t.Run("Total sums suite counts", func(t *testing.T) {
		s := model.TestSummary{PassedSuites: 7, FailedSuites: 2, PendingSuites: 1, PassedTests: 40}
		gt.Equal(t, s.Total(), 10)
		gt.Equal(t, s.TestTotal(), 40)
	})

	t.Run("Empty report", func(t *testing.T) {
		gt.Equal(t, model.TestSummary{}.Total(), 0)
	})
}
