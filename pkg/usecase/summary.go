package usecase

import (
	"bytes"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octodash/pkg/domain"
	"github.com/m-mizutani/octodash/pkg/domain/model"
)

// testReport is the subset of a Jest style JSON report we read. Every count
// is optional.
type testReport struct {
	NumPassedTestSuites  int `json:"numPassedTestSuites"`
	NumFailedTestSuites  int `json:"numFailedTestSuites"`
	NumPendingTestSuites int `json:"numPendingTestSuites"`

	NumPassedTests  int `json:"numPassedTests"`
	NumFailedTests  int `json:"numFailedTests"`
	NumPendingTests int `json:"numPendingTests"`
}

var utf8BOM = []byte("\xef\xbb\xbf")

// DecodeSummary parses a JSON test report.
//
// Missing count fields are read as 0 so that partial reports still produce a
// summary. The document itself must be a JSON object, and every count that is
// present must be a non-negative integer; anything else is ErrFormat.
func DecodeSummary(data []byte) (*model.TestSummary, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, domain.ErrFormat.Wrap(goerr.New("test report is not a JSON object"))
	}

	var report testReport
	if err := json.Unmarshal(trimmed, &report); err != nil {
		return nil, domain.ErrFormat.Wrap(err)
	}

	summary := &model.TestSummary{
		PassedSuites:  report.NumPassedTestSuites,
		FailedSuites:  report.NumFailedTestSuites,
		PendingSuites: report.NumPendingTestSuites,
		PassedTests:   report.NumPassedTests,
		FailedTests:   report.NumFailedTests,
		PendingTests:  report.NumPendingTests,
	}

	counts := map[string]int{
		"numPassedTestSuites":  summary.PassedSuites,
		"numFailedTestSuites":  summary.FailedSuites,
		"numPendingTestSuites": summary.PendingSuites,
		"numPassedTests":       summary.PassedTests,
		"numFailedTests":       summary.FailedTests,
		"numPendingTests":      summary.PendingTests,
	}
	for field, n := range counts {
		if n < 0 {
			return nil, domain.ErrFormat.Wrap(goerr.New("negative count in test report"),
				goerr.V("field", field),
				goerr.V("value", n),
			)
		}
	}

	return summary, nil
}
