package model

// TestSummary holds the counts decoded from a test report. A zero total is a
// valid empty report, which is different from having no report at all.
type TestSummary struct {
	PassedSuites  int `json:"passed_suites"`
	FailedSuites  int `json:"failed_suites"`
	PendingSuites int `json:"pending_suites"`

	PassedTests  int `json:"passed_tests"`
	FailedTests  int `json:"failed_tests"`
	PendingTests int `json:"pending_tests"`
}

func (s TestSummary) Total() int {
	return s.PassedSuites + s.FailedSuites + s.PendingSuites
}

func (s TestSummary) TestTotal() int {
	return s.PassedTests + s.FailedTests + s.PendingTests
}

// RunSummary pairs a run with the outcome of its test report lookup. Err is
// set when the lookup failed for this run only.
type RunSummary struct {
	Run      *Run
	Artifact *Artifact
	Summary  *TestSummary
	Err      error
}
