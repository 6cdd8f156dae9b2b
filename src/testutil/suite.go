// Package testutil holds helpers shared by the package tests: timing and
// summary helpers for table-style suites and in-memory repositories.
package testutil

import (
	"testing"
	"time"
)

// TestTimer is a utility for measuring test execution time
type TestTimer struct {
	start time.Time
	name  string
}

// NewTestTimer creates a new test timer
func NewTestTimer(name string) *TestTimer {
	return &TestTimer{
		start: time.Now(),
		name:  name,
	}
}

// Stop returns the elapsed time since the timer started.
func (t *TestTimer) Stop() time.Duration {
	return time.Since(t.start)
}

// TestResult represents the result of a test with timing information
type TestResult struct {
	Name     string
	Duration time.Duration
	Passed   bool
}

// SuiteResult collects the results of the subtests of one suite.
type SuiteResult struct {
	SuiteName string
	Results   []TestResult
}

func NewSuiteResult(name string) *SuiteResult {
	return &SuiteResult{SuiteName: name}
}

// Run runs fn as a subtest and records its outcome and duration.
func (s *SuiteResult) Run(t *testing.T, name string, fn func(t *testing.T)) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		timer := NewTestTimer(name)
		defer func() {
			s.Results = append(s.Results, TestResult{
				Name:     name,
				Duration: timer.Stop(),
				Passed:   !t.Failed(),
			})
		}()
		fn(t)
	})
}

// Summary logs a one-line result per subtest.
func (s *SuiteResult) Summary(t *testing.T) {
	passed := 0
	for _, r := range s.Results {
		status := "PASS"
		if r.Passed {
			passed++
		} else {
			status = "FAIL"
		}
		t.Logf("%s %s: %v", status, r.Name, r.Duration)
	}
	t.Logf("%s: %d/%d passed", s.SuiteName, passed, len(s.Results))
}
