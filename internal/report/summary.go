package report

import (
	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/orchestrator"
)

// Summary counts test cases by outcome.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Summarize counts every case of r, reported or not.
func Summarize(r *orchestrator.TestReport) Summary {
	if r == nil {
		return Summary{}
	}
	return Summary{
		Total:   len(r.Cases),
		Passed:  r.Count(config.EventPassed),
		Skipped: r.Count(config.EventSkipped),
		Failed:  r.Count(config.EventFailed),
	}
}

// Visible returns the cases whose outcome is rendered. Without a logging
// block only failures are shown.
func Visible(cfg config.TestConfig, r *orchestrator.TestReport) []orchestrator.TestCase {
	if r == nil {
		return nil
	}
	var out []orchestrator.TestCase
	for _, c := range r.Cases {
		if shown(cfg, c.Outcome) {
			out = append(out, c)
		}
	}
	return out
}

func shown(cfg config.TestConfig, k config.EventKind) bool {
	if !cfg.Logging {
		return k == config.EventFailed
	}
	return cfg.Reports(k)
}
