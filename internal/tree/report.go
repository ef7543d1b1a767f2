package tree

import (
	"time"

	"go.uber.org/multierr"
)

type ReportError struct {
	Path  string  `json:"path"`
	Op    BuildOp `json:"op"`
	Error string  `json:"error"`
}

// BuildReport summarises one Build call for the status endpoint, metrics and
// the build journal. It never carries secret content.
type BuildReport struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration_ns"`
	Nodes      int           `json:"nodes"`
	Stats      Stats         `json:"stats"`
	Errors     []ReportError `json:"errors"`
	Fatal      string        `json:"fatal,omitempty"`
}

func NewReport(t *Tree, partial []*PartialBuildError, buildErr error, startedAt, finishedAt time.Time) *BuildReport {
	r := &BuildReport{
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Duration:   finishedAt.Sub(startedAt),
		Errors:     make([]ReportError, 0, len(partial)),
	}

	if t != nil {
		r.Nodes = t.Len()
		r.Stats = t.Stats()
	}
	if buildErr != nil {
		r.Fatal = buildErr.Error()
	}

	for _, pe := range partial {
		r.Errors = append(r.Errors, ReportError{
			Path:  pe.Path,
			Op:    pe.Op,
			Error: pe.Err.Error(),
		})
	}

	return r
}

func (r *BuildReport) Partial() bool {
	return len(r.Errors) > 0
}

// CombinePartial folds partial build errors into one error, nil if there are
// none.
func CombinePartial(partial []*PartialBuildError) error {
	var err error
	for _, pe := range partial {
		err = multierr.Append(err, pe)
	}
	return err
}
