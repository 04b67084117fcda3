// Package json provides machine-readable JSON output
package json

import (
	"encoding/json"
	"io"

	"github.com/arthur-debert/webinstall/pkg/errors"
	"github.com/arthur-debert/webinstall/pkg/types"
)

// Renderer encodes reports as indented JSON
type Renderer struct {
	encoder *json.Encoder
}

// New creates a new JSON renderer
func New(output io.Writer) *Renderer {
	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")
	return &Renderer{encoder: encoder}
}

// RenderReport encodes the report with a per-outcome summary
func (r *Renderer) RenderReport(report *types.Report) error {
	summary := make(map[types.Outcome]int, len(types.Outcomes))
	for _, outcome := range types.Outcomes {
		if n := report.Count(outcome); n > 0 {
			summary[outcome] = n
		}
	}
	return r.encoder.Encode(struct {
		*types.Report
		Summary map[types.Outcome]int `json:"summary"`
	}{report, summary})
}

// RenderError renders an error, with its code when it has one
func (r *Renderer) RenderError(err error) error {
	obj := map[string]string{"error": err.Error()}
	if code := errors.GetErrorCode(err); code != errors.ErrUnknown {
		obj["code"] = string(code)
	}
	return r.encoder.Encode(obj)
}

