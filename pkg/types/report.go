package types

// Outcome describes how an asset was installed
type Outcome string

const (
	OutcomeSymlinked      Outcome = "symlinked"
	OutcomeConfig         Outcome = "config"
	OutcomeMinified       Outcome = "minified"
	OutcomeMinifyFallback Outcome = "minify-fallback"
	OutcomeCopied         Outcome = "copied"
	OutcomeFailed         Outcome = "failed"
)

// Outcomes lists every outcome in report order
var Outcomes = []Outcome{
	OutcomeCopied,
	OutcomeMinified,
	OutcomeMinifyFallback,
	OutcomeSymlinked,
	OutcomeConfig,
	OutcomeFailed,
}

// AssetResult is the record of one asset carried through the pipeline
type AssetResult struct {
	Asset       Asset    `json:"asset"`
	Outcome     Outcome  `json:"outcome"`
	Dest        string   `json:"dest"`
	LinkTarget  string   `json:"linkTarget,omitempty"`
	Transformed bool     `json:"transformed,omitempty"`
	Compressed  []string `json:"compressed,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Warn appends a warning to the result
func (r *AssetResult) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// ExtraLink records an extra symlink placed after the asset walk
type ExtraLink struct {
	Name   string `json:"name"`
	Dest   string `json:"dest"`
	Target string `json:"target"`
}

// Report aggregates the results of an install run
type Report struct {
	InstallDir string           `json:"installDir"`
	ConfigDir  string           `json:"configDir"`
	Tools      ToolAvailability `json:"tools"`
	Results    []AssetResult    `json:"results"`
	ExtraLinks []ExtraLink      `json:"extraLinks,omitempty"`
	Warnings   []string         `json:"warnings,omitempty"`
}

// Count returns how many assets ended with the given outcome
func (r *Report) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Find returns the result for the asset with the given relative path
func (r *Report) Find(relPath string) (AssetResult, bool) {
	for _, res := range r.Results {
		if res.Asset.RelPath == relPath {
			return res, true
		}
	}
	return AssetResult{}, false
}

// Warned returns the results that carry at least one warning
func (r *Report) Warned() []AssetResult {
	var out []AssetResult
	for _, res := range r.Results {
		if len(res.Warnings) > 0 {
			out = append(out, res)
		}
	}
	return out
}
