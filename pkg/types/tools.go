package types

// ToolAvailability records which optional external tools a run can use.
// It is computed once before the first asset and only read afterwards.
type ToolAvailability struct {
	// Minifier is the selected minifier name, empty when copying
	Minifier string `json:"minifier,omitempty"`
	// MinifierCommand is the argv prefix used to invoke the minifier
	MinifierCommand []string `json:"minifierCommand,omitempty"`
	// BrotliPath is the brotli binary, empty when brotli is unavailable
	BrotliPath string `json:"brotli,omitempty"`
	// BrotliVersion is the raw output of `brotli --version`
	BrotliVersion string `json:"brotliVersion,omitempty"`
}

// CanMinify reports whether scripts should go through the minifier
func (t ToolAvailability) CanMinify() bool {
	return t.Minifier != "" && len(t.MinifierCommand) > 0
}

// CanBrotli reports whether a brotli binary was found
func (t ToolAvailability) CanBrotli() bool {
	return t.BrotliPath != ""
}
