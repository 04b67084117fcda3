// Package text provides plain text output without any styling
package text

import (
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/webinstall/pkg/types"
)

// Renderer writes reports as plain text, one line per asset
type Renderer struct {
	output io.Writer
}

// New creates a new text renderer
func New(output io.Writer) *Renderer {
	return &Renderer{output: output}
}

// RenderReport writes the tools in use, every asset and a summary line
func (r *Renderer) RenderReport(report *types.Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Installed to %s\n", report.InstallDir)
	fmt.Fprintf(&b, "  minifier: %s\n", MinifierLabel(report.Tools))
	fmt.Fprintf(&b, "  brotli:   %s\n\n", BrotliLabel(report.Tools))

	for _, res := range report.Results {
		fmt.Fprintf(&b, "%-16s %s\n", res.Outcome, Describe(res))
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "%-16s   warning: %s\n", "", w)
		}
	}
	for _, link := range report.ExtraLinks {
		fmt.Fprintf(&b, "%-16s %s -> %s\n", "link", link.Name, link.Target)
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}
	fmt.Fprintf(&b, "\n%s\n", Summary(report))

	_, err := io.WriteString(r.output, b.String())
	return err
}

// RenderError renders an error as plain text
func (r *Renderer) RenderError(err error) error {
	_, werr := fmt.Fprintf(r.output, "Error: %v\n", err)
	return werr
}


// Describe returns the path of an asset with what was produced for it
func Describe(res types.AssetResult) string {
	switch {
	case res.Error != "":
		return fmt.Sprintf("%s: %s", res.Asset.RelPath, res.Error)
	case res.LinkTarget != "":
		return fmt.Sprintf("%s -> %s", res.Asset.RelPath, res.LinkTarget)
	}
	var extra []string
	if res.Transformed {
		extra = append(extra, "rewritten")
	}
	for _, c := range res.Compressed {
		if i := strings.LastIndexByte(c, '.'); i >= 0 {
			extra = append(extra, c[i:])
		}
	}
	if len(extra) == 0 {
		return res.Asset.RelPath
	}
	return fmt.Sprintf("%s (%s)", res.Asset.RelPath, strings.Join(extra, " "))
}

// Summary counts assets per outcome, e.g. "5 assets: 3 copied, 2 symlinked"
func Summary(report *types.Report) string {
	var parts []string
	for _, outcome := range types.Outcomes {
		if n := report.Count(outcome); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, outcome))
		}
	}
	noun := "assets"
	if len(report.Results) == 1 {
		noun = "asset"
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%d %s", len(report.Results), noun)
	}
	return fmt.Sprintf("%d %s: %s", len(report.Results), noun, strings.Join(parts, ", "))
}

// MinifierLabel names the minifier in use
func MinifierLabel(t types.ToolAvailability) string {
	if !t.CanMinify() {
		return "none (copying)"
	}
	return t.Minifier
}

// BrotliLabel names the brotli binary and its version
func BrotliLabel(t types.ToolAvailability) string {
	if !t.CanBrotli() {
		return "unavailable"
	}
	if t.BrotliVersion == "" {
		return t.BrotliPath
	}
	return fmt.Sprintf("%s (%s)", t.BrotliPath, strings.TrimSpace(t.BrotliVersion))
}
