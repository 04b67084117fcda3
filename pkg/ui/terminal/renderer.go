// Package terminal provides styled terminal output
package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/webinstall/pkg/types"
	"github.com/arthur-debert/webinstall/pkg/ui/styles"
	"github.com/arthur-debert/webinstall/pkg/ui/text"
)

// Renderer writes reports with colored outcome labels
type Renderer struct {
	output io.Writer
}

// New creates a new terminal renderer
func New(w io.Writer) *Renderer {
	return &Renderer{output: w}
}

// RenderReport renders the report with the same layout as plain text
func (r *Renderer) RenderReport(report *types.Report) error {
	muted := styles.GetStyle("Muted")
	warning := styles.GetStyle("Warning")

	var lines []string
	lines = append(lines, styles.GetStyle("Header").Render(
		"Installed to "+styles.GetStyle("Path").Render(report.InstallDir)))
	lines = append(lines,
		muted.Render("  minifier: ")+text.MinifierLabel(report.Tools),
		muted.Render("  brotli:   ")+text.BrotliLabel(report.Tools),
		"",
	)

	for _, res := range report.Results {
		lines = append(lines, outcomeLabel(string(res.Outcome))+" "+text.Describe(res))
		for _, w := range res.Warnings {
			lines = append(lines, outcomeLabel("")+"   "+warning.Render("warning: "+w))
		}
	}
	for _, link := range report.ExtraLinks {
		lines = append(lines, outcomeLabel("link")+" "+fmt.Sprintf("%s -> %s", link.Name, link.Target))
	}
	for _, w := range report.Warnings {
		lines = append(lines, warning.Render("warning: "+w))
	}

	summary := styles.GetStyle("Success")
	if report.Count(types.OutcomeFailed) > 0 {
		summary = styles.GetStyle("Error")
	}
	lines = append(lines, "", summary.Render(text.Summary(report)))

	_, err := io.WriteString(r.output, strings.Join(lines, "\n")+"\n")
	return err
}

// RenderError renders an error in the error style
func (r *Renderer) RenderError(err error) error {
	_, werr := fmt.Fprintln(r.output, styles.GetStyle("Error").Render("Error: ")+err.Error())
	return werr
}


func outcomeLabel(name string) string {
	return styles.MergeStyles("Outcome", name).Render(name)
}
