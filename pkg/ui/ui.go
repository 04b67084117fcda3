// Package ui renders install reports for people and for machines.
// It supports terminal (styled), text (plain) and JSON output.
package ui

import (
	"io"
	"os"

	"github.com/arthur-debert/webinstall/pkg/errors"
	"github.com/arthur-debert/webinstall/pkg/types"
	"github.com/arthur-debert/webinstall/pkg/ui/json"
	"github.com/arthur-debert/webinstall/pkg/ui/terminal"
	"github.com/arthur-debert/webinstall/pkg/ui/text"
)

// Renderer is implemented by every output format
type Renderer interface {
	// RenderReport renders the outcome of an install run
	RenderReport(report *types.Report) error
	// RenderError renders a fatal error
	RenderError(err error) error
}

// NewRenderer creates a renderer for format. FormatAuto inspects output
// when it is a file and falls back to plain text otherwise.
func NewRenderer(format Format, output io.Writer) (Renderer, error) {
	switch format {
	case FormatAuto:
		if file, ok := output.(*os.File); ok {
			return NewRenderer(DetectFormat(file), output)
		}
		return NewRenderer(FormatText, output)
	case FormatTerminal:
		return terminal.New(output), nil
	case FormatText:
		return text.New(output), nil
	case FormatJSON:
		return json.New(output), nil
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown format: %v", format)
	}
}
