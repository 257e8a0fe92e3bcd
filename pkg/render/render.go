package render

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/graphlayout/pkg/graph"
)

// Output formats.
const (
	FormatSVG = "svg"
	FormatDOT = "dot"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// Formats lists the supported output formats.
var Formats = []string{FormatSVG, FormatDOT, FormatPNG, FormatPDF}

var (
	// ErrUnsupportedFormat is returned for a format not in [Formats].
	ErrUnsupportedFormat = errors.New("unsupported output format")

	// ErrConverterMissing is returned when PNG or PDF output is requested
	// but rsvg-convert is not installed.
	ErrConverterMissing = errors.New("rsvg-convert not found")
)

// ContentType returns the MIME type of format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/vnd.graphviz"
	}
}

// Render draws the current geometry of g in the given format.
func Render(ctx context.Context, g graph.Graph, format string) ([]byte, error) {
	if !slices.Contains(Formats, format) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	dot := ToDOT(g)
	if format == FormatDOT {
		return []byte(dot), nil
	}
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatPNG:
		return ToPNG(ctx, svg, 2.0)
	case FormatPDF:
		return ToPDF(ctx, svg)
	default:
		return svg, nil
	}
}
