package spawn

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	apperrors "github.com/matzehuels/stackscope/pkg/errors"
)

// converter rasterizes the rendered SVG for PDF and PNG output.
var converter = "rsvg-convert"

// ToPDF converts an SVG spawn graph to PDF.
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return convert(ctx, svg, "pdf")
}

// ToPNG converts an SVG spawn graph to PNG, zoomed by scale.
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	return convert(ctx, svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

// convert pipes svg through the converter. A missing converter or a failed
// run is an EXTERNAL_TOOL error carrying the tool's stderr.
func convert(ctx context.Context, svg []byte, format string, extra ...string) ([]byte, error) {
	bin, err := exec.LookPath(converter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeExternalTool, err,
			"%s output needs %s (brew install librsvg, apt install librsvg2-bin)", format, converter)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, append([]string{"-f", format}, extra...)...)
	cmd.Stdin = bytes.NewReader(svg)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeExternalTool, err,
			"%s %s: %s", converter, format, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
