// Package renderer turns report text into HTML and HTML into PDF.
package renderer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/restoinsight/insights-server/internal/model"
)

const DefaultBinary = "wkhtmltopdf"

var defaultArgs = []string{"--quiet", "--encoding", "utf-8", "-", "-"}

var _ model.Renderer = (*PDF)(nil)

// PDF pipes HTML through an external converter reading stdin and writing
// the document to stdout.
type PDF struct {
	binary string
	args   []string
}

func NewPDF(binary string, args ...string) *PDF {
	if binary == "" {
		binary = DefaultBinary
	}
	if len(args) == 0 {
		args = defaultArgs
	}
	return &PDF{
		binary: binary,
		args:   args,
	}
}

func (p *PDF) Render(ctx context.Context, html string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, p.binary, p.args...)
	cmd.Stdin = strings.NewReader(html)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("pdf rendering aborted: %w", ctx.Err())
		}
		return nil, fmt.Errorf("pdf rendering failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, errors.New("pdf rendering produced no output")
	}

	return stdout.Bytes(), nil
}
