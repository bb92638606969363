// Package format renders assistant replies for display.
package format

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Formatter renders a markdown reply to HTML.
type Formatter interface {
	Format(ctx context.Context, req *FormatRequest) (*FormatResponse, error)
}

type FormatRequest struct {
	Content string // markdown reply from the model
}

type FormatResponse struct {
	HTML    string
	Source  string // "goldmark" | "passthrough"
	Latency time.Duration
}

type markdownFormatter struct {
	md goldmark.Markdown
}

// NewFormatter returns a Formatter with GitHub-flavored markdown enabled.
// Raw HTML in the reply is omitted from the output.
func NewFormatter() Formatter {
	return &markdownFormatter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

func (f *markdownFormatter) Format(ctx context.Context, req *FormatRequest) (*FormatResponse, error) {
	start := time.Now()

	if strings.TrimSpace(req.Content) == "" {
		return &FormatResponse{Source: "passthrough", Latency: time.Since(start)}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.md.Convert([]byte(req.Content), &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	return &FormatResponse{
		HTML:    buf.String(),
		Source:  "goldmark",
		Latency: time.Since(start),
	}, nil
}
