// Package printer handles formatted CLI output.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hay-kot/lanewatch/internal/detect"
	"github.com/hay-kot/lanewatch/internal/styles"
)

type ctxKey struct{}

// Printer handles formatted output with colors and styles
type Printer struct {
	writer io.Writer
}

// New creates a new Printer that writes to the given writer
func New(w io.Writer) *Printer {
	return &Printer{writer: w}
}

// NewContext returns a context with the printer attached
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx retrieves the printer from context, or creates a default one
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stderr)
}

// FatalError prints a formatted error box and does NOT exit
// Caller should handle exit code
func (p *Printer) FatalError(err error) {
	if err == nil {
		return
	}

	lines := []string{
		styles.DimStyle.Render("╭ ") + "Error",
		styles.DimStyle.Render("│ ") + err.Error(),
		styles.DimStyle.Render("╵"),
	}

	_, _ = fmt.Fprint(p.writer, strings.Join(lines, "\n")+"\n")
}

// Infof prints an informational message.
func (p *Printer) Infof(format string, args ...any) {
	_, _ = fmt.Fprintf(p.writer, format+"\n", args...)
}

// Warnf prints a warning message.
func (p *Printer) Warnf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.writer, "! "+format+"\n", args...)
}

// StatusChange prints one lane status transition.
func (p *Printer) StatusChange(c detect.Change) {
	_, _ = fmt.Fprintf(p.writer, "%s  %s  %s %s %s\n",
		styles.DimStyle.Render(c.At.Format(time.TimeOnly)),
		styles.LaneStyle.Render(c.LaneID),
		styles.Status(c.Previous),
		styles.DimStyle.Render("→"),
		styles.Status(c.New),
	)
}

// StatusLine prints the current status of one lane.
func (p *Printer) StatusLine(laneID string, s detect.Status) {
	_, _ = fmt.Fprintf(p.writer, "%s  %s\n",
		styles.LaneStyle.Render(laneID),
		styles.Status(s),
	)
}
