// Package paint draws a Screen to a real terminal. It is the consumption
// side of the core's paint contract: walk each visible row, batch runs
// of cells sharing an identical Attr into one write, and move the
// physical cursor to match the virtual one.
package paint

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/smash-term/smash/internal/vt"
)

// ansiColors are the eight standard SGR foreground/background indices;
// bright variants are the same index with bold set, exactly as the
// original drew ANSI_COLORS vs ANSI_BRIGHT_COLORS by attr.bold().
var ansiColors = [8]int{30, 31, 32, 33, 34, 35, 36, 37}

// Painter is anything that can render a Screen snapshot. Screen is
// passed by Snapshot so a slow painter never holds the live cell lock.
type Painter interface {
	Paint(snap vt.Snapshot) error
}

// AnsiPainter redraws a real terminal using SGR run-length spans and
// cursor-position escapes: color state is only emitted when it changes
// between adjacent cells, not per cell.
type AnsiPainter struct {
	w *bufio.Writer
}

// NewAnsiPainter wraps a writer (typically a raw-mode terminal's stdout).
func NewAnsiPainter(w io.Writer) *AnsiPainter {
	return &AnsiPainter{w: bufio.NewWriter(w)}
}

// Paint redraws the full viewport: home the cursor, clear the screen,
// then write one escape-tagged span per run of identical Attr, row by
// row, finally positioning the physical cursor to match the virtual one
// (or hiding it, per HideCursor).
func (p *AnsiPainter) Paint(snap vt.Snapshot) error {
	fmt.Fprint(p.w, "\x1b[H\x1b[2J")

	for row := 0; row < snap.Height; row++ {
		abs := snap.Top + row
		var line []vt.Cell
		if abs < len(snap.Rows) {
			line = snap.Rows[abs]
		}

		var buf strings.Builder
		var spanAttr vt.Attr
		started := false
		flush := func(attr vt.Attr) {
			if buf.Len() == 0 {
				return
			}
			writeSGR(p.w, attr)
			p.w.WriteString(buf.String())
			buf.Reset()
		}

		for _, cell := range line {
			if !started || cell.Attr != spanAttr {
				flush(spanAttr)
				spanAttr = cell.Attr
				started = true
			}
			buf.WriteRune(cell.Ch)
		}
		flush(spanAttr)

		if row < snap.Height-1 {
			fmt.Fprint(p.w, "\r\n")
		}
	}

	cursorRow := snap.Row - snap.Top
	if snap.HideCursor || cursorRow < 0 || cursorRow >= snap.Height {
		fmt.Fprint(p.w, "\x1b[?25l")
	} else {
		fmt.Fprintf(p.w, "\x1b[%d;%dH\x1b[?25h", cursorRow+1, snap.Col+1)
	}

	return p.w.Flush()
}

// writeSGR emits the minimal SGR sequence to reach attr from the reset
// state: a leading 0 clears any prior span's attributes, since spans are
// painted independently rather than diffed against the previous frame.
func writeSGR(w io.Writer, attr vt.Attr) {
	codes := []string{"0"}
	if attr.Bold() {
		codes = append(codes, "1")
	}
	if attr.Inverse() {
		codes = append(codes, "7")
	}
	fg, fgOK := attr.FG()
	bg, bgOK := attr.BG()
	if fgOK {
		codes = append(codes, fmt.Sprintf("%d", ansiColors[fg%8]))
	}
	if bgOK {
		codes = append(codes, fmt.Sprintf("%d", ansiColors[bg%8]+10))
	}
	fmt.Fprintf(w, "\x1b[%sm", strings.Join(codes, ";"))
}
