package cli

import (
	"bytes"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// columns aligns tab-terminated cells like text/tabwriter, but measures cells
// with lipgloss so ANSI styling takes no width. Consecutive lines containing a
// tab form one aligned block; a line without tabs ends the block.
type columns struct {
	out io.Writer
	buf bytes.Buffer
}

func newColumns(w io.Writer) *columns {
	return &columns{out: w}
}

func (c *columns) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

// Flush writes the aligned text.
func (c *columns) Flush() error {
	text := strings.TrimSuffix(c.buf.String(), "\n")
	c.buf.Reset()

	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")

	var b strings.Builder

	for start := 0; start < len(lines); {
		end := start
		for end < len(lines) && strings.Contains(lines[end], "\t") {
			end++
		}

		if end == start {
			b.WriteString(lines[start])
			b.WriteByte('\n')

			start++

			continue
		}

		alignBlock(&b, lines[start:end])

		start = end
	}

	_, err := io.WriteString(c.out, b.String())

	return err
}

func alignBlock(b *strings.Builder, lines []string) {
	rows := make([][]string, len(lines))

	var widths []int

	for i, line := range lines {
		rows[i] = strings.Split(line, "\t")

		for j, cell := range rows[i][:len(rows[i])-1] {
			if j == len(widths) {
				widths = append(widths, 0)
			}

			widths[j] = max(widths[j], lipgloss.Width(cell))
		}
	}

	for _, row := range rows {
		last := len(row) - 1

		var line strings.Builder

		for j, cell := range row[:last] {
			line.WriteString(cell)
			line.WriteString(strings.Repeat(" ", widths[j]-lipgloss.Width(cell)+TabSpacing))
		}

		line.WriteString(row[last])

		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteByte('\n')
	}
}
