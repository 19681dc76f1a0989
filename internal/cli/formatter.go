package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/idelchi/dirclean/internal/analysis"
	"github.com/idelchi/dirclean/internal/classify"
	"github.com/idelchi/dirclean/internal/cleanup"
	"github.com/idelchi/dirclean/internal/dirstat"
)

const (
	// TabSpacing is the number of spaces between aligned columns.
	TabSpacing = 2
	// TreeIndent is the indentation per tree level.
	TreeIndent = "    "
	// TopLevelDepth is how deep the tree is listed without --all:
	// the root's children and, for directories, their children.
	TopLevelDepth = 2
)

type styles struct {
	dir    lipgloss.Style
	file   lipgloss.Style
	header lipgloss.Style
	muted  lipgloss.Style
	warn   lipgloss.Style
}

func stylesFor(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()

		return styles{dir: plain, file: plain, header: plain, muted: plain, warn: plain}
	}

	return styles{
		dir:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		file:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		header: lipgloss.NewStyle().Bold(true),
		muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true),
	}
}

// PrintJSON outputs v in indented JSON format.
func PrintJSON(v any, writer io.Writer) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// PrintYAML outputs v in YAML format.
func PrintYAML(v any, writer io.Writer) error {
	enc := yaml.NewEncoder(writer)
	enc.SetIndent(2)

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding YAML output: %w", err)
	}

	return enc.Close()
}

// PrintPaths outputs the candidate paths, one per line.
func PrintPaths(report *analysis.Report, writer io.Writer) error {
	for _, c := range report.Candidates {
		if _, err := fmt.Fprintln(writer, c.Path); err != nil {
			return err
		}
	}

	return nil
}

// PrintTable outputs the report in human-readable table format.
//
//nolint:forbidigo // This function prints output to the console.
func PrintTable(report *analysis.Report, writer io.Writer, color bool) error {
	s := stylesFor(color)
	w := newColumns(writer)

	fmt.Fprintln(w, s.header.Render("Tree:"))
	printTree(w, report, s)

	if disk := report.Disk; disk != nil {
		fmt.Fprintln(w, "\n"+s.header.Render("Volume:"))
		fmt.Fprintf(w, "Total:\t%s\n", humanize.IBytes(disk.Total))
		fmt.Fprintf(w, "Used:\t%s (%.1f%%)\n", humanize.IBytes(disk.Used), percent(disk.Used, disk.Total))
		fmt.Fprintf(w, "Free:\t%s\n", humanize.IBytes(disk.Free))
	}

	fmt.Fprintln(w, "\n"+s.header.Render("Stats:"))
	fmt.Fprintf(w, "Total folders:\t%d\n", report.TotalFolders)
	fmt.Fprintf(w, "Total files:\t%d\n", report.TotalFiles)
	fmt.Fprintf(w, "Total size:\t%s (%d bytes)\n", size(report.TotalBytes), report.TotalBytes)

	fmt.Fprintln(w, "\n"+s.header.Render("Cleanup candidates:"))

	if len(report.Candidates) == 0 {
		fmt.Fprintln(w, s.muted.Render("  none"))
	}

	for i, c := range report.Candidates {
		fmt.Fprintf(w, "  %d) '%s'\t%s\t%s\t%s\n",
			i+1,
			s.file.Render(relative(report.Root, c.Path)),
			size(c.Size),
			reasons(c.Reasons),
			c.ModifiedAt.Format("2006-01-02"))
	}

	fmt.Fprintf(w, "Reclaimable:\t%s (%d bytes)\n", size(report.ReclaimableBytes), report.ReclaimableBytes)

	if len(report.Duplicates) > 0 {
		fmt.Fprintln(w, "\n"+s.header.Render("Duplicate groups:"))

		for i, g := range report.Duplicates {
			fmt.Fprintf(w, "  %d) %s x%d\t%s\n", i+1, size(g.Size), len(g.Entries), s.muted.Render(short(g.Fingerprint)))

			for j, e := range g.Entries {
				role := "copy"
				if j == 0 {
					role = "kept"
				}

				fmt.Fprintf(w, "     %s '%s'\n", role, relative(report.Root, e.Path))
			}
		}
	}

	if len(report.Skipped) > 0 {
		fmt.Fprintln(w, "\n"+s.warn.Render(fmt.Sprintf("Skipped (%d):", len(report.Skipped))))

		for _, sk := range report.Skipped {
			fmt.Fprintf(w, "  %s '%s'\t%s\n", sk.Op, relative(report.Root, sk.Path), sk.Message)
		}
	}

	fmt.Fprintf(w, "\nElapsed:\t%v\n", report.Elapsed)

	return w.Flush()
}

// printTree lists the tree depth first, biggest entries first.
func printTree(w io.Writer, report *analysis.Report, s styles) {
	type frame struct {
		node  *dirstat.Node
		depth int
	}

	root := report.Tree
	if root == nil {
		return
	}

	fmt.Fprintf(w, "%s\t%s\n", s.dir.Render(root.Path), size(root.Size))

	stack := make([]frame, 0, len(root.Children))
	for i := len(root.Children) - 1; i >= 0; i-- {
		stack = append(stack, frame{root.Children[i], 1})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		name := f.node.Name
		style := s.file

		switch f.node.Kind {
		case dirstat.KindDir:
			name += string(filepath.Separator)
			style = s.dir
		case dirstat.KindSymlink:
			name += "@"
			style = s.muted
		case dirstat.KindOther:
			style = s.muted
		case dirstat.KindFile:
		}

		fmt.Fprintf(w, "%s%s\t%s\n", strings.Repeat(TreeIndent, f.depth), style.Render(name), size(f.node.Size))

		if !report.ExpandAll && f.depth >= TopLevelDepth {
			continue
		}

		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Children[i], f.depth + 1})
		}
	}
}

// PrintOutcome outputs a deletion outcome in human-readable format.
//
//nolint:forbidigo // This function prints output to the console.
func PrintOutcome(outcome cleanup.Outcome, writer io.Writer, color bool) error {
	s := stylesFor(color)
	w := newColumns(writer)

	fmt.Fprintln(w, "\n"+s.header.Render("Deletion:"))
	fmt.Fprintf(w, "Deleted:\t%d files\n", len(outcome.Deleted))
	fmt.Fprintf(w, "Freed:\t%s (%d bytes)\n", size(outcome.FreedBytes), outcome.FreedBytes)

	if len(outcome.Failed) > 0 {
		fmt.Fprintln(w, s.warn.Render(fmt.Sprintf("Failed (%d):", len(outcome.Failed))))

		for _, f := range outcome.Failed {
			fmt.Fprintf(w, "  '%s'\t%s\n", f.Path, failureText(f))
		}
	}

	return w.Flush()
}

func failureText(f cleanup.Failure) string {
	if f.Err != nil {
		return f.Err.Error()
	}

	return f.Message
}

func reasons(rs []classify.Reason) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = string(r)
	}

	return strings.Join(parts, ", ")
}

func relative(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}

	return rel
}

func size(n int64) string {
	if n < 0 {
		n = 0
	}

	return humanize.IBytes(uint64(n))
}

func short(fingerprint string) string {
	const n = 12

	if len(fingerprint) > n {
		return fingerprint[:n]
	}

	return fingerprint
}

func percent(part, total uint64) float64 {
	if total == 0 {
		return 0
	}

	return 100.0 * float64(part) / float64(total)
}
