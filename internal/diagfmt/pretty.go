package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"vprintf/internal/diag"
	"vprintf/internal/source"
)

type palette struct {
	err, warn, info, note, code, gutter, caret, fix, del, add *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgCyan),
		code:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
		fix:    color.New(color.FgGreen),
		del:    color.New(color.FgRed),
		add:    color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.code, p.gutter, p.caret, p.fix, p.del, p.add} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes и Fixes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	pr := prettyPrinter{w: w, fs: fs, opts: opts, pal: newPalette(opts.Color)}
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		pr.diagnostic(d)
	}
}

type prettyPrinter struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
	pal  palette
}

func (p *prettyPrinter) location(span source.Span) (string, *source.File) {
	if p.fs == nil {
		return "", nil
	}
	f := p.fs.Get(span.File)
	if f == nil {
		return "", nil
	}
	start, _ := p.fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", formatPath(f, p.fs, p.opts.PathMode), start.Line, start.Col), f
}

func (p *prettyPrinter) diagnostic(d *diag.Diagnostic) {
	loc, f := p.location(d.Primary)
	header := fmt.Sprintf("%s %s: %s",
		p.pal.severity(d.Severity).Sprint(d.Severity.String()),
		p.pal.code.Sprint(d.Code.ID()),
		d.Message)
	if loc != "" {
		header = loc + ": " + header
	}
	fmt.Fprintln(p.w, header)
	p.excerpt(f, d.Primary, "")

	if p.opts.ShowNotes {
		for _, n := range d.Notes {
			nloc, nf := p.location(n.Span)
			label := p.pal.note.Sprint("note")
			if nloc != "" {
				fmt.Fprintf(p.w, "  %s: %s: %s\n", label, nloc, n.Msg)
			} else {
				fmt.Fprintf(p.w, "  %s: %s\n", label, n.Msg)
			}
			if nf != nil && n.Span != d.Primary {
				p.excerpt(nf, n.Span, "  ")
			}
		}
	}
	if p.opts.ShowFixes {
		for _, fix := range d.Fixes {
			fmt.Fprintf(p.w, "  %s: %s\n", p.pal.fix.Sprint("fix"), fix.Title)
			if !p.opts.ShowPreview {
				continue
			}
			for _, edit := range fix.Edits {
				preview, err := buildFixEditPreview(p.fs, edit)
				if err != nil {
					continue
				}
				for _, line := range preview.before {
					fmt.Fprintf(p.w, "    %s\n", p.pal.del.Sprint("- "+p.clip(line)))
				}
				for _, line := range preview.after {
					fmt.Fprintf(p.w, "    %s\n", p.pal.add.Sprint("+ "+p.clip(line)))
				}
			}
		}
	}
}

// excerpt prints the span's first line with Context lines around it and a
// caret underline. Multi-line spans are underlined to the end of the
// first line.
func (p *prettyPrinter) excerpt(f *source.File, span source.Span, indent string) {
	if f == nil || len(f.Content) == 0 {
		return
	}
	start, end := p.fs.Resolve(span)
	if start.Line == 0 {
		return
	}
	ctx := uint32(max(p.opts.Context, 0))
	first := max(start.Line-min(ctx, start.Line-1), 1)
	last := start.Line + ctx
	width := len(fmt.Sprint(last))

	for ln := first; ln <= last; ln++ {
		text := f.GetLine(ln)
		if ln > start.Line && text == "" && ln > uint32(len(f.LineIdx)) {
			break
		}
		gutter := p.pal.gutter.Sprintf("%*d |", width, ln)
		fmt.Fprintf(p.w, "%s%s %s\n", indent, gutter, p.clip(text))
		if ln != start.Line {
			continue
		}
		col := int(start.Col) - 1
		col = min(max(col, 0), len(text))
		stop := len(text)
		if end.Line == start.Line {
			stop = min(max(int(end.Col)-1, col), len(text))
		}
		pad := padFor(text[:col])
		marks := max(runewidth.StringWidth(text[col:stop]), 1)
		underline := "^" + strings.Repeat("~", marks-1)
		fmt.Fprintf(p.w, "%s%s %s%s\n", indent, p.pal.gutter.Sprintf("%*s |", width, ""), pad, p.pal.caret.Sprint(underline))
	}
}

// padFor returns whitespace as wide as prefix; tabs are kept so the caret
// lines up however the terminal expands them.
func padFor(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return b.String()
}

func (p *prettyPrinter) clip(line string) string {
	if p.opts.Width == 0 || runewidth.StringWidth(line) <= int(p.opts.Width) {
		return line
	}
	return runewidth.Truncate(line, int(p.opts.Width), "…")
}
