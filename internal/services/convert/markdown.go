package convert

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// renderMarkdownPDF renders markdown to PDF bytes. Used only as the fallback
// path, so layout fidelity is approximate: headings, body text, emphasis,
// lists, and tables.
func renderMarkdownPDF(markdown, title string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()
	pdf.SetFont("Arial", "", 9)

	parsed := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough),
	)
	source := []byte(markdown)
	doc := parsed.Parser().Parse(text.NewReader(source))

	r := &markdownRenderer{pdf: pdf, source: source}
	if err := ast.Walk(doc, r.walk); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to produce PDF output: %w", err)
	}
	return buf.Bytes(), nil
}

type markdownRenderer struct {
	pdf       *fpdf.Fpdf
	source    []byte
	bold      bool
	italic    bool
	listLevel int
}

func (r *markdownRenderer) bodyFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont("Arial", style, 9)
}

func (r *markdownRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			r.pdf.Ln(5)
			size := 14.0 - float64(node.Level)
			if size < 9 {
				size = 9
			}
			r.pdf.SetFont("Arial", "B", size)
		} else {
			r.pdf.Ln(6)
			r.bodyFont()
		}
	case *ast.Paragraph:
		if !entering {
			r.pdf.Ln(6)
		}
	case *ast.Text:
		if entering {
			r.pdf.Write(5, string(node.Text(r.source)))
		}
	case *ast.Emphasis:
		if node.Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.bodyFont()
	case *ast.List:
		if entering {
			r.listLevel++
		} else {
			r.listLevel--
			if r.listLevel == 0 {
				r.pdf.Ln(2)
			}
		}
	case *ast.ListItem:
		if entering {
			r.pdf.Ln(5)
			r.pdf.SetX(12 + float64(r.listLevel)*4)
			r.pdf.Write(5, "- ")
		}
	case *ast.ThematicBreak:
		if entering {
			r.pdf.Ln(3)
			r.pdf.Line(10, r.pdf.GetY(), 200, r.pdf.GetY())
			r.pdf.Ln(3)
		}
	case *extast.Table:
		if entering {
			r.renderTable(node)
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

// renderTable draws a table with equal column widths. Good enough for the
// fallback path; Chrome handles the real layout.
func (r *markdownRenderer) renderTable(table *extast.Table) {
	var rows [][]string
	for section := table.FirstChild(); section != nil; section = section.NextSibling() {
		switch s := section.(type) {
		case *extast.TableHeader:
			for row := s.FirstChild(); row != nil; row = row.NextSibling() {
				if tr, ok := row.(*extast.TableRow); ok {
					rows = append(rows, r.tableRow(tr))
				}
			}
			// TableHeader may itself be the row
			if len(rows) == 0 {
				rows = append(rows, r.headerRow(s))
			}
		case *extast.TableRow:
			rows = append(rows, r.tableRow(s))
		}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	r.pdf.Ln(2)
	colWidth := 190.0 / float64(len(rows[0]))
	for i, row := range rows {
		if i == 0 {
			r.pdf.SetFont("Arial", "B", 8)
			r.pdf.SetFillColor(230, 230, 230)
		} else {
			r.pdf.SetFont("Arial", "", 8)
			r.pdf.SetFillColor(255, 255, 255)
		}
		for _, cell := range row {
			r.pdf.CellFormat(colWidth, 6, cell, "1", 0, "L", i == 0, 0, "")
		}
		r.pdf.Ln(-1)
	}
	r.pdf.Ln(3)
	r.bodyFont()
}

func (r *markdownRenderer) tableRow(row *extast.TableRow) []string {
	var cells []string
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if tc, ok := cell.(*extast.TableCell); ok {
			cells = append(cells, string(tc.Text(r.source)))
		}
	}
	return cells
}

func (r *markdownRenderer) headerRow(header *extast.TableHeader) []string {
	var cells []string
	for cell := header.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if tc, ok := cell.(*extast.TableCell); ok {
			cells = append(cells, string(tc.Text(r.source)))
		}
	}
	return cells
}
