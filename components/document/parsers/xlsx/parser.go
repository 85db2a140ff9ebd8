package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bububa/colbert-go/components/document"
)

// Parser renders every sheet of a workbook as a markdown table
type Parser struct {
	password string
}

var _ document.Parser = (*Parser)(nil)

type Option func(*Parser)

func WithPassword(passwd string) Option {
	return func(p *Parser) {
		p.password = passwd
	}
}

func NewParser(opts ...Option) *Parser {
	ret := new(Parser)
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Parse try to parse a xlsx content from a bytes.Reader and write to an io.Writer
func (p *Parser) Parse(ctx context.Context, reader *bytes.Reader, writer io.Writer) error {
	opts := make([]excelize.Options, 0, 1)
	if p.password != "" {
		opts = append(opts, excelize.Options{Password: p.password})
	}
	doc, err := excelize.OpenReader(reader, opts...)
	if err != nil {
		return err
	}
	defer doc.Close()
	for _, sheet := range doc.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.writeSheet(doc, sheet, writer); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) writeSheet(doc *excelize.File, sheet string, writer io.Writer) error {
	rows, err := doc.Rows(sheet)
	if err != nil {
		return err
	}
	defer rows.Close()
	var totalRows int
	for rowIdx := 0; rows.Next(); rowIdx++ {
		row, err := rows.Columns()
		if err != nil {
			return err
		}
		if totalRows == 0 {
			fmt.Fprintf(writer, "# %s\n\n", sheet)
		}
		cells := make([]string, 0, len(row))
		for colIdx, cellValue := range row {
			cellValue = strings.TrimSpace(document.EscapeMarkdown(document.StripUnprintable(cellValue)))
			if cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1); err == nil && cellValue != "" {
				cellValue = decorate(doc, sheet, cell, cellValue)
			}
			cells = append(cells, cellValue)
		}
		if _, err := fmt.Fprintf(writer, "| %s |\n", strings.Join(cells, " | ")); err != nil {
			return err
		}
		totalRows++
	}
	if totalRows > 0 {
		writer.Write(bytes.Repeat([]byte{'-'}, 100))
		writer.Write([]byte{'\n'})
	}
	return rows.Error()
}

func decorate(doc *excelize.File, sheet string, cell string, value string) string {
	if styleID, err := doc.GetCellStyle(sheet, cell); err == nil {
		if style, err := doc.GetStyle(styleID); err == nil && style.Font != nil {
			if style.Font.Bold {
				value = fmt.Sprintf("**%s**", value)
			} else if style.Font.Strike {
				value = fmt.Sprintf("~~%s~~", value)
			} else if style.Font.Italic {
				value = fmt.Sprintf("*%s*", value)
			}
		}
	}
	if _, target, _ := doc.GetCellHyperLink(sheet, cell); target != "" {
		value = fmt.Sprintf("[%s](%s)", value, target)
	}
	return value
}
