// Package extract turns raw PDF invoices into plain text and candidate
// tables. It carries no business logic; supplier detection and line item
// parsing operate on its output.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Table is an ordered sequence of rows, each row an ordered sequence of
// string cells.
type Table [][]string

// Content is the extracted representation of one document. It is derived
// per ingestion call and discarded after parsing.
type Content struct {
	Text   string
	Tables []Table
	Pages  int
}

// CorruptError indicates the byte stream could not be parsed as a PDF at
// all. A document that parses but contains no tables is not corrupt.
type CorruptError struct {
	Filename string
	Err      error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("document %q is not a readable PDF: %v", e.Filename, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// Extractor extracts content from a raw document byte stream.
type Extractor interface {
	Extract(ctx context.Context, data []byte, filename string) (*Content, error)
}

// PDFExtractor implements Extractor for PDF documents. It works entirely
// in-process over the byte content; no temporary files are created.
type PDFExtractor struct{}

var _ Extractor = (*PDFExtractor)(nil)

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

// Extract parses the document into plain text and candidate tables.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte, filename string) (_ *Content, err error) {
	if len(data) == 0 {
		return nil, &CorruptError{Filename: filename, Err: fmt.Errorf("empty document")}
	}

	// The pdf library panics on some malformed cross-reference tables;
	// those documents are corrupt, not fatal to the process.
	defer func() {
		if r := recover(); r != nil {
			err = &CorruptError{Filename: filename, Err: fmt.Errorf("malformed pdf structure: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &CorruptError{Filename: filename, Err: err}
	}

	content := &Content{Pages: reader.NumPage()}
	var text strings.Builder

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		texts := page.Content().Text
		rows := groupIntoRows(texts)

		pageText, perr := page.GetPlainText(nil)
		if perr != nil {
			// Fall back to the positioned runs; some generators emit
			// fonts the plain-text path cannot decode.
			pageText = joinRows(rows)
		}
		pageText = strings.TrimSpace(pageText)
		if pageText != "" {
			if text.Len() > 0 {
				text.WriteString("\n\n")
			}
			text.WriteString(pageText)
		}

		content.Tables = append(content.Tables, tablesFromRows(rows)...)
	}

	content.Text = text.String()
	return content, nil
}
