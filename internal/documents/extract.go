// Package documents turns uploaded resume files into plain text and archives the originals.
package documents

import (
	"bytes"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"dreamforge/internal/errors"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"golang.org/x/net/html"
)

// Supported formats
const (
	FormatText = "text"
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Document is the text extracted from an upload
type Document struct {
	Filename string
	Format   string
	Text     string
}

// DetectFormat picks the extraction format from the file extension, then the content type,
// then the PDF magic bytes. It returns "" for unsupported files.
func DetectFormat(filename, contentType string, data []byte) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".txt", ".text", ".md":
		return FormatText
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch {
	case mediaType == mimePDF:
		return FormatPDF
	case mediaType == mimeDOCX:
		return FormatDOCX
	case strings.HasPrefix(mediaType, "text/"):
		return FormatText
	}

	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return FormatPDF
	}
	return ""
}

// Extract returns the plain text of a PDF, DOCX or text upload
func Extract(filename, contentType string, data []byte) (*Document, error) {
	format := DetectFormat(filename, contentType, data)

	var (
		text string
		err  error
	)
	switch format {
	case FormatText:
		text = strings.ToValidUTF8(string(data), "")
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	default:
		return nil, errors.NewValidationError(errors.ErrCodeUnsupportedFile,
			"Unsupported file type. Upload a PDF, DOCX or plain text resume.", nil).
			WithContext("filename", filename).
			WithContext("content_type", contentType)
	}
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Could not read %s file", strings.ToUpper(format)), err).
			WithContext("filename", filename)
	}

	text = normalizeText(text)
	if text == "" {
		return nil, errors.NewValidationError(errors.ErrCodeEmptyDocument,
			"No text could be extracted from the uploaded file", nil).
			WithContext("filename", filename)
	}

	return &Document{Filename: filename, Format: format, Text: text}, nil
}

func extractPDF(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(pageText)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return docxXMLToText(doc.Editable().GetContent()), nil
}

// docxXMLToText keeps the text runs of a WordprocessingML body. Paragraphs and breaks become newlines.
func docxXMLToText(content string) string {
	z := html.NewTokenizer(strings.NewReader(content))
	var b strings.Builder
	inText := false
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			// whitespace between elements is XML formatting, not document text
			if inText {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "w:t":
				inText = tt == html.StartTagToken
			case "w:tab":
				b.WriteByte('\t')
			case "w:br", "w:cr":
				b.WriteByte('\n')
			case "w:p":
				if tt == html.EndTagToken {
					b.WriteByte('\n')
				}
			}
		}
	}
}

// normalizeText trims every line and collapses runs of blank lines
func normalizeText(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
