package services

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	ExtensionPDF  = "pdf"
	ExtensionDOCX = "docx"
)

var supportedExtensions = map[string]struct{}{
	ExtensionPDF:  {},
	ExtensionDOCX: {},
}

// IsSupportedExtension reports whether ext (without the dot) can be parsed.
func IsSupportedExtension(ext string) bool {
	_, ok := supportedExtensions[ext]
	return ok
}

// ResumeExtension returns the lower-cased trailing extension of filename, or
// an empty string when there is none.
func ResumeExtension(filename string) string {
	ext := filepath.Ext(strings.TrimSpace(filename))
	if len(ext) < 2 {
		return ""
	}
	ext = strings.ToLower(ext[1:])
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

type DocumentParserService interface {
	ExtractText(data []byte, extension string) (string, error)
	ExtractTextFromFile(filePath string) (string, error)
}

type documentParserService struct{}

func NewDocumentParserService() DocumentParserService {
	return &documentParserService{}
}

// ExtractText converts an in-memory PDF or DOCX into plain text. An empty
// document yields an empty string, not an error.
func (p *documentParserService) ExtractText(data []byte, extension string) (string, error) {
	switch extension {
	case ExtensionPDF:
		return extractPDFText(data)
	case ExtensionDOCX:
		return extractDocxText(data)
	default:
		return "", &UnsupportedFormatError{Extension: extension}
	}
}

func (p *documentParserService) ExtractTextFromFile(filePath string) (string, error) {
	ext := ResumeExtension(filePath)
	if !IsSupportedExtension(ext) {
		return "", &UnsupportedFormatError{Extension: ext}
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.ExtractText(data, ext)
}

func extractPDFText(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &DocumentParseError{Format: ExtensionPDF, Err: fmt.Errorf("%v", r)}
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &DocumentParseError{Format: ExtensionPDF, Err: err}
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() || page.V.Key("Contents").IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", &DocumentParseError{Format: ExtensionPDF, Err: fmt.Errorf("page %d: %w", pageIndex, err)}
		}

		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n")
	}

	return CleanText(textBuilder.String()), nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br\s*/>|<w:cr\s*/>`)
	docxTab          = regexp.MustCompile(`<w:tab\s*/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
	inlineSpaces     = regexp.MustCompile(`[ \t\r\f\v\x{00A0}]+`)
	blankLines       = regexp.MustCompile(`\n\s*\n+`)
)

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &DocumentParseError{Format: ExtensionDOCX, Err: err}
	}
	defer doc.Close()

	return docxXMLToText(doc.Editable().GetContent()), nil
}

// docxXMLToText keeps paragraph breaks as newlines and drops all markup.
func docxXMLToText(content string) string {
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxTab.ReplaceAllString(content, "\t")
	content = xmlTag.ReplaceAllString(content, "")
	content = unescapeXML(content)

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpaces.ReplaceAllString(line, " "))
	}
	content = strings.Join(lines, "\n")
	content = blankLines.ReplaceAllString(content, "\n")

	return strings.TrimSpace(content)
}

var xmlEntities = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

func unescapeXML(s string) string {
	return xmlEntities.Replace(s)
}

// CleanText trims every line and drops empty ones.
func CleanText(text string) string {
	text = strings.TrimSpace(text)

	lines := strings.Split(text, "\n")
	var cleanedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
