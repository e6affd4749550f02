// Package extractor reads resume documents (PDF, DOCX, plain text) into
// normalized plain text.
package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"atscore/internal/errors"
	"atscore/internal/utils"
)

// DefaultMaxFileSize bounds the size of a document accepted for extraction
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// Extractor turns a resume document into text
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
	ExtractBytes(ctx context.Context, name string, data []byte) (string, error)
}

// FileExtractor dispatches on file extension
type FileExtractor struct {
	maxFileSize int64
	logger      *errors.Logger
}

// New creates a FileExtractor. A non-positive maxFileSize selects the default.
func New(maxFileSize int64, logger *errors.Logger) *FileExtractor {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &FileExtractor{maxFileSize: maxFileSize, logger: errors.OrNop(logger)}
}

// Extract reads and converts the file at path
func (e *FileExtractor) Extract(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewExtractionError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", path), err)
		}
		return "", errors.NewExtractionError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot access file: %s", path), err)
	}
	if err := utils.ValidateInputFile(path); err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", path), err)
	}
	if info.Size() > e.maxFileSize {
		return "", errors.NewExtractionError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("File too large: %s (limit %s)",
				utils.FormatFileSize(info.Size()), utils.FormatFileSize(e.maxFileSize)), nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", path), err)
	}
	return e.ExtractBytes(ctx, filepath.Base(path), data)
}

// ExtractBytes converts an in-memory document. name selects the format by extension.
func (e *FileExtractor) ExtractBytes(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeExtractionFailed, "extraction cancelled", err)
	}
	if int64(len(data)) > e.maxFileSize {
		return "", errors.NewExtractionError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("File too large: %s (limit %s)",
				utils.FormatFileSize(int64(len(data))), utils.FormatFileSize(e.maxFileSize)), nil)
	}

	ext := utils.GetFileExtension(name)
	var (
		text string
		err  error
	)
	switch {
	case ext == ".pdf":
		text, err = pdfText(data)
	case ext == ".docx":
		text, err = docxText(data)
	case ext == ".doc":
		return "", errors.NewExtractionError(errors.ErrCodeUnsupportedFileType,
			"Legacy .doc files are not supported; convert the document to DOCX or PDF", nil)
	case utils.IsTextFile(name):
		text = strings.ToValidUTF8(string(data), "�")
	default:
		return "", errors.NewExtractionError(errors.ErrCodeUnsupportedFileType,
			fmt.Sprintf("Unsupported file type %q (supported: .pdf, .docx, .txt, .md)", ext), nil)
	}
	if err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeExtractionFailed,
			fmt.Sprintf("Failed to extract text from %s", name), err)
	}

	text = Clean(text)
	if text == "" {
		return "", errors.NewExtractionError(errors.ErrCodeEmptyDocument,
			fmt.Sprintf("No extractable text found in %s", name), nil)
	}

	e.logger.Debug("Extracted resume text", "file", name, "chars", len(text))
	return text, nil
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	rs, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rs); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var (
	xmlTagPattern = regexp.MustCompile(`<[^>]+>`)
	lineBreakTags = regexp.MustCompile(`<w:br\s*/>|<w:cr\s*/>`)
)

func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("no word/document.xml in archive")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}

	xml := string(raw)
	xml = strings.ReplaceAll(xml, "</w:p>", "\n")
	xml = strings.ReplaceAll(xml, "<w:tab/>", "\t")
	xml = lineBreakTags.ReplaceAllString(xml, "\n")
	xml = xmlTagPattern.ReplaceAllString(xml, "")
	return html.UnescapeString(xml), nil
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Clean normalizes line endings and spacing while keeping single blank
// lines, which separate resume entries
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, " ", " ")
	text = strings.ReplaceAll(text, "\f", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\v")
	}
	text = strings.Join(lines, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
