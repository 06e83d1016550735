package source

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/abhisek/quizrag/internal/mcq"
)

// ExtractFunc extracts text from the file at path.
type ExtractFunc func(ctx context.Context, path string) (string, error)

// Loader extracts plain text from documents on disk. Supported extensions
// are .pdf, .docx, .txt and .md.
type Loader struct {
	// PDF extracts PDF text. Defaults to ReadPDF.
	PDF ExtractFunc
}

// NewLoader returns a Loader that reads PDFs in-process.
func NewLoader() *Loader {
	return &Loader{PDF: ReadPDF}
}

// Load reads the document at path and returns its text with surrounding
// whitespace removed. Every failure is a loader error.
func (l *Loader) Load(path string) (string, error) {
	return l.LoadContext(context.Background(), path)
}

// LoadContext is Load with a context handed to the PDF extractor.
func (l *Loader) LoadContext(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", mcq.Wrap(mcq.KindLoader, err, "Failed to load file")
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return l.loadPDF(ctx, path)
	case ".docx":
		return loadDOCX(path)
	case ".txt", ".md", ".markdown":
		return loadPlain(path)
	default:
		return "", mcq.NewError(mcq.KindLoader, fmt.Sprintf("Unsupported file type %q. Use PDF, DOCX, TXT or MD.", ext))
	}
}

func (l *Loader) loadPDF(ctx context.Context, path string) (string, error) {
	extract := l.PDF
	if extract == nil {
		extract = ReadPDF
	}

	text, err := extract(ctx, path)
	if err != nil {
		return "", mcq.Wrap(mcq.KindLoader, err, "Failed to load PDF")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", mcq.NewError(mcq.KindLoader, "PDF contains no extractable text.")
	}
	return text, nil
}

// ReadPDF extracts the plain text of every page with ledongthuc/pdf.
// Malformed files can make the parser panic; that is reported as an error.
func ReadPDF(ctx context.Context, path string) (text string, err error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("malformed PDF: %v", p)
		}
	}()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PDFToText extracts text with the poppler pdftotext tool, which copes with
// more layouts than ReadPDF. Pages are separated by form feeds in its
// output; they are turned into newlines.
func PDFToText(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", path, "-")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("pdftotext failed: %s: %w", msg, err)
		}
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}
	return strings.ReplaceAll(string(out), "\f", "\n"), nil
}

func loadDOCX(path string) (string, error) {
	text, err := docxText(path)
	if err != nil {
		return "", mcq.Wrap(mcq.KindLoader, err, "Failed to load DOCX")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", mcq.NewError(mcq.KindLoader, "DOCX contains no readable text.")
	}
	return text, nil
}

// docxText opens the package with nguyenthenguyen/docx and flattens the
// main document part into one line per paragraph.
func docxText(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	return paragraphs(strings.NewReader(r.Editable().GetContent()))
}

// paragraphs walks WordprocessingML tokens. Text runs (w:t) accumulate into
// the current paragraph (w:p); tabs and breaks become whitespace.
func paragraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		paras  []string
		cur    strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				cur.WriteByte('\t')
			case "br", "cr":
				cur.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paras = append(paras, cur.String())
				cur.Reset()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	if cur.Len() > 0 {
		paras = append(paras, cur.String())
	}
	return strings.Join(paras, "\n"), nil
}

func loadPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", mcq.Wrap(mcq.KindLoader, err, "Failed to load file")
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", mcq.NewError(mcq.KindLoader, "File contains no readable text.")
	}
	return text, nil
}
