// Package writer persists cleaned page content as Markdown files.
package writer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/is-leeroy-jenkins/Soupy/models"
)

// DefaultDir is used when Write is given no directory.
const DefaultDir = "output"

// Header is the YAML front matter written above the body.
type Header struct {
	SourceURL  string `yaml:"source_url"`
	StatusCode int    `yaml:"status_code"`
}

// HeaderFrom builds the front matter for a fetched page.
func HeaderFrom(r *models.Result) Header {
	if r == nil {
		return Header{}
	}
	return Header{SourceURL: r.URL(), StatusCode: r.StatusCode()}
}

// Writer writes one file per call. It holds only its options.
type Writer struct {
	frontMatter bool
	mode        os.FileMode
}

// Option configures a Writer.
type Option func(*Writer)

// WithFrontMatter toggles the YAML header. Enabled by default.
func WithFrontMatter(enabled bool) Option {
	return func(w *Writer) { w.frontMatter = enabled }
}

// WithFileMode sets the permission bits of created files. Default 0644.
func WithFileMode(mode os.FileMode) Option {
	return func(w *Writer) { w.mode = mode }
}

// New creates a Writer.
func New(opts ...Option) *Writer {
	w := &Writer{frontMatter: true, mode: 0o644}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write stores text under dir/filename and returns the path written.
//
// ".md" is appended when filename has no extension, and dir is created if
// missing. The body is NFC-normalised UTF-8 ending in exactly one newline.
func (w *Writer) Write(text string, header Header, filename, dir string) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", models.NewInvalidArgument("filename")
	}
	if filepath.Ext(filename) == "" {
		filename += ".md"
	}
	if dir == "" {
		dir = DefaultDir
	}

	content, err := w.Render(text, header)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", writeFailed(eris.Wrapf(err, "writer: create %s", dir))
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, content, w.mode); err != nil {
		return "", writeFailed(eris.Wrapf(err, "writer: write %s", path))
	}
	return path, nil
}

// Render returns the exact bytes Write would store.
func (w *Writer) Render(text string, header Header) ([]byte, error) {
	var buf bytes.Buffer
	if w.frontMatter {
		meta, err := yaml.Marshal(header)
		if err != nil {
			return nil, writeFailed(eris.Wrap(err, "writer: marshal front matter"))
		}
		buf.WriteString("---\n")
		buf.Write(meta)
		buf.WriteString("---\n\n")
	}
	buf.WriteString(strings.TrimRight(norm.NFC.String(text), "\n"))
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func writeFailed(err error) *models.ScrapeError {
	return models.NewScrapeError(models.ErrCodeWriteFailed, "write output", err)
}
