// Package extract turns .txt, .docx and .doc files into flat plain text.
//
// The pipeline is Classify (by extension, no I/O), then either encoding detection plus
// a strict text read, or a word-processor reader. Every failure is an *Error carrying
// a Kind.
package extract

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Extractor extracts plain text from document files. It holds no per-call state and is
// safe for concurrent use.
type Extractor struct {
	detector *Detector
	text     *TextReader
	docs     *DocumentReader
	logger   *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger for pipeline debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// WithDetector replaces the encoding detector.
func WithDetector(d *Detector) Option {
	return func(e *Extractor) { e.detector = d }
}

// WithTextReader replaces the plain-text reader.
func WithTextReader(r *TextReader) Option {
	return func(e *Extractor) { e.text = r }
}

// WithConverter sets the converter used for legacy .doc files.
func WithConverter(c Converter) Option {
	return func(e *Extractor) { e.docs.Converter = c }
}

// NewExtractor returns an Extractor. Without options it samples 200000 bytes for
// encoding detection, always reads text files whole and runs ./antiword/antiword for .doc.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		detector: NewDetector(DefaultSampleSize),
		text:     NewTextReader(nil),
		docs: &DocumentReader{
			Converter: NewExecConverter(DefaultConverterPath, nil, DefaultConverterTimeout),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.detector == nil {
		e.detector = NewDetector(DefaultSampleSize)
	}
	if e.text == nil {
		e.text = NewTextReader(nil)
	}
	if e.text.Logger == nil {
		e.text.Logger = e.logger
	}
	e.docs.Logger = e.logger
	if c, ok := e.docs.Converter.(*ExecConverter); ok && c.Logger == nil {
		c.Logger = e.logger
	}
	return e
}

// Extract returns the text content of the file at path. A non-nil error is always an *Error.
// Unsupported extensions fail before the file is opened.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	c := Classify(path)
	e.logger.Debug("classified",
		zap.String("path", path),
		zap.String("category", string(c.Category)),
		zap.String("sub_format", string(c.SubFormat)))

	switch c.Category {
	case CategoryPlainText:
		guess, err := e.detector.Detect(path)
		if err != nil {
			return "", asError(path, err)
		}
		e.logger.Debug("detected encoding",
			zap.String("path", path),
			zap.String("encoding", guess.Label),
			zap.Int("confidence", guess.Confidence))
		text, err := e.text.Read(path, guess.Label)
		if err != nil {
			return "", asError(path, err)
		}
		return text, nil
	case CategoryWordDocument:
		text, err := e.docs.Read(ctx, path, c.SubFormat)
		if err != nil {
			return "", asError(path, err)
		}
		return text, nil
	default:
		return "", newError(KindUnsupportedFormat, path, errors.New(c.Reason))
	}
}

// Result is the rendered outcome of one extraction: Text on success, Kind and Message otherwise.
type Result struct {
	Path    string `json:"path"`
	Text    string `json:"text,omitempty"`
	Kind    Kind   `json:"kind,omitempty"`
	Message string `json:"error,omitempty"`
}

// OK reports whether the extraction succeeded.
func (r Result) OK() bool {
	return r.Kind == ""
}

// String returns the text, or the error description when the extraction failed.
func (r Result) String() string {
	if r.OK() {
		return r.Text
	}
	return r.Message
}

// ExtractResult runs Extract and folds the outcome into a Result. It never panics.
func (e *Extractor) ExtractResult(ctx context.Context, path string) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			e.logger.Error("extraction panicked", zap.String("path", path), zap.Any("panic", p))
			err := newError(KindInternal, path, fmt.Errorf("panic: %v", p))
			res = Result{Path: path, Kind: err.Kind, Message: err.Error()}
		}
	}()
	text, err := e.Extract(ctx, path)
	if err != nil {
		return Result{Path: path, Kind: KindOf(err), Message: err.Error()}
	}
	return Result{Path: path, Text: text}
}

// ExtractString returns the text of path, or a description of why extraction failed.
// Callers that need to tell the two apart should use Extract or ExtractResult.
func (e *Extractor) ExtractString(ctx context.Context, path string) string {
	return e.ExtractResult(ctx, path).String()
}

func asError(path string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return newError(KindInternal, path, err)
}
