package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DocumentReader extracts text from word-processor files.
type DocumentReader struct {
	Converter Converter
	Logger    *zap.Logger
}

// Read dispatches on sub. Modern documents are parsed in-process and their paragraphs
// joined with no separator; legacy documents go through the Converter.
func (r *DocumentReader) Read(ctx context.Context, path string, sub SubFormat) (string, error) {
	switch sub {
	case SubFormatModern:
		paragraphs, err := readDocxParagraphs(path)
		if err != nil {
			return "", err
		}
		if r.Logger != nil {
			r.Logger.Debug("parsed docx", zap.String("path", path), zap.Int("paragraphs", len(paragraphs)))
		}
		return strings.Join(paragraphs, ""), nil
	case SubFormatLegacy:
		return r.readLegacy(ctx, path)
	default:
		return "", newError(KindUnsupportedFormat, path, fmt.Errorf("unknown document sub-format %q", sub))
	}
}

func (r *DocumentReader) readLegacy(ctx context.Context, path string) (string, error) {
	if r.Converter == nil {
		return "", newError(KindConverter, path, errors.New("no converter configured"))
	}
	if _, err := os.Stat(path); err != nil {
		return "", newError(KindIO, path, err)
	}
	out, err := r.Converter.Convert(ctx, path)
	if err != nil {
		return "", newError(KindConverter, path, err)
	}
	if !utf8.Valid(out) {
		return "", newError(KindConverter, path, errors.New("converter output is not valid UTF-8"))
	}
	return string(out), nil
}
