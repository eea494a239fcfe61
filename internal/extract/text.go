package extract

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultScaleFactor is the multiplier of the scaled size limit.
const DefaultScaleFactor = 512

// ReadStrategy selects how a text file is pulled into memory.
type ReadStrategy int

const (
	StrategyWholeFile ReadStrategy = iota
	StrategyLines
)

func (s ReadStrategy) String() string {
	switch s {
	case StrategyWholeFile:
		return "whole_file"
	case StrategyLines:
		return "lines"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ReadPolicy picks a ReadStrategy from a file size in bytes.
type ReadPolicy interface {
	Strategy(size int64) ReadStrategy
}

// ScaledLimitPolicy compares the size in MB against Factor times itself.
// With Factor >= 1 the limit always exceeds the size, so StrategyLines is never chosen.
// Use FixedLimitPolicy to actually stream large files.
type ScaledLimitPolicy struct {
	Factor float64
}

func (p ScaledLimitPolicy) Strategy(size int64) ReadStrategy {
	sizeMB := float64(size) / (1024 * 1024)
	if sizeMB <= p.Factor*sizeMB {
		return StrategyWholeFile
	}
	return StrategyLines
}

// FixedLimitPolicy reads files larger than LimitBytes line by line.
type FixedLimitPolicy struct {
	LimitBytes int64
}

func (p FixedLimitPolicy) Strategy(size int64) ReadStrategy {
	if size > p.LimitBytes {
		return StrategyLines
	}
	return StrategyWholeFile
}

// TextReader decodes a plain-text file with a known encoding label.
type TextReader struct {
	Policy ReadPolicy
	Logger *zap.Logger
}

// NewTextReader returns a TextReader using policy, or the scaled policy when nil.
func NewTextReader(policy ReadPolicy) *TextReader {
	if policy == nil {
		policy = ScaledLimitPolicy{Factor: DefaultScaleFactor}
	}
	return &TextReader{Policy: policy}
}

// Read returns the full decoded content of path. Bytes that do not decode under label
// fail the whole read; no partial text is returned.
func (r *TextReader) Read(path, label string) (string, error) {
	c, err := lookupCodec(label)
	if err != nil {
		return "", newError(KindDecode, path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", newError(KindIO, path, err)
	}
	policy := r.Policy
	if policy == nil {
		policy = ScaledLimitPolicy{Factor: DefaultScaleFactor}
	}
	strategy := policy.Strategy(info.Size())
	if r.Logger != nil {
		r.Logger.Debug("reading text",
			zap.String("path", path),
			zap.String("encoding", label),
			zap.Int64("size", info.Size()),
			zap.Stringer("strategy", strategy))
	}
	if strategy == StrategyLines {
		return c.readLines(path)
	}
	return c.readWhole(path)
}

var errDecode = errors.New("invalid byte sequence")

// codec decodes one encoding strictly. UTF-8 variants are validated on the raw bytes;
// everything else goes through an x/text decoder and is rejected on U+FFFD.
type codec struct {
	label     string
	enc       encoding.Encoding
	utf8      bool
	asciiOnly bool
	stripBOM  bool
}

func lookupCodec(label string) (*codec, error) {
	name := strings.ToLower(strings.TrimSpace(label))
	switch name {
	case "":
		return nil, errors.New("no encoding label")
	case "utf-8", "utf8":
		return &codec{label: label, utf8: true}, nil
	case "utf-8-sig":
		return &codec{label: label, utf8: true, stripBOM: true}, nil
	case "ascii", "us-ascii":
		return &codec{label: label, utf8: true, asciiOnly: true}, nil
	case "utf-16":
		return &codec{label: label, enc: unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)}, nil
	case "gb-18030", "gb18030":
		return &codec{label: label, enc: simplifiedchinese.GB18030}, nil
	}
	if enc, err := ianaindex.IANA.Encoding(label); err == nil && enc != nil {
		return &codec{label: label, enc: enc}, nil
	}
	if enc, err := htmlindex.Get(label); err == nil && enc != nil {
		return &codec{label: label, enc: enc}, nil
	}
	return nil, fmt.Errorf("unknown encoding %q", label)
}

func (c *codec) readWhole(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", newError(KindIO, path, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", newError(KindIO, path, err)
	}
	if c.utf8 {
		if c.stripBOM {
			data = bytes.TrimPrefix(data, bomUTF8)
		}
		if err := c.check(string(data)); err != nil {
			return "", newError(KindDecode, path, err)
		}
		return string(data), nil
	}
	out, _, err := transform.Bytes(c.enc.NewDecoder(), data)
	if err != nil {
		return "", newError(KindDecode, path, fmt.Errorf("decode %s: %w", c.label, err))
	}
	s := string(out)
	if err := c.check(s); err != nil {
		return "", newError(KindDecode, path, err)
	}
	return s, nil
}

func (c *codec) readLines(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", newError(KindIO, path, err)
	}
	defer f.Close()

	var src io.Reader = f
	if !c.utf8 {
		src = transform.NewReader(f, c.enc.NewDecoder())
	}
	br := bufio.NewReader(src)
	var b strings.Builder
	first := true
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			if first && c.stripBOM {
				line = strings.TrimPrefix(line, "\ufeff")
			}
			first = false
			if cerr := c.check(line); cerr != nil {
				return "", newError(KindDecode, path, cerr)
			}
			b.WriteString(line)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			if c.utf8 {
				return "", newError(KindIO, path, err)
			}
			return "", newError(KindDecode, path, fmt.Errorf("decode %s: %w", c.label, err))
		}
	}
	return b.String(), nil
}

func (c *codec) check(s string) error {
	if c.utf8 {
		if !utf8.ValidString(s) {
			return fmt.Errorf("%w for %s", errDecode, c.label)
		}
		if c.asciiOnly && !isASCII([]byte(s)) {
			return fmt.Errorf("%w for %s: non-ASCII byte", errDecode, c.label)
		}
		return nil
	}
	if strings.ContainsRune(s, utf8.RuneError) {
		return fmt.Errorf("%w for %s", errDecode, c.label)
	}
	return nil
}
