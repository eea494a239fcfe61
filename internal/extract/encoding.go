package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/saintfish/chardet"
)

// DefaultSampleSize is how many leading bytes of a text file are inspected.
const DefaultSampleSize = 200000

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// EncodingGuess is a best-effort charset label for a byte sample.
// Confidence is 0-100; BOM and pure ASCII samples report 100.
type EncodingGuess struct {
	Label      string `json:"label"`
	Confidence int    `json:"confidence"`
}

// Detector infers a text file's character encoding from its first SampleSize bytes.
type Detector struct {
	SampleSize int

	// charset is the statistical fallback; nil means chardet's text detector.
	charset func([]byte) (*chardet.Result, error)
}

// NewDetector returns a Detector sampling sampleSize bytes; non-positive means DefaultSampleSize.
func NewDetector(sampleSize int) *Detector {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &Detector{SampleSize: sampleSize}
}

// Detect reads at most SampleSize bytes of path and guesses their encoding.
func (d *Detector) Detect(path string) (EncodingGuess, error) {
	f, err := os.Open(path)
	if err != nil {
		return EncodingGuess{}, newError(KindIO, path, err)
	}
	defer f.Close()

	size := d.SampleSize
	if size <= 0 {
		size = DefaultSampleSize
	}
	sample, err := io.ReadAll(io.LimitReader(f, int64(size)))
	if err != nil {
		return EncodingGuess{}, newError(KindIO, path, fmt.Errorf("read sample: %w", err))
	}
	guess, err := detectBytes(sample, d.charset)
	if err != nil {
		return EncodingGuess{}, newError(KindEncodingUndetectable, path, err)
	}
	return guess, nil
}

// DetectBytes guesses the encoding of sample. A BOM wins, then pure 7-bit data is ASCII,
// otherwise the statistical detector decides.
func DetectBytes(sample []byte) (EncodingGuess, error) {
	return detectBytes(sample, nil)
}

func detectBytes(sample []byte, charset func([]byte) (*chardet.Result, error)) (EncodingGuess, error) {
	switch {
	case bytes.HasPrefix(sample, bomUTF8):
		return EncodingGuess{Label: "utf-8-sig", Confidence: 100}, nil
	case bytes.HasPrefix(sample, bomUTF16LE), bytes.HasPrefix(sample, bomUTF16BE):
		return EncodingGuess{Label: "utf-16", Confidence: 100}, nil
	case isASCII(sample):
		return EncodingGuess{Label: "ascii", Confidence: 100}, nil
	}
	if charset == nil {
		charset = chardet.NewTextDetector().DetectBest
	}
	res, err := charset(sample)
	if err != nil {
		if errors.Is(err, chardet.NotDetectedError) {
			return EncodingGuess{}, errors.New("no charset matched the sample")
		}
		return EncodingGuess{}, fmt.Errorf("detect charset: %w", err)
	}
	if res == nil || res.Charset == "" {
		return EncodingGuess{}, errors.New("no charset matched the sample")
	}
	return EncodingGuess{Label: res.Charset, Confidence: res.Confidence}, nil
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}
