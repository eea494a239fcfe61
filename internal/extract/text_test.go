package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

var (
	wholeReader = NewTextReader(FixedLimitPolicy{LimitBytes: 1 << 40})
	lineReader  = NewTextReader(FixedLimitPolicy{LimitBytes: -1})
)

func TestScaledLimitPolicy_alwaysWholeFile(t *testing.T) {
	p := ScaledLimitPolicy{Factor: DefaultScaleFactor}
	for _, size := range []int64{0, 1, 1 << 20, 600 << 20, 8 << 30} {
		if got := p.Strategy(size); got != StrategyWholeFile {
			t.Errorf("Strategy(%d) = %s, want whole_file", size, got)
		}
	}
}

func TestFixedLimitPolicy(t *testing.T) {
	p := FixedLimitPolicy{LimitBytes: 100}
	if got := p.Strategy(100); got != StrategyWholeFile {
		t.Errorf("Strategy(100) = %s", got)
	}
	if got := p.Strategy(101); got != StrategyLines {
		t.Errorf("Strategy(101) = %s", got)
	}
}

func TestNewTextReader_defaultPolicy(t *testing.T) {
	r := NewTextReader(nil)
	p, ok := r.Policy.(ScaledLimitPolicy)
	if !ok || p.Factor != DefaultScaleFactor {
		t.Errorf("default policy = %#v", r.Policy)
	}
}

func TestTextReader_pathsAgree(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		label   string
		want    string
	}{
		{"ascii lf", []byte("Hello\nworld\n"), "ascii", "Hello\nworld\n"},
		{"crlf no trailing newline", []byte("one\r\ntwo\r\nthree"), "utf-8", "one\r\ntwo\r\nthree"},
		{"utf8 multibyte", []byte("café\n日本語\n"), "UTF-8", "café\n日本語\n"},
		{"utf8 bom stripped", append([]byte{0xEF, 0xBB, 0xBF}, "bom\nline\n"...), "utf-8-sig", "bom\nline\n"},
		{"latin1", []byte("caf\xe9\nna\xefve\n"), "ISO-8859-1", "café\nnaïve\n"},
		{"empty", nil, "ascii", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "f.txt", tt.content)
			whole, err := wholeReader.Read(path, tt.label)
			if err != nil {
				t.Fatalf("whole Read: %v", err)
			}
			lines, err := lineReader.Read(path, tt.label)
			if err != nil {
				t.Fatalf("lines Read: %v", err)
			}
			if whole != tt.want {
				t.Errorf("whole = %q, want %q", whole, tt.want)
			}
			if lines != whole {
				t.Errorf("lines = %q, whole = %q", lines, whole)
			}
		})
	}
}

func TestTextReader_utf16(t *testing.T) {
	want := "première ligne\nseconde ligne\n"
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.Bytes([]byte(want))
	if err != nil {
		t.Fatal(err)
	}
	path := writeTemp(t, "u16.txt", data)

	guess, err := NewDetector(0).Detect(path)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	for name, r := range map[string]*TextReader{"whole": wholeReader, "lines": lineReader} {
		got, err := r.Read(path, guess.Label)
		if err != nil {
			t.Fatalf("%s Read: %v", name, err)
		}
		if got != want {
			t.Errorf("%s got %q", name, got)
		}
	}
}

func TestTextReader_shiftJIS(t *testing.T) {
	want := "こんにちは\n世界\n"
	data, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(want))
	if err != nil {
		t.Fatal(err)
	}
	path := writeTemp(t, "sjis.txt", data)
	for name, r := range map[string]*TextReader{"whole": wholeReader, "lines": lineReader} {
		got, err := r.Read(path, "Shift_JIS")
		if err != nil {
			t.Fatalf("%s Read: %v", name, err)
		}
		if got != want {
			t.Errorf("%s got %q", name, got)
		}
	}
}

func TestTextReader_decodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		label   string
	}{
		{"invalid utf8", []byte("ok line\nbad \xff byte\n"), "utf-8"},
		{"non-ascii under ascii", []byte("caf\xc3\xa9\n"), "ascii"},
		{"unknown label", []byte("hello"), "x-no-such-charset"},
		{"empty label", []byte("hello"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "bad.txt", tt.content)
			for name, r := range map[string]*TextReader{"whole": wholeReader, "lines": lineReader} {
				got, err := r.Read(path, tt.label)
				if err == nil {
					t.Fatalf("%s: expected error, got %q", name, got)
				}
				if got != "" {
					t.Errorf("%s: partial text returned: %q", name, got)
				}
				if KindOf(err) != KindDecode {
					t.Errorf("%s: kind = %s, want %s", name, KindOf(err), KindDecode)
				}
			}
		})
	}
}

func TestTextReader_missingFile(t *testing.T) {
	_, err := wholeReader.Read(filepath.Join(t.TempDir(), "nope.txt"), "utf-8")
	if KindOf(err) != KindIO {
		t.Errorf("kind = %s, want %s", KindOf(err), KindIO)
	}
}

func TestTextReader_largeFileLines(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 5000; i++ {
		b.WriteString("line of text that repeats\n")
	}
	want := b.String()
	path := writeTemp(t, "big.txt", []byte(want))
	r := NewTextReader(FixedLimitPolicy{LimitBytes: 1024})
	got, err := r.Read(path, "ascii")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != want {
		t.Errorf("got %d bytes, want %d", len(got), len(want))
	}
}
