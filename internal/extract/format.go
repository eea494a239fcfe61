package extract

import (
	"fmt"
	"strings"
)

// Category is the logical kind of a file, derived from its extension.
type Category string

const (
	CategoryUnsupported  Category = "unsupported"
	CategoryPlainText    Category = "plain_text"
	CategoryWordDocument Category = "word_document"
)

// SubFormat distinguishes the two word-processor formats.
type SubFormat string

const (
	SubFormatNone   SubFormat = ""
	SubFormatModern SubFormat = "docx"
	SubFormatLegacy SubFormat = "doc"
)

// Classification is the result of Classify.
type Classification struct {
	Category  Category  `json:"category"`
	SubFormat SubFormat `json:"sub_format,omitempty"`
	Extension string    `json:"extension"`
	Reason    string    `json:"reason,omitempty"`
}

// Supported reports whether downstream extraction may run.
func (c Classification) Supported() bool {
	return c.Category != CategoryUnsupported
}

// SupportedExtensions returns the extensions Classify accepts, without the dot.
func SupportedExtensions() []string {
	return []string{"txt", "docx", "doc"}
}

// Extension returns the lower-cased text after the last '.' of path.
// When path has no '.', the whole path is returned lower-cased.
func Extension(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return strings.ToLower(path[i+1:])
	}
	return strings.ToLower(path)
}

// Classify maps path to a Classification by extension only. It never touches the filesystem.
func Classify(path string) Classification {
	ext := Extension(path)
	switch ext {
	case "txt":
		return Classification{Category: CategoryPlainText, Extension: ext}
	case "docx":
		return Classification{Category: CategoryWordDocument, SubFormat: SubFormatModern, Extension: ext}
	case "doc":
		return Classification{Category: CategoryWordDocument, SubFormat: SubFormatLegacy, Extension: ext}
	default:
		return Classification{
			Category:  CategoryUnsupported,
			Extension: ext,
			Reason:    fmt.Sprintf("unsupported file format %q (supported: %s)", ext, strings.Join(SupportedExtensions(), ", ")),
		}
	}
}
