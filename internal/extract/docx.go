package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// docxDocumentXMLPath is the default path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// contentTypesPath is the path to [Content_Types].xml in OOXML packages.
const contentTypesPath = "[Content_Types].xml"

// docxMainContentType is the content type for the main document in DOCX files.
const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

// partNameRe extracts PartName from Override elements in [Content_Types].xml.
var partNameRe = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)

// partNameRe2 handles the case where ContentType appears before PartName.
var partNameRe2 = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)

// findDocxMainDocumentPath finds the main document path from [Content_Types].xml.
// Returns the path without leading slash, or empty string if not found.
func findDocxMainDocumentPath(zr *zip.Reader) string {
	for _, f := range zr.File {
		if f.Name != contentTypesPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return ""
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			_ = rc.Close()
			return ""
		}
		_ = rc.Close()

		content := buf.String()
		// Try both attribute orders
		if matches := partNameRe.FindStringSubmatch(content); len(matches) > 1 {
			return strings.TrimPrefix(matches[1], "/")
		}
		if matches := partNameRe2.FindStringSubmatch(content); len(matches) > 1 {
			return strings.TrimPrefix(matches[1], "/")
		}
		return ""
	}
	return ""
}

// readDocxParagraphs returns the text of every body-level paragraph of the .docx at path,
// in document order. Paragraphs nested in tables, text boxes or content controls are skipped.
func readDocxParagraphs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newError(KindIO, path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, newError(KindIO, path, err)
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, newError(KindContainerParse, path, fmt.Errorf("not a zip: %w", err))
	}

	// Find main document path from [Content_Types].xml, fall back to default
	docPath := findDocxMainDocumentPath(zr)
	if docPath == "" {
		docPath = docxDocumentXMLPath
	}
	var docFile *zip.File
	for _, zf := range zr.File {
		if zf.Name == docPath {
			docFile = zf
			break
		}
	}
	if docFile == nil {
		return nil, newError(KindContainerParse, path, fmt.Errorf("%s not found", docPath))
	}
	rc, err := docFile.Open()
	if err != nil {
		return nil, newError(KindContainerParse, path, fmt.Errorf("open %s: %w", docPath, err))
	}
	defer rc.Close()

	paragraphs, err := parseDocxParagraphs(rc)
	if err != nil {
		return nil, newError(KindContainerParse, path, fmt.Errorf("parse %s: %w", docPath, err))
	}
	return paragraphs, nil
}

// parseDocxParagraphs walks WordprocessingML and collects w:p elements that are direct
// children of w:body. Run text is w:t, with w:tab as '\t' and w:br/w:cr as '\n', taken
// only from w:r elements that are direct children of the paragraph. Hyperlinks, field
// results and revision wrappers contribute nothing.
func parseDocxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		stack      []string
		paragraphs []string
		cur        strings.Builder
		paraDepth  = -1
		capture    bool
		sawBody    bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if name == "body" {
				sawBody = true
			}
			switch {
			case paraDepth < 0 && name == "p" && len(stack) > 0 && stack[len(stack)-1] == "body":
				paraDepth = len(stack)
				cur.Reset()
			case paraDepth >= 0 && len(stack) == paraDepth+2 && stack[paraDepth+1] == "r":
				switch name {
				case "t":
					capture = true
				case "tab":
					cur.WriteByte('\t')
				case "br", "cr":
					cur.WriteByte('\n')
				}
			}
			stack = append(stack, name)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.New("unbalanced end element")
			}
			stack = stack[:len(stack)-1]
			if t.Name.Local == "t" {
				capture = false
			}
			if paraDepth >= 0 && len(stack) == paraDepth {
				paragraphs = append(paragraphs, cur.String())
				paraDepth = -1
			}
		case xml.CharData:
			if capture {
				cur.Write(t)
			}
		}
	}
	if !sawBody {
		return nil, errors.New("no w:body element")
	}
	return paragraphs, nil
}
