package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const (
	// docxDocumentXMLPath is the default path to the main document part.
	docxDocumentXMLPath = "word/document.xml"
	contentTypesPath    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	odtContentPath      = "content.xml"
)

// extractDOCX returns the text of every <w:t> run, one paragraph per line.
func extractDOCX(content []byte) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	docPath := docxMainPart(zr)
	if docPath == "" {
		docPath = docxDocumentXMLPath
	}
	f := findZipFile(zr, docPath)
	if f == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", docPath)
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("extract DOCX: open %s: %w", f.Name, err)
	}
	defer rc.Close()
	return xmlText(rc, xmlTextRules{
		text:      func(local string) bool { return local == "t" },
		paragraph: func(local string) bool { return local == "p" },
		space:     func(local string) bool { return local == "tab" || local == "br" },
	})
}

// extractODT returns the text of every text:p and text:h element.
func extractODT(content []byte) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		return "", fmt.Errorf("extract ODT: %w", err)
	}
	f := findZipFile(zr, odtContentPath)
	if f == nil {
		return "", fmt.Errorf("extract ODT: %s not found", odtContentPath)
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("extract ODT: open %s: %w", f.Name, err)
	}
	defer rc.Close()
	return xmlText(rc, xmlTextRules{
		text:      func(local string) bool { return local == "p" || local == "h" || local == "span" || local == "a" },
		paragraph: func(local string) bool { return local == "p" || local == "h" },
		space:     func(local string) bool { return local == "s" || local == "tab" || local == "line-break" },
	})
}

// docxMainPart reads [Content_Types].xml and returns the main document part
// path without its leading slash, or "" when absent.
func docxMainPart(zr *zip.Reader) string {
	f := findZipFile(zr, contentTypesPath)
	if f == nil {
		return ""
	}
	rc, err := f.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()
	var types struct {
		Overrides []struct {
			PartName    string `xml:"PartName,attr"`
			ContentType string `xml:"ContentType,attr"`
		} `xml:"Override"`
	}
	if err := xml.NewDecoder(rc).Decode(&types); err != nil {
		return ""
	}
	for _, o := range types.Overrides {
		if o.ContentType == docxMainContentType {
			return strings.TrimPrefix(o.PartName, "/")
		}
	}
	return ""
}

type xmlTextRules struct {
	text      func(local string) bool // character data inside these elements is kept
	paragraph func(local string) bool // a line break follows these elements
	space     func(local string) bool // these empty elements stand for whitespace
}

func xmlText(r io.Reader, rules xmlTextRules) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if rules.text(t.Name.Local) {
				depth++
			}
			if rules.space(t.Name.Local) {
				b.WriteByte(' ')
			}
		case xml.EndElement:
			if rules.text(t.Name.Local) && depth > 0 {
				depth--
			}
			if rules.paragraph(t.Name.Local) {
				b.WriteByte('\n')
			}
		case xml.CharData:
			if depth > 0 {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

func openZip(content []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(strings.NewReader(string(content)), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("not a zip: %w", err)
	}
	return zr, nil
}

func findZipFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}
