package metadata

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Format selects the metadata encoding.
type Format uint8

const (
	FormatXML Format = iota
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatJSON:
		return "json"
	}
	return fmt.Sprintf("Format(%d)", f)
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	return "." + f.String()
}

// ParseFormat accepts "xml" or "json", ignoring case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "xml":
		return FormatXML, nil
	case "json":
		return FormatJSON, nil
	}
	return 0, fmt.Errorf("metadata: unknown format %q", s)
}

// Encode writes r to w in the given format.
func (r *Root) Encode(w io.Writer, f Format) error {
	switch f {
	case FormatXML:
		return r.EncodeXML(w)
	case FormatJSON:
		return r.EncodeJSON(w)
	}
	return fmt.Errorf("metadata: unknown format %v", f)
}

// EncodeXML writes the document with an XML declaration and four-space
// indentation.
func (r *Root) EncodeXML(w io.Writer) error {
	if _, err := io.WriteString(w, `<?xml version="1.0" encoding="UTF-8" ?>`+"\n"); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// EncodeJSON writes the document as indented JSON.
func (r *Root) EncodeJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	return nil
}
