// Package lnk parses the Microsoft Windows Shell Link (LNK) binary file
// format (MS-SHLLINK). It transforms an opaque byte sequence into a typed,
// fully-populated Record suitable for forensic analysis.
//
// Writing LNK files, resolving the referenced target on disk, network I/O,
// a GUI, and full write-path round-trip fidelity are all out of scope; the
// decoder is read-only and tolerant of malformed tails.
package lnk

import (
	"io"
	"log"
	"os"

	"github.com/analyzeDFIR/analyzeLNK-parser/internal"
)

// Record is the fully-decoded Shell Link: a header plus four optional
// sections, produced in one pass and thereafter immutable.
type Record struct {
	Header           *Header
	LinkTargetIDList *IDList
	LinkInfo         *LinkInfo
	StringData       *StringData
	ExtraData        []ExtraDataBlock

	// Warnings collects every advisory condition the decode encountered —
	// a wrong class identifier, a truncated section, a string that failed
	// to decode under the chosen codepage, an unrecognized extra-data
	// signature — without aborting the decode. This keeps the advisory
	// channel inspectable by a non-interactive caller instead of only
	// reaching stderr via log.Printf.
	Warnings []error
}

type options struct {
	codepage string
}

// Option configures Parse/ParseBytes/ParseFile.
type Option func(*options)

// WithCodepage selects the ANSI codepage used to decode non-Unicode
// strings in link_info and extra-data bodies. The default is "UTF-8", a
// permissive passthrough — pass e.g. "cp1252" for real ANSI data.
func WithCodepage(name string) Option {
	return func(o *options) {
		o.codepage = name
	}
}

func resolveOptions(opts []Option) options {
	o := options{codepage: "UTF-8"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ParseFile opens path and parses it as a Shell Link file.
func ParseFile(path string, opts ...Option) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, opts...)
}

// Parse reads all of r and parses it as a Shell Link file. LNK files are
// nominally under 1 MiB, so buffering the whole input keeps every
// section decoder working against simple absolute offsets.
func Parse(r io.Reader, opts ...Option) (*Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseBytes(data, opts...)
}

// ParseBytes parses a Shell Link file already buffered in memory.
func ParseBytes(data []byte, opts ...Option) (*Record, error) {
	o := resolveOptions(opts)
	c := internal.NewCursor(data)

	header, warnings, err := parseHeader(c)
	if err != nil {
		// Only a header decode failure is fatal; every later section is
		// contained at its own boundary.
		return nil, err
	}
	for _, w := range warnings {
		log.Printf("lnk: %v", w)
	}

	rec := &Record{Header: header, Warnings: warnings}

	if header.DataFlags.HasLinkTargetIDList {
		idlist, err := parseLinkTargetIDList(c)
		if err != nil {
			rec.Warnings = append(rec.Warnings, err)
			log.Printf("lnk: %v", err)
		} else {
			rec.LinkTargetIDList = idlist
		}
	}

	if header.DataFlags.HasLinkInfo {
		info, infoWarnings := parseLinkInfo(c, o.codepage)
		rec.LinkInfo = info
		rec.Warnings = append(rec.Warnings, infoWarnings...)
		for _, w := range infoWarnings {
			log.Printf("lnk: %v", w)
		}
	}

	sd, sdWarnings := parseStringData(c, header.DataFlags)
	rec.Warnings = append(rec.Warnings, sdWarnings...)
	for _, w := range sdWarnings {
		log.Printf("lnk: %v", w)
	}
	if !sd.IsEmpty() {
		rec.StringData = sd
	}

	blocks, edWarnings := parseExtraData(c, o.codepage)
	rec.ExtraData = blocks
	rec.Warnings = append(rec.Warnings, edWarnings...)
	for _, w := range edWarnings {
		log.Printf("lnk: %v", w)
	}

	return rec, nil
}
