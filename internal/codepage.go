package internal

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// codepages maps the caller-facing codepage identifiers to their
// golang.org/x/text encodings. "UTF-8" and "UTF8" are accepted as a
// permissive default: the option really selects the *ANSI* codepage used
// for non-Unicode strings, typically CP-1252 on a real Windows host, but
// plenty of real-world LNK files carry plain ASCII in those fields and
// UTF-8 passthrough handles them without configuration.
var codepages = map[string]encoding.Encoding{
	"cp1252":      charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"1252":        charmap.Windows1252,
	"cp1251":      charmap.Windows1251,
	"windows-1251": charmap.Windows1251,
	"1251":        charmap.Windows1251,
	"cp1250":      charmap.Windows1250,
	"windows-1250": charmap.Windows1250,
	"1250":        charmap.Windows1250,
	"latin1":      charmap.ISO8859_1,
	"iso-8859-1":  charmap.ISO8859_1,
}

// DecodeCodepage decodes raw ANSI bytes under the named codepage. "UTF-8"
// and "UTF8" (case-insensitive) are treated as plain UTF-8/ASCII passthrough;
// any other unrecognized name also falls back to UTF-8 passthrough rather
// than failing the whole decode, since link_info and extra-data ANSI
// strings are best-effort.
func DecodeCodepage(raw []byte, codepage string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(codepage))
	if name == "" || name == "utf-8" || name == "utf8" {
		return string(raw), true
	}
	enc, ok := codepages[name]
	if !ok {
		return string(raw), true
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(out), true
}
