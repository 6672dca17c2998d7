package lnk

import (
	"github.com/analyzeDFIR/analyzeLNK-parser/internal"
)

// StringData holds the up-to-five length-prefixed UTF-16LE strings gated
// by header.DataFlags. Strings are always decoded as UTF-16LE regardless
// of header.DataFlags.IsUnicode.
type StringData struct {
	Name             string
	HasName          bool
	RelativePath     string
	HasRelativePath  bool
	WorkingDir       string
	HasWorkingDir    bool
	Arguments        string
	HasArguments     bool
	IconLocation     string
	HasIconLocation  bool
}

// parseStringData reads, in MS-SHLLINK's fixed string-data order, one
// length-prefixed UTF-16LE string per set flag. No re-seek is needed: the
// sub-section is consumed contiguously and a failure decoding one string
// does not affect whether the ones that follow are attempted.
func parseStringData(c *internal.Cursor, flags DataFlags) (*StringData, []error) {
	var warnings []error
	sd := &StringData{}

	read := func(want bool, dst *string, has *bool, field string) {
		if !want {
			return
		}
		s, err := internal.ReadLenPrefixedUTF16(c)
		if err != nil {
			warnings = append(warnings, newDecodeError(TruncatedSection, "string_data."+field, err))
			return
		}
		*dst = s
		*has = true
	}

	read(flags.HasName, &sd.Name, &sd.HasName, "Name")
	read(flags.HasRelativePath, &sd.RelativePath, &sd.HasRelativePath, "RelativePath")
	read(flags.HasWorkingDir, &sd.WorkingDir, &sd.HasWorkingDir, "WorkingDir")
	read(flags.HasArguments, &sd.Arguments, &sd.HasArguments, "Arguments")
	read(flags.HasIconLocation, &sd.IconLocation, &sd.HasIconLocation, "IconLocation")

	return sd, warnings
}

// IsEmpty reports whether no string was read: either none of the five
// flags was set, or every gated string failed to read. StringData is
// absent in both cases.
func (sd *StringData) IsEmpty() bool {
	return !sd.HasName && !sd.HasRelativePath && !sd.HasWorkingDir &&
		!sd.HasArguments && !sd.HasIconLocation
}
