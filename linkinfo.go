package lnk

import (
	"github.com/analyzeDFIR/analyzeLNK-parser/internal"
)

const linkInfoUnicodeHeaderSize = 0x24

// VolumeID is the volume information embedded in LinkInfo when
// Flags.VolumeIDAndLocalBasePath is set (MS-SHLLINK §2.3 VolumeID).
type VolumeID struct {
	Size              uint32
	DriveType         uint32
	SerialNumber      uint32
	VolumeLabelOffset uint32
	// UVolumeLabelOffset is only meaningful when VolumeLabelOffset == 0x14,
	// the sentinel that selects the Unicode volume label.
	UVolumeLabelOffset uint32
	VolumeLabel        string
}

// NetworkShareInfo is the network-share information embedded in LinkInfo
// when Flags.CommonNetworkRelativeLinkAndPathSuffix is set (MS-SHLLINK §2.4
// CommonNetworkRelativeLink).
type NetworkShareInfo struct {
	Size                uint32
	ValidDevice         bool
	ShareNameOffset     uint32
	UShareNameOffset    *uint32
	DeviceNameOffset    uint32
	UDeviceNameOffset   *uint32
	NetworkProviderType uint32
	ShareName           string
	DeviceName          string
}

// LinkInfo is the offset-table structure describing the target's volume
// and local path, or its network share (MS-SHLLINK §2.3 LinkInfo).
type LinkInfo struct {
	Size                                   uint32
	HeaderSize                             uint32
	VolumeIDAndLocalBasePath               bool
	CommonNetworkRelativeLinkAndPathSuffix bool
	VolumeIDOffset                         uint32
	LocalBasePathOffset                    uint32
	CommonNetworkRelativeLinkOffset        uint32
	CommonPathSuffixOffset                 uint32
	ULocalBasePathOffset                   uint32
	UCommonPathSuffixOffset                uint32

	CommonPathSuffix          string
	VolumeID                  *VolumeID
	LocalBasePath             string
	CommonNetworkRelativeLink *NetworkShareInfo
}

// parseLinkInfo decodes the link_info section starting at the cursor's
// current position, guarded by header.DataFlags.HasLinkInfo (MS-SHLLINK
// §2.3). Failures resolving the common path suffix, volume ID, or network
// share are captured as warnings and do not abort the decode; the
// scope-guard invariant (seek to pos0 + Size on return) always applies.
func parseLinkInfo(c *internal.Cursor, codepage string) (*LinkInfo, []error) {
	var warnings []error
	pos0 := c.Position()

	info := &LinkInfo{}
	var err error
	if info.Size, err = internal.ReadU32LE(c); err != nil {
		return nil, []error{newDecodeError(TruncatedSection, "link_info", err)}
	}
	if info.HeaderSize, err = internal.ReadU32LE(c); err != nil {
		warnings = append(warnings, newDecodeError(TruncatedSection, "link_info", err))
		_ = c.Seek(clampSeek(pos0+int64(info.Size), c.Length()))
		return nil, warnings
	}

	var flags uint32
	if flags, err = internal.ReadU32LE(c); err != nil {
		warnings = append(warnings, newDecodeError(TruncatedSection, "link_info", err))
		_ = c.Seek(clampSeek(pos0+int64(info.Size), c.Length()))
		return nil, warnings
	}
	info.VolumeIDAndLocalBasePath = flags&0x1 != 0
	info.CommonNetworkRelativeLinkAndPathSuffix = flags&0x2 != 0

	for _, dst := range []*uint32{
		&info.VolumeIDOffset, &info.LocalBasePathOffset,
		&info.CommonNetworkRelativeLinkOffset, &info.CommonPathSuffixOffset,
	} {
		if *dst, err = internal.ReadU32LE(c); err != nil {
			warnings = append(warnings, newDecodeError(TruncatedSection, "link_info", err))
			_ = c.Seek(clampSeek(pos0+int64(info.Size), c.Length()))
			return nil, warnings
		}
	}

	unicodePresent := info.HeaderSize >= linkInfoUnicodeHeaderSize
	if unicodePresent {
		if info.ULocalBasePathOffset, err = internal.ReadU32LE(c); err != nil {
			unicodePresent = false
		} else if info.UCommonPathSuffixOffset, err = internal.ReadU32LE(c); err != nil {
			unicodePresent = false
		}
	}

	// Common path suffix, ANSI or Unicode depending on HeaderSize.
	if unicodePresent {
		s, ok := internal.ReadCStringAt(c, pos0+int64(info.UCommonPathSuffixOffset), "UTF-8")
		if ok {
			info.CommonPathSuffix = s
		} else {
			warnings = append(warnings, newDecodeError(DecodeFailure, "link_info.CommonPathSuffix", nil))
		}
	} else {
		s, ok := internal.ReadCStringAt(c, pos0+int64(info.CommonPathSuffixOffset), codepage)
		if ok {
			info.CommonPathSuffix = s
		} else {
			warnings = append(warnings, newDecodeError(DecodeFailure, "link_info.CommonPathSuffix", nil))
		}
	}

	// Volume ID and local base path, present only for a local target.
	if info.VolumeIDAndLocalBasePath {
		vol, volWarnings := parseVolumeID(c, pos0, info.VolumeIDOffset, codepage)
		warnings = append(warnings, volWarnings...)
		info.VolumeID = vol

		if unicodePresent {
			s, ok := internal.ReadCStringAt(c, pos0+int64(info.ULocalBasePathOffset), "UTF-8")
			if ok {
				info.LocalBasePath = s
			} else {
				warnings = append(warnings, newDecodeError(DecodeFailure, "link_info.LocalBasePath", nil))
			}
		} else {
			s, ok := internal.ReadCStringAt(c, pos0+int64(info.LocalBasePathOffset), codepage)
			if ok {
				info.LocalBasePath = s
			} else {
				warnings = append(warnings, newDecodeError(DecodeFailure, "link_info.LocalBasePath", nil))
			}
		}
	}

	// Common network relative link, present only for a UNC target.
	if info.CommonNetworkRelativeLinkAndPathSuffix {
		share, shareWarnings := parseNetworkShareInfo(c, pos0, info.CommonNetworkRelativeLinkOffset, codepage)
		warnings = append(warnings, shareWarnings...)
		info.CommonNetworkRelativeLink = share
	}

	_ = c.Seek(clampSeek(pos0+int64(info.Size), c.Length()))
	return info, warnings
}

func parseVolumeID(c *internal.Cursor, pos0 int64, volumeIDOffset uint32, codepage string) (*VolumeID, []error) {
	var warnings []error
	if err := c.Seek(pos0 + int64(volumeIDOffset)); err != nil {
		return nil, []error{newDecodeError(TruncatedSection, "link_info.VolumeID", err)}
	}

	vol := &VolumeID{}
	var err error
	if vol.Size, err = internal.ReadU32LE(c); err != nil {
		return nil, []error{newDecodeError(TruncatedSection, "link_info.VolumeID", err)}
	}
	if vol.DriveType, err = internal.ReadU32LE(c); err != nil {
		return vol, append(warnings, newDecodeError(TruncatedSection, "link_info.VolumeID", err))
	}
	if vol.SerialNumber, err = internal.ReadU32LE(c); err != nil {
		return vol, append(warnings, newDecodeError(TruncatedSection, "link_info.VolumeID", err))
	}
	if vol.VolumeLabelOffset, err = internal.ReadU32LE(c); err != nil {
		return vol, append(warnings, newDecodeError(TruncatedSection, "link_info.VolumeID", err))
	}

	const volumeLabelUnicodeSentinel = 0x14
	if vol.VolumeLabelOffset == volumeLabelUnicodeSentinel {
		if vol.UVolumeLabelOffset, err = internal.ReadU32LE(c); err != nil {
			warnings = append(warnings, newDecodeError(TruncatedSection, "link_info.VolumeID", err))
		}
		s, ok := internal.ReadCStringAt(c, pos0+int64(volumeIDOffset)+int64(vol.UVolumeLabelOffset), "UTF-8")
		if ok {
			vol.VolumeLabel = s
		} else {
			warnings = append(warnings, newDecodeError(DecodeFailure, "link_info.VolumeID.VolumeLabel", nil))
		}
	} else {
		s, ok := internal.ReadCStringAt(c, pos0+int64(volumeIDOffset)+int64(vol.VolumeLabelOffset), codepage)
		if ok {
			vol.VolumeLabel = s
		} else {
			warnings = append(warnings, newDecodeError(DecodeFailure, "link_info.VolumeID.VolumeLabel", nil))
		}
	}
	return vol, warnings
}

func parseNetworkShareInfo(c *internal.Cursor, pos0 int64, shareOffset uint32, codepage string) (*NetworkShareInfo, []error) {
	var warnings []error
	if err := c.Seek(pos0 + int64(shareOffset)); err != nil {
		return nil, []error{newDecodeError(TruncatedSection, "link_info.CommonNetworkRelativeLink", err)}
	}

	share := &NetworkShareInfo{}
	var err error
	if share.Size, err = internal.ReadU32LE(c); err != nil {
		return nil, []error{newDecodeError(TruncatedSection, "link_info.CommonNetworkRelativeLink", err)}
	}
	var flags uint32
	if flags, err = internal.ReadU32LE(c); err != nil {
		return share, append(warnings, newDecodeError(TruncatedSection, "link_info.CommonNetworkRelativeLink", err))
	}
	share.ValidDevice = flags&0x1 != 0
	hasValidNetType := flags&0x2 != 0

	if share.ShareNameOffset, err = internal.ReadU32LE(c); err != nil {
		return share, append(warnings, newDecodeError(TruncatedSection, "link_info.CommonNetworkRelativeLink", err))
	}
	if share.DeviceNameOffset, err = internal.ReadU32LE(c); err != nil {
		return share, append(warnings, newDecodeError(TruncatedSection, "link_info.CommonNetworkRelativeLink", err))
	}
	if share.NetworkProviderType, err = internal.ReadU32LE(c); err != nil {
		return share, append(warnings, newDecodeError(TruncatedSection, "link_info.CommonNetworkRelativeLink", err))
	}
	if !hasValidNetType {
		share.NetworkProviderType = 0
	}

	if share.ShareNameOffset > 0x14 {
		u, err := internal.ReadU32LE(c)
		if err == nil {
			share.UShareNameOffset = &u
		}
	}
	if share.ValidDevice && share.DeviceNameOffset > 0x14 {
		u, err := internal.ReadU32LE(c)
		if err == nil {
			share.UDeviceNameOffset = &u
		}
	}

	if share.UShareNameOffset != nil {
		s, ok := internal.ReadCStringAt(c, pos0+int64(shareOffset)+int64(*share.UShareNameOffset), "UTF-8")
		if ok {
			share.ShareName = s
		} else {
			warnings = append(warnings, newDecodeError(DecodeFailure, "link_info.CommonNetworkRelativeLink.ShareName", nil))
		}
	} else {
		s, ok := internal.ReadCStringAt(c, pos0+int64(shareOffset)+int64(share.ShareNameOffset), codepage)
		if ok {
			share.ShareName = s
		} else {
			warnings = append(warnings, newDecodeError(DecodeFailure, "link_info.CommonNetworkRelativeLink.ShareName", nil))
		}
	}

	if share.ValidDevice {
		if share.UDeviceNameOffset != nil {
			s, ok := internal.ReadCStringAt(c, pos0+int64(shareOffset)+int64(*share.UDeviceNameOffset), "UTF-8")
			if ok {
				share.DeviceName = s
			} else {
				warnings = append(warnings, newDecodeError(DecodeFailure, "link_info.CommonNetworkRelativeLink.DeviceName", nil))
			}
		} else {
			s, ok := internal.ReadCStringAt(c, pos0+int64(shareOffset)+int64(share.DeviceNameOffset), codepage)
			if ok {
				share.DeviceName = s
			} else {
				warnings = append(warnings, newDecodeError(DecodeFailure, "link_info.CommonNetworkRelativeLink.DeviceName", nil))
			}
		}
	}

	return share, warnings
}
