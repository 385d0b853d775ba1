package akaifat

import (
	"strings"

	"github.com/samplerfs/akaifat/akaierr"
)

const (
	shortNameLength = 8
	shortExtLength  = 3
)

// illegalShortNameChars is the FAT specification's set of bytes that may
// never appear in an 8.3 name, grounded on original_source's AkaiPart.cpp
// ILLEGAL_CHARS table. The Akai part is checked against its own valid set
// (akaiPartValidChars), not against this table.
var illegalShortNameChars = map[byte]bool{
	0x22: true, 0x2A: true, 0x2B: true, 0x2C: true, 0x2E: true, 0x2F: true,
	0x3A: true, 0x3B: true, 0x3C: true, 0x3D: true, 0x3E: true, 0x3F: true,
	0x5B: true, 0x5C: true, 0x5D: true, 0x7C: true,
}

// ShortName is the 8.3 stem+extension pair stored at offsets [0,11) of a
// directory entry.
type ShortName struct {
	Stem string
	Ext  string
}

// deletedMarker is the byte that, as the first byte of a directory entry,
// marks it deleted. deletedSubstitute is what's written in its place when
// a name's first character really is 0xE5 (spec §4.6, §6 open question:
// the substitution is applied symmetrically on read and write).
const (
	deletedMarker     = 0xE5
	deletedSubstitute = 0x05
)

func isLegalShortNameByte(b byte, first bool) bool {
	if first && b == ' ' {
		return false
	}
	if b < 0x20 {
		return b == deletedSubstitute
	}
	return !illegalShortNameChars[b]
}

// ParseShortName decodes the 11 bytes at entry offsets [0,11).
func ParseShortName(data []byte) (ShortName, error) {
	nameBytes := make([]byte, shortNameLength)
	copy(nameBytes, data[0:shortNameLength])
	if nameBytes[0] == deletedSubstitute {
		nameBytes[0] = deletedMarker
	}

	stem := trimTrailingSpaces(string(nameBytes))
	ext := trimTrailingSpaces(string(data[shortNameLength : shortNameLength+shortExtLength]))

	return ShortName{Stem: stem, Ext: ext}, nil
}

// CanEncodeShortName reports whether stem/ext can be validly serialized.
func CanEncodeShortName(stem, ext string) bool {
	return validateShortNamePart(stem, shortNameLength) == nil &&
		validateShortNamePart(ext, shortExtLength) == nil
}

func validateShortNamePart(part string, maxLen int) error {
	if len(part) > maxLen {
		return akaierr.NameTooLong
	}
	for i := 0; i < len(part); i++ {
		if !isLegalShortNameByte(part[i], i == 0) {
			return akaierr.InvalidName
		}
	}
	return nil
}

// Serialize writes the 11-byte encoded form of n into data[0:11], space
// padded. The leading 0xE5/0x05 substitution (spec §6) is applied here: a
// stem that genuinely starts with 0xE5 is written with 0x05 in its place.
func (n ShortName) Serialize(data []byte) error {
	// "." and ".." are written verbatim: the dot that would otherwise be an
	// illegal short-name character is how every FAT implementation spells
	// these two reserved entries (spec §4.6).
	if !n.IsDotOrDotDot() {
		if err := validateShortNamePart(n.Stem, shortNameLength); err != nil {
			return err
		}
		if err := validateShortNamePart(n.Ext, shortExtLength); err != nil {
			return err
		}
	}

	for i := 0; i < shortNameLength; i++ {
		data[i] = ' '
	}
	for i := 0; i < shortExtLength; i++ {
		data[shortNameLength+i] = ' '
	}

	copy(data[0:shortNameLength], n.Stem)
	copy(data[shortNameLength:shortNameLength+shortExtLength], n.Ext)

	if data[0] == deletedMarker {
		data[0] = deletedSubstitute
	}
	return nil
}

// IsDotOrDotDot reports whether n is the reserved "." or ".." entry name,
// which may not be removed via the public delete path (spec §4.6).
func (n ShortName) IsDotOrDotDot() bool {
	return n.Ext == "" && (n.Stem == "." || n.Stem == "..")
}

func (n ShortName) String() string {
	if n.Ext == "" {
		return n.Stem
	}
	return n.Stem + "." + n.Ext
}

// splitStemAndExt splits a "NAME.EXT" style string on the last dot, without
// validating the parts.
func splitStemAndExt(name string) (stem, ext string) {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return name, ""
	}
	return name[:idx], name[idx+1:]
}
