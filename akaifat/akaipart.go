package akaifat

import (
	"strings"

	"github.com/samplerfs/akaifat/akaierr"
)

const akaiPartLength = 8

// akaiPartValidChars is the printable-ASCII subset the Akai part may use,
// transcribed from original_source's AkaiPart.cpp validChars table.
var akaiPartValidChars = buildAkaiPartValidSet()

func buildAkaiPartValidSet() [256]bool {
	var set [256]bool
	set[' '] = true
	for _, c := range "!#$%&'()-" {
		set[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		set[c] = true
	}
	set['@'] = true
	for c := 'A'; c <= 'Z'; c++ {
		set[c] = true
	}
	set['_'] = true
	for c := 'a'; c <= 'z'; c++ {
		set[c] = true
	}
	for _, c := range "{}~" {
		set[c] = true
	}
	return set
}

func isValidAkaiPartByte(b byte) bool {
	return akaiPartValidChars[b]
}

// IsValidAkaiPart reports whether every byte of s is in the Akai part's
// valid character set.
func IsValidAkaiPart(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isValidAkaiPartByte(s[i]) {
			return false
		}
	}
	return true
}

// ParseAkaiPart decodes the 8 bytes at entry offsets [12,20). If any byte
// falls outside the valid character set, the whole part is treated as blank
// (spec §4.7) rather than rejected — the field is advisory name extension,
// not validated the way the 8.3 stem is. A valid part is returned with its
// trailing space padding removed, so it round-trips with SerializeAkaiPart.
func ParseAkaiPart(data []byte) string {
	raw := string(data[:akaiPartLength])
	if !IsValidAkaiPart(raw) {
		return strings.Repeat(" ", akaiPartLength)
	}
	return trimTrailingSpaces(raw)
}

// SerializeAkaiPart writes part, space padded to 8 bytes, into data[0:8],
// matching ParseAkaiPart's own indexing — callers pass a buffer already
// sliced to the entry's Akai-part offset. part must be no more than 8
// characters and use only valid Akai-part characters.
func SerializeAkaiPart(part string, data []byte) error {
	if len(part) > akaiPartLength {
		return akaierr.NameTooLong
	}
	if !IsValidAkaiPart(part) {
		return akaierr.InvalidName
	}

	for i := 0; i < akaiPartLength; i++ {
		data[i] = ' '
	}
	copy(data[:akaiPartLength], part)
	return nil
}
