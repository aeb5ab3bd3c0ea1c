package catalog

import "strings"

// DifficultyCodes maps difficulty display names to the upstream numeric
// codes. The zero value is not usable; construct via DefaultDifficultyCodes.
type DifficultyCodes struct {
	codes map[string]int
}

// DefaultDifficultyCodes returns the fixed difficulty table.
func DefaultDifficultyCodes() DifficultyCodes {
	return DifficultyCodes{codes: map[string]int{
		"normal": 3,
		"heroic": 4,
		"mythic": 5,
	}}
}

// MythicCode is the hardest known difficulty code, used as the fallback for
// unknown difficulty names. A deliberate default, not an error.
const MythicCode = 5

// Code returns the numeric code for a difficulty display name
// (case-insensitive). Unknown names map to mythic.
func (d DifficultyCodes) Code(name string) int {
	if code, ok := d.codes[strings.ToLower(name)]; ok {
		return code
	}
	return MythicCode
}

// RegionCodes maps region display names to upstream server-region codes.
type RegionCodes struct {
	codes map[string]string
}

// DefaultRegionCodes returns the fixed region table.
func DefaultRegionCodes() RegionCodes {
	return RegionCodes{codes: map[string]string{
		"europe":        "eu",
		"united states": "us",
	}}
}

// Code returns the server-region code for a region display name
// (case-insensitive). Unknown names map to "eu".
func (r RegionCodes) Code(name string) string {
	if code, ok := r.codes[strings.ToLower(name)]; ok {
		return code
	}
	return "eu"
}
