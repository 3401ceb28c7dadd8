package stats

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rileyhilliard/livecharts/internal/errors"
)

// dualSeparator splits the two halves of MemUsage, NetIO and BlockIO.
const dualSeparator = " / "

// multipliers maps the size suffixes docker prints to their byte factor.
// Decimal and binary prefixes are distinct.
var multipliers = map[string]float64{
	"kB":  1e3,
	"KiB": 1024,
	"MB":  1e6,
	"MiB": 1024 * 1024,
	"GB":  1e9,
	"GiB": 1024 * 1024 * 1024,
	"TB":  1e12,
	"TiB": 1024 * 1024 * 1024 * 1024,
}

// ParsePercent parses text like "12.50%". "--" parses to 0.
func ParsePercent(text string) (float64, error) {
	if text == Unavailable {
		return 0, nil
	}

	number, _, _ := strings.Cut(text, "%")
	value, err := strconv.ParseFloat(strings.TrimSpace(number), 64)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrParse,
			fmt.Sprintf("Can't parse percentage %q", text), "")
	}
	return value, nil
}

// ParseDualQuantity parses text like "10MiB / 5MiB" into two byte counts.
// "--" parses to (0, 0).
func ParseDualQuantity(text string) (float64, float64, error) {
	if text == Unavailable {
		return 0, 0, nil
	}

	parts := strings.Split(text, dualSeparator)
	if len(parts) != 2 {
		return 0, 0, errors.New(errors.ErrParse,
			fmt.Sprintf("Can't parse quantity pair %q", text),
			fmt.Sprintf("Expected two values separated by %q", dualSeparator))
	}

	first, err := ConvertToBytes(parts[0])
	if err != nil {
		return 0, 0, err
	}
	second, err := ConvertToBytes(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return first, second, nil
}

// ConvertToBytes parses a size like "1.5MiB" or "2GB" into bytes.
// The number runs up to the first letter and the unit is the letter run after it.
// A missing or unknown unit leaves the number as is. "--" parses to 0.
func ConvertToBytes(text string) (float64, error) {
	if text == Unavailable {
		return 0, nil
	}

	number, unit := splitUnit(text)
	value, err := strconv.ParseFloat(strings.TrimSpace(number), 64)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrParse,
			fmt.Sprintf("Can't parse size %q", text), "")
	}

	if m, ok := multipliers[unit]; ok {
		return value * m, nil
	}
	return value, nil
}

// splitUnit returns the text before the first letter and the run of letters
// starting there.
func splitUnit(text string) (string, string) {
	start := strings.IndexFunc(text, func(r rune) bool { return r < 0x80 && isASCIILetter(byte(r)) })
	if start < 0 {
		return text, ""
	}
	end := start
	for end < len(text) && isASCIILetter(text[end]) {
		end++
	}
	return text[:start], text[start:end]
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
