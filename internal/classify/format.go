// Package classify identifies which winery dataset a loosely typed record
// came from and decodes it into the matching typed variant.
package classify

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Format tags the source-data shape of a raw winery record.
type Format string

const (
	FormatNapa        Format = "napa"
	FormatWineRelease Format = "wine_release"
	FormatLivermore   Format = "livermore"
)

// ErrUnrecognizedFormat is matched by every *UnrecognizedFormatError.
var ErrUnrecognizedFormat = errors.New("classify: unrecognized winery format")

// UnrecognizedFormatError reports a record whose field set fits none of the
// known dataset shapes.
type UnrecognizedFormatError struct {
	Name   string
	Fields []string
}

func (e *UnrecognizedFormatError) Error() string {
	return fmt.Sprintf("classify: unrecognized winery format for %q (fields: %s)",
		e.Name, strings.Join(e.Fields, ", "))
}

func (e *UnrecognizedFormatError) Unwrap() error {
	return ErrUnrecognizedFormat
}

// Classify returns the dataset shape of raw. Rules are evaluated in order and
// the first match wins; the field sets of the three shapes overlap.
func Classify(raw map[string]any) (Format, error) {
	switch {
	case has(raw, "description") || (has(raw, "country") && has(raw, "region") && !has(raw, "state")):
		return FormatLivermore, nil
	case (has(raw, "phone") || has(raw, "address")) && !has(raw, "country"):
		return FormatNapa, nil
	case has(raw, "country") && has(raw, "state"):
		return FormatWineRelease, nil
	}

	name, _ := raw["name"].(string)
	return "", &UnrecognizedFormatError{Name: name, Fields: presentFields(raw)}
}

// has reports whether key is present with a usable value. Nulls and
// blank strings count as absent.
func has(raw map[string]any, key string) bool {
	v, ok := raw[key]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

func presentFields(raw map[string]any) []string {
	fields := make([]string, 0, len(raw))
	for k := range raw {
		if has(raw, k) {
			fields = append(fields, k)
		}
	}
	sort.Strings(fields)
	return fields
}
