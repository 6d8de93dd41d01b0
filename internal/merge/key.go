package merge

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/cellar-app/cellar/internal/model"
)

// KeyMode selects which fields form a wine's identity key.
type KeyMode int

const (
	// KeyNameVintage identifies wines by name and vintage.
	KeyNameVintage KeyMode = iota
	// KeyNameVineyard identifies wines by name and vineyard.
	KeyNameVineyard
)

// NonVintage stands in for an absent vintage in identity keys.
const NonVintage = "nv"

func (m KeyMode) String() string {
	switch m {
	case KeyNameVineyard:
		return "name_vineyard"
	default:
		return "name_vintage"
	}
}

// ParseKeyMode parses the config/flag spelling of a key mode.
func ParseKeyMode(s string) (KeyMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "name_vintage":
		return KeyNameVintage, nil
	case "name_vineyard":
		return KeyNameVineyard, nil
	default:
		return 0, eris.Errorf("merge: unknown key mode %q", s)
	}
}

// Key returns the identity key of r under mode.
func Key(r model.WineRecord, mode KeyMode) string {
	name := normalize(r.Name)
	if mode == KeyNameVineyard {
		return name + "|" + normalize(r.Vineyard)
	}
	return name + "|" + VintageLabel(r.Vintage)
}

// VintageLabel renders a vintage for keys and slugs.
func VintageLabel(v *int) string {
	if v == nil {
		return NonVintage
	}
	return strconv.Itoa(*v)
}

// normalize trims, composes accents and lower-cases s so that "Rosé" typed
// with a combining accent keys the same as its precomposed form.
func normalize(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	return cases.Lower(language.Und).String(s)
}
