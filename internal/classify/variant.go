package classify

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/rotisserie/eris"

	"github.com/cellar-app/cellar/internal/model"
)

// Defaults supplies the location strings substituted when a dataset omits them.
type Defaults struct {
	Country         string
	NapaRegion      string
	LivermoreRegion string
}

// StandardDefaults returns the defaults used by the bundled datasets.
func StandardDefaults() Defaults {
	return Defaults{
		Country:         "United States",
		NapaRegion:      "Napa Valley",
		LivermoreRegion: "Livermore Valley",
	}
}

// Source is a winery record decoded into exactly one dataset variant.
type Source interface {
	Format() Format
	Record(d Defaults) model.WineryRecord
}

// NapaWinery is a row from the Napa Valley directory: contact details, no country.
type NapaWinery struct {
	Name    string `mapstructure:"name" validate:"required"`
	Address string `mapstructure:"address"`
	City    string `mapstructure:"city"`
	Region  string `mapstructure:"region"`
	Phone   string `mapstructure:"phone"`
	Website string `mapstructure:"website"`
}

func (NapaWinery) Format() Format { return FormatNapa }

func (w NapaWinery) Record(d Defaults) model.WineryRecord {
	return model.WineryRecord{
		Name:    w.Name,
		Address: optional(w.Address),
		City:    optional(w.City),
		Region:  orDefault(w.Region, d.NapaRegion),
		Country: d.Country,
		Phone:   optional(w.Phone),
		Website: optional(w.Website),
	}
}

// WineReleaseWinery is a row from the wine-release feed, located by country and state.
type WineReleaseWinery struct {
	Name    string `mapstructure:"name" validate:"required"`
	Address string `mapstructure:"address"`
	City    string `mapstructure:"city"`
	State   string `mapstructure:"state" validate:"required"`
	Region  string `mapstructure:"region"`
	Country string `mapstructure:"country" validate:"required"`
	Phone   string `mapstructure:"phone"`
	Website string `mapstructure:"website"`
}

func (WineReleaseWinery) Format() Format { return FormatWineRelease }

func (w WineReleaseWinery) Record(_ Defaults) model.WineryRecord {
	return model.WineryRecord{
		Name:    w.Name,
		Address: optional(w.Address),
		City:    optional(w.City),
		Region:  orDefault(w.Region, strings.TrimSpace(w.State)),
		Country: strings.TrimSpace(w.Country),
		Phone:   optional(w.Phone),
		Website: optional(w.Website),
	}
}

// LivermoreWinery is a row from the Livermore Valley guide, usually with a description.
type LivermoreWinery struct {
	Name        string `mapstructure:"name" validate:"required"`
	Description string `mapstructure:"description"`
	Address     string `mapstructure:"address"`
	City        string `mapstructure:"city"`
	Region      string `mapstructure:"region"`
	Country     string `mapstructure:"country"`
	Phone       string `mapstructure:"phone"`
	Website     string `mapstructure:"website"`
}

func (LivermoreWinery) Format() Format { return FormatLivermore }

func (w LivermoreWinery) Record(d Defaults) model.WineryRecord {
	return model.WineryRecord{
		Name:        w.Name,
		Address:     optional(w.Address),
		City:        optional(w.City),
		Region:      orDefault(w.Region, d.LivermoreRegion),
		Country:     orDefault(w.Country, d.Country),
		Phone:       optional(w.Phone),
		Website:     optional(w.Website),
		Description: optional(w.Description),
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse classifies raw and decodes it into the matching variant.
func Parse(raw map[string]any) (Source, error) {
	format, err := Classify(raw)
	if err != nil {
		return nil, err
	}

	var src Source
	switch format {
	case FormatNapa:
		src = &NapaWinery{}
	case FormatWineRelease:
		src = &WineReleaseWinery{}
	case FormatLivermore:
		src = &LivermoreWinery{}
	}

	if err := decode(raw, src); err != nil {
		return nil, eris.Wrapf(err, "classify: decode %s record", format)
	}
	if err := validate.Struct(src); err != nil {
		return nil, eris.Wrapf(err, "classify: validate %s record", format)
	}
	return src, nil
}

func decode(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return eris.Wrap(err, "create decoder")
	}
	return dec.Decode(raw)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
