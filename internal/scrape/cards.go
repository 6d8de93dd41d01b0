// Package scrape captures wine cards from retailer pages with a headless
// browser and normalizes them into wine records.
package scrape

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cellar-app/cellar/internal/model"
	"github.com/cellar-app/cellar/internal/source"
)

// Card holds the raw strings read from one product card on a page.
type Card struct {
	Title    string `json:"title"`
	Vineyard string `json:"vineyard"`
	Varietal string `json:"varietal"`
	Region   string `json:"region"`
	Country  string `json:"country"`
	Price    string `json:"price"`
	Rating   string `json:"rating"`
	Reviews  string `json:"reviews"`
	Image    string `json:"image"`
	URL      string `json:"url"`
}

var (
	// vintageRegexp matches a plausible vintage year as a standalone word.
	vintageRegexp = regexp.MustCompile(`\b(19[0-9]{2}|20[0-9]{2})\b`)
	// nvRegexp matches the non-vintage marker.
	nvRegexp = regexp.MustCompile(`(?i)\bN\.?V\.?(\s|$)`)
	// ratingRegexp captures a numeric rating in the 0.0–5.0 range.
	ratingRegexp = regexp.MustCompile(`\b([0-5](?:\.\d{1,2})?)\b`)
	spaceRegexp  = regexp.MustCompile(`\s+`)
)

// ParseCards turns raw cards into wine records. Cards without a title are
// dropped, as are repeats of a product URL already seen on the page.
func ParseCards(cards []Card) []model.WineRecord {
	seen := make(map[string]struct{})
	out := make([]model.WineRecord, 0, len(cards))

	for _, c := range cards {
		name, vintage := splitVintage(c.Title)
		if name == "" {
			continue
		}
		if u := strings.TrimSpace(c.URL); u != "" {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
		}

		rec := model.WineRecord{
			Name:     name,
			Vineyard: normaliseText(c.Vineyard),
			Varietal: normaliseText(c.Varietal),
			Region:   normaliseText(c.Region),
			Country:  normaliseText(c.Country),
			Vintage:  vintage,
			Price:    parsePrice(c.Price),
			Rating:   parseRating(c.Rating),
		}
		if n, ok := source.ParseNumber(c.Reviews); ok && n >= 0 {
			rec.RatingCount = model.Ptr(int(n))
		}
		if img := strings.TrimSpace(c.Image); img != "" {
			rec.Image = &img
		}
		out = append(out, rec)
	}
	return out
}

// splitVintage removes the vintage year from a card title. Titles marked
// NV, or with no year, have no vintage.
func splitVintage(title string) (string, *int) {
	title = normaliseText(title)
	if loc := nvRegexp.FindStringIndex(title); loc != nil {
		return normaliseText(title[:loc[0]] + " " + title[loc[1]:]), nil
	}

	matches := vintageRegexp.FindAllStringIndex(title, -1)
	if len(matches) == 0 {
		return title, nil
	}
	last := matches[len(matches)-1]
	year, err := strconv.Atoi(title[last[0]:last[1]])
	if err != nil {
		return title, nil
	}
	return normaliseText(title[:last[0]] + " " + title[last[1]:]), &year
}

func parsePrice(raw string) *float64 {
	f, ok := source.ParseNumber(raw)
	if !ok || f <= 0 {
		return nil
	}
	return &f
}

func parseRating(raw string) *float64 {
	match := ratingRegexp.FindStringSubmatch(raw)
	if len(match) < 2 {
		return nil
	}
	val, err := strconv.ParseFloat(match[1], 64)
	if err != nil || val < 0 || val > 5 {
		return nil
	}
	return &val
}

func normaliseText(s string) string {
	return strings.TrimSpace(spaceRegexp.ReplaceAllString(s, " "))
}
