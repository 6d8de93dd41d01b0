package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/cellar-app/cellar/internal/merge"
	"github.com/cellar-app/cellar/internal/model"
	"github.com/cellar-app/cellar/internal/store"
)

var winesCmd = &cobra.Command{
	Use:   "wines",
	Short: "Browse seeded wines",
}

var (
	winesFilter store.WineFilter
	winesJSON   bool
)

var winesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wines in the catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		wines, err := st.ListWines(ctx, winesFilter)
		if err != nil {
			return eris.Wrap(err, "list wines")
		}

		if winesJSON {
			return writeWinesJSON(os.Stdout, wines)
		}

		if len(wines) == 0 {
			fmt.Println("No wines found.")
			return nil
		}
		formatWinesList(os.Stdout, wines)
		return nil
	},
}

func init() {
	f := winesListCmd.Flags()
	f.StringVar(&winesFilter.Varietal, "varietal", "", "filter by varietal")
	f.StringVar(&winesFilter.Country, "country", "", "filter by country")
	f.StringVar(&winesFilter.Region, "region", "", "filter by region")
	f.StringVar(&winesFilter.WineryID, "winery-id", "", "filter by winery ID")
	f.StringVar(&winesFilter.Search, "search", "", "case-insensitive name search")
	f.Float64Var(&winesFilter.MinRating, "min-rating", 0, "minimum rating")
	f.StringVar(&winesFilter.Sort, "sort", "name", "sort by name, rating, price or vintage (prefix - for descending)")
	f.IntVar(&winesFilter.Limit, "limit", 20, "max wines to show")
	f.IntVar(&winesFilter.Offset, "offset", 0, "wines to skip")
	f.BoolVar(&winesJSON, "json", false, "print JSON instead of a table")

	winesCmd.AddCommand(winesListCmd)
	rootCmd.AddCommand(winesCmd)
}

// writeWinesJSON prints wines as an indented JSON array; an empty catalog
// prints [] as the API does.
func writeWinesJSON(w io.Writer, wines []model.Wine) error {
	if wines == nil {
		wines = []model.Wine{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(wines), "write wines json")
}

func formatWinesList(w io.Writer, wines []model.Wine) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tVINTAGE\tVARIETAL\tREGION\tRATING\tPRICE\tLINKED")
	_, _ = fmt.Fprintln(tw, "----\t-------\t--------\t------\t------\t-----\t------")

	for _, wine := range wines {
		linked := "no"
		if wine.WineryID != nil {
			linked = "yes"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(wine.Name, 40),
			merge.VintageLabel(wine.Vintage),
			dash(wine.Varietal),
			dash(wine.Region),
			optFloat(wine.Rating, "%.1f"),
			optFloat(wine.Price, "$%.2f"),
			linked,
		)
	}
	_ = tw.Flush()
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func optFloat(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}
