package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cardinventory/internal/core"
)

// render writes v as JSON or YAML, or calls table for the default format.
// YAML goes through the JSON encoding so custom marshalers apply.
func (a *app) render(cmd *cobra.Command, v any, table func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	switch a.output() {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		y, err := yaml.JSONToYAML(data)
		if err != nil {
			return err
		}
		_, err = out.Write(y)
		return err
	default:
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func itemTable(w io.Writer, items []core.Item) {
	fmt.Fprintln(w, "ID\tNAME\tQTY\tPRICE\tSET\tNUMBER\tFOIL\tRARITY")
	for _, it := range items {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, it.Name, it.Quantity, it.Price.StringFixed(2),
			deref(it.SetCode), deref(it.Number), deref(it.Foil), deref(it.Rarity))
	}
}

// rowTable prints canonical rows with the coerced quantity and price.
// Defaulted values are marked with an asterisk.
func rowTable(w io.Writer, rows []core.SessionRow) {
	fmt.Fprintln(w, "#\tNAME\tQTY\tPRICE\tSET\tNUMBER\tFOIL")
	for _, r := range rows {
		item, report := core.CoerceRow(r.Row)
		qty := fmt.Sprint(item.Quantity)
		if report.QuantityDefaulted {
			qty += "*"
		}
		price := item.Price.StringFixed(2)
		if report.PriceDefaulted {
			price += "*"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Index, item.Name, qty, price,
			deref(item.SetCode), deref(item.Number), deref(item.Foil))
	}
}

func headerTable(w io.Writer, hm core.HeaderMap) {
	fmt.Fprintln(w, "FIELD\tSOURCE COLUMN")
	for _, f := range core.CanonicalFields() {
		src, ok := hm.Source(f)
		if !ok {
			src = "(unmatched)"
		}
		fmt.Fprintf(w, "%s\t%s\n", f, src)
	}
}
