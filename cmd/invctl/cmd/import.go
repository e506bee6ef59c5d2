package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cardinventory/internal/client"
	"github.com/JonMunkholm/cardinventory/internal/core"
)

// localPreview is what preview shows for a file parsed on this machine.
type localPreview struct {
	File      string            `json:"file"`
	Headers   core.HeaderMap    `json:"headers"`
	Unmatched []core.Field      `json:"unmatched"`
	TotalRows int               `json:"total_rows"`
	Defaulted int               `json:"defaulted"`
	Rows      []core.SessionRow `json:"rows"`
}

func buildPreview(file string, r io.Reader, synonyms core.SynonymTable, limit int) (localPreview, error) {
	table, err := core.ParseCSV(r)
	if err != nil {
		return localPreview{}, err
	}
	hm := core.MatchHeaders(table.Headers, synonyms)
	rows := core.CanonicalizeAll(table.Rows, hm)

	p := localPreview{
		File:      file,
		Headers:   hm,
		Unmatched: hm.Unmatched(),
		TotalRows: len(rows),
		Rows:      []core.SessionRow{},
	}
	for i, row := range rows {
		_, report := core.CoerceRow(row)
		if report.Defaulted() {
			p.Defaulted++
		}
		if limit <= 0 || i < limit {
			p.Rows = append(p.Rows, core.SessionRow{Index: i, Row: row, Report: report})
		}
	}
	return p, nil
}

func (a *app) previewCommand() *cobra.Command {
	var (
		synonymsFile string
		limit        int
	)
	cmd := &cobra.Command{
		Use:     "preview FILE",
		Short:   "Match headers and coerce rows of a CSV without contacting the server",
		GroupID: "import",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			synonyms := core.DefaultSynonyms()
			if synonymsFile != "" {
				var err error
				if synonyms, err = core.LoadSynonymsFile(synonymsFile); err != nil {
					return err
				}
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			p, err := buildPreview(filepath.Base(args[0]), f, synonyms, limit)
			if err != nil {
				return report(cmd, err)
			}
			return a.render(cmd, p, func(w io.Writer) {
				headerTable(w, p.Headers)
				fmt.Fprintln(w)
				rowTable(w, p.Rows)
				fmt.Fprintf(w, "\n%d rows, %d with defaulted values (*)\n", p.TotalRows, p.Defaulted)
			})
		},
	}
	cmd.Flags().StringVar(&synonymsFile, "synonyms", "", "YAML file overriding header synonyms")
	cmd.Flags().IntVar(&limit, "limit", core.DefaultPreviewRowLimit, "rows to display (0 for all)")
	return cmd
}

func (a *app) importCommand() *cobra.Command {
	var dryRun, direct bool
	var sessionID string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Stage a CSV on the server, show the review and commit it",
		Long: `import uploads FILE to a staging session on the server, prints the
matched headers and the staged rows, then commits the session.

With --session the upload replaces every row of a session that is still
open, such as one kept after a failed commit. With --dry-run the session is
discarded instead of committed. With --direct the rows are matched and
coerced locally and sent as one batch.`,
		GroupID: "import",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := a.client()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			name := filepath.Base(args[0])

			if direct {
				p, err := buildPreview(name, f, core.DefaultSynonyms(), 0)
				if err != nil {
					return report(cmd, err)
				}
				rows := make([]core.CanonicalRow, len(p.Rows))
				for i, r := range p.Rows {
					rows[i] = r.Row
				}
				result, err := c.ImportItems(ctx, core.BuildNewItems(rows))
				if err != nil {
					return report(cmd, err)
				}
				return a.renderResult(cmd, result)
			}

			var session *client.Session
			if sessionID != "" {
				session, err = c.ReplaceSession(ctx, sessionID, name, f)
			} else {
				session, err = c.Stage(ctx, name, f)
			}
			if err != nil {
				return report(cmd, err)
			}
			if err := a.renderSession(cmd, session); err != nil {
				return err
			}

			if dryRun {
				if err := c.DiscardSession(ctx, session.ID); err != nil {
					return report(cmd, err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "dry run: session discarded")
				return nil
			}

			result, err := c.CommitSession(ctx, session.ID)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "session %s kept for retry\n", session.ID)
				return report(cmd, err)
			}
			return a.renderResult(cmd, result)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "stage and review without committing")
	cmd.Flags().BoolVar(&direct, "direct", false, "skip staging and import the locally coerced rows")
	cmd.Flags().StringVar(&sessionID, "session", "", "replace the rows of an open staging session")
	cmd.MarkFlagsMutuallyExclusive("session", "direct")
	return cmd
}

func (a *app) renderSession(cmd *cobra.Command, s *client.Session) error {
	rows := make([]core.SessionRow, len(s.Rows))
	for i, r := range s.Rows {
		rows[i] = r.SessionRow
	}
	return a.render(cmd, s, func(w io.Writer) {
		fmt.Fprintf(w, "session %s (%s)\n\n", s.ID, s.FileName)
		headerTable(w, s.Headers)
		fmt.Fprintln(w)
		rowTable(w, rows)
		if s.Truncated {
			fmt.Fprintf(w, "... %d more rows\n", s.TotalRows-len(rows))
		}
		fmt.Fprintf(w, "\n%d rows staged, %d with defaulted values (*)\n", s.TotalRows, s.Defaulted)
	})
}

func (a *app) renderResult(cmd *cobra.Command, r *core.ImportResult) error {
	return a.render(cmd, r, func(w io.Writer) {
		fmt.Fprintf(w, "imported %d rows in %s\n", r.Inserted, durationString(r.Duration))
	})
}
