package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cardinventory/internal/images"
	"github.com/JonMunkholm/cardinventory/internal/store"
)

func (a *app) imagesCommand() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:     "images [PATH]",
		Short:   "Browse the server's image database",
		GroupID: "admin",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := "/"
			if len(args) == 1 {
				p = args[0]
			}
			listing, err := a.client().ListImages(cmd.Context(), p, refresh)
			if err != nil {
				return report(cmd, err)
			}
			return a.render(cmd, listing, func(w io.Writer) {
				listingTable(w, listing)
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "reread the directory on the server instead of using its cache")
	return cmd
}

func listingTable(w io.Writer, l images.Listing) {
	fmt.Fprintf(w, "%s\n\n", l.Path)
	for _, d := range l.Directories {
		fmt.Fprintf(w, "%s/\t%s\n", d.Name, d.Path)
	}
	for _, f := range l.Files {
		fmt.Fprintf(w, "%s\t%s\n", f.Name, f.URL)
	}
}

func (a *app) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show the server's import slot usage",
		GroupID: "admin",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := a.client().ImportStatus(cmd.Context())
			if err != nil {
				return report(cmd, err)
			}
			return a.render(cmd, status, func(w io.Writer) {
				fmt.Fprintln(w, "ACTIVE\tAVAILABLE\tMAX")
				fmt.Fprintf(w, "%d\t%d\t%d\n", status.Active, status.Available, status.MaxConcurrent)
			})
		},
	}
}

func (a *app) migrateCommand() *cobra.Command {
	var dbURL string
	cmd := &cobra.Command{
		Use:     "migrate",
		Short:   "Apply database migrations directly to a store",
		GroupID: "admin",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dbURL == "" {
				dbURL = os.Getenv("DATABASE_URL")
			}
			if dbURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			if err := migrate(cmd.Context(), dbURL); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
	cmd.Flags().StringVar(&dbURL, "database-url", "", "postgres:// or sqlite:// URL (default $DATABASE_URL)")
	return cmd
}

func migrate(ctx context.Context, dbURL string) error {
	s, err := store.Open(ctx, dbURL, store.Options{AutoMigrate: true})
	if err != nil {
		return err
	}
	return s.Close()
}
