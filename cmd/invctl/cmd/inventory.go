package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cardinventory/internal/core"
)

func (a *app) listCommand() *cobra.Command {
	var q core.QueryState
	var sortDir string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Search, sort and page through the inventory",
		GroupID: "inventory",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q.SortDir = core.SortDir(sortDir)
			ctrl := core.NewQueryController(a.client(), core.WithInitialState(q))
			defer ctrl.Stop()

			page, err := ctrl.Refresh(cmd.Context())
			if err != nil {
				return report(cmd, err)
			}
			state := core.NormalizeQuery(ctrl.State())
			return a.render(cmd, page, func(w io.Writer) {
				itemTable(w, page.Items)
				fmt.Fprintf(w, "\npage %d of %d, %d items\n", state.Page, state.TotalPages(page.Total), page.Total)
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&q.Search, "search", "s", "", "case-insensitive name or id substring")
	f.StringVar(&q.SortBy, "sort", "id", "sort field: id, name, quantity, price")
	f.StringVar(&sortDir, "dir", "asc", "sort direction: asc or desc")
	f.IntVarP(&q.Page, "page", "p", 1, "page number")
	f.IntVar(&q.PageSize, "limit", core.DefaultPageSize, "items per page")
	return cmd
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid item id %q", arg)
	}
	return id, nil
}

func (a *app) editCommand() *cobra.Command {
	var name, quantity, price string
	cmd := &cobra.Command{
		Use:     "edit ID",
		Short:   "Change an item's name, quantity or price",
		GroupID: "inventory",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("name") && !cmd.Flags().Changed("quantity") && !cmd.Flags().Changed("price") {
				return fmt.Errorf("nothing to change: pass --name, --quantity or --price")
			}

			c := a.client()
			item, err := c.GetItem(cmd.Context(), id)
			if err != nil {
				return report(cmd, err)
			}

			editor := core.NewEditManager(c, nil)
			if err := editor.Start(item); err != nil {
				return err
			}
			if cmd.Flags().Changed("name") {
				if err := editor.SetName(name); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("quantity") {
				qty, err := strconv.Atoi(strings.TrimSpace(quantity))
				if err != nil {
					return fmt.Errorf("%w: quantity %q is not a whole number", core.ErrInvalidField, quantity)
				}
				if err := editor.SetQuantity(qty); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("price") {
				p, err := decimal.NewFromString(strings.TrimSpace(price))
				if err != nil {
					return fmt.Errorf("%w: price %q is not a number", core.ErrInvalidField, price)
				}
				if err := editor.SetPrice(p); err != nil {
					return err
				}
			}

			updated, err := editor.Save(cmd.Context())
			if err != nil {
				return report(cmd, err)
			}
			return a.render(cmd, updated, func(w io.Writer) {
				itemTable(w, []core.Item{updated})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&quantity, "quantity", "", "new quantity")
	cmd.Flags().StringVar(&price, "price", "", "new unit price")
	return cmd
}

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N]: ", prompt)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (a *app) deleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete one item after confirmation",
		GroupID: "inventory",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			c := a.client()
			item, err := c.GetItem(cmd.Context(), id)
			if err != nil {
				return report(cmd, err)
			}

			editor := core.NewEditManager(c, nil)
			editor.RequestDelete(id)
			if !yes && !confirm(cmd, fmt.Sprintf("Delete %d %q?", item.ID, item.Name)) {
				editor.CancelDelete()
				fmt.Fprintln(cmd.ErrOrStderr(), "cancelled")
				return nil
			}
			if err := editor.ConfirmDelete(cmd.Context()); err != nil {
				return report(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (a *app) clearCommand() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:     "clear",
		Short:   "Remove every item from the inventory",
		Long:    "clear removes every item. It requires --confirm " + core.ClearConfirmationToken + ".",
		GroupID: "inventory",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deleted, err := a.client().ClearInventory(cmd.Context(), token)
			if err != nil {
				return report(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d items\n", deleted)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "confirm", "", "confirmation token")
	return cmd
}
