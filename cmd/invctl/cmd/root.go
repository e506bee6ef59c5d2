// Package cmd implements the invctl commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JonMunkholm/cardinventory/internal/client"
	"github.com/JonMunkholm/cardinventory/internal/core"
	"github.com/JonMunkholm/cardinventory/internal/logging"
)

const (
	keyServer  = "server"
	keyOutput  = "output"
	keyTimeout = "timeout"
	keyLog     = "log-level"
)

// app carries per-invocation settings shared by every command.
type app struct {
	v          *viper.Viper
	configFile string
}

// NewRootCommand builds the invctl command tree. Settings resolve from
// flags, then INVCTL_* environment variables, then .invctl.yaml.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "invctl",
		Short: "Card inventory operator CLI",
		Long: `invctl stages CSV uploads, reviews and commits them, and browses or
edits the card inventory served by the inventory server.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.AddGroup(
		&cobra.Group{ID: "import", Title: "Import Commands:"},
		&cobra.Group{ID: "inventory", Title: "Inventory Commands:"},
		&cobra.Group{ID: "admin", Title: "Admin Commands:"},
	)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default is ./.invctl.yaml or $HOME/.invctl.yaml)")
	pf.String(keyServer, "http://localhost:3001", "inventory server base URL")
	pf.StringP(keyOutput, "o", "table", "output format: table, json or yaml")
	pf.Duration(keyTimeout, client.DefaultTimeout, "request timeout")
	pf.String(keyLog, "warn", "log level")
	for _, key := range []string{keyServer, keyOutput, keyTimeout, keyLog} {
		cobra.CheckErr(a.v.BindPFlag(key, pf.Lookup(key)))
	}

	root.AddCommand(
		a.previewCommand(),
		a.importCommand(),
		a.listCommand(),
		a.editCommand(),
		a.deleteCommand(),
		a.clearCommand(),
		a.imagesCommand(),
		a.statusCommand(),
		a.migrateCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	a.v.SetEnvPrefix("INVCTL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
	} else {
		a.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(home)
		}
		a.v.SetConfigType("yaml")
		a.v.SetConfigName(".invctl")
	}
	// A missing default config file is fine; an explicit one must load.
	if err := a.v.ReadInConfig(); err != nil && a.configFile != "" {
		return fmt.Errorf("read config: %w", err)
	}

	slog.SetDefault(logging.New(cmd.ErrOrStderr(), a.v.GetString(keyLog), "text"))

	switch a.output() {
	case "table", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unknown output format %q", a.output())
	}
}

func (a *app) output() string {
	return strings.ToLower(a.v.GetString(keyOutput))
}

func (a *app) client() *client.Client {
	c := client.New(a.v.GetString(keyServer))
	if t := a.v.GetDuration(keyTimeout); t > 0 {
		c.HTTP.Timeout = t
	}
	return c
}

// report prints the user-facing message for err. Errors without one, such
// as local file errors, are printed as they are.
func report(cmd *cobra.Command, err error) error {
	if core.IsUserFacing(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), core.FormatUserError(err))
	} else {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
	}
	return err
}

func durationString(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
