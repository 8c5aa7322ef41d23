package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sentinelops/incidentdesk/internal/config"
)

// secretKeys are redacted by 'config show'.
var secretKeys = []string{"auth.jwt_secret", "notify.smtp.password"}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage incidentdesk configuration",
		Long:  "Initialize a default configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		path  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default incidentdesk.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd.OutOrStdout(), path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")
	cmd.Flags().StringVarP(&path, "output", "o", "incidentdesk.yaml", "Path of the file to write")

	return cmd
}

func runConfigInit(out io.Writer, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := config.WriteDefaultConfig(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(out, "Created %s\n", path)
	fmt.Fprintln(out, "Set auth.jwt_secret (or INCIDENTDESK_AUTH_JWT_SECRET), then run 'incidentdesk serve'.")
	return nil
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	return cmd
}

func runConfigShow(out io.Writer) error {
	if f := viper.ConfigFileUsed(); f != "" {
		fmt.Fprintf(out, "# config file: %s\n", f)
	} else {
		fmt.Fprintln(out, "# config file: (none found, using defaults)")
	}

	settings := viper.AllSettings()
	for _, key := range secretKeys {
		redact(settings, key)
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(settings)
}

// redact replaces a non-empty value at the dotted key with asterisks.
func redact(settings map[string]interface{}, key string) {
	m := settings
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]interface{})
		if !ok {
			return
		}
		m = next
	}
	last := parts[len(parts)-1]
	if v, ok := m[last]; ok && fmt.Sprint(v) != "" {
		m[last] = "********"
	}
}
