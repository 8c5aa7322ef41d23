package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/sentinelops/incidentdesk/internal/config"
	"github.com/sentinelops/incidentdesk/internal/model"
	"github.com/sentinelops/incidentdesk/internal/service"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
		Long:  "Create and list the administrators who can sign in to the incident desk.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())

	return cmd
}

// ---------- admin create ----------

func newAdminCreateCmd() *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new admin account",
		Example: `  incidentdesk admin create --username alice --password s3cret
  incidentdesk admin create --username alice  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				pw, err := promptPassword(cmd.OutOrStdout())
				if err != nil {
					return err
				}
				password = pw
			}

			store, err := openStore()
			if err != nil {
				return fmt.Errorf("init store: %w", err)
			}
			defer store.Close()

			return runAdminCreate(cmd.OutOrStdout(), store, username, password)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Admin username (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.MarkFlagRequired("username")

	return cmd
}

func promptPassword(out io.Writer) (string, error) {
	fmt.Fprint(out, "Password: ")
	pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(out)

	fmt.Fprint(out, "Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	fmt.Fprintln(out)

	if string(pwBytes) != string(confirmBytes) {
		return "", errors.New("passwords do not match")
	}
	return string(pwBytes), nil
}

func runAdminCreate(out io.Writer, store *config.Store, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("username is required")
	}
	if password == "" {
		return errors.New("password is required")
	}

	hasher, err := service.NewBcryptHasher(viper.GetInt("auth.bcrypt_cost"))
	if err != nil {
		return err
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := &model.Admin{Username: username, PasswordHash: hash}
	if err := store.CreateAdmin(cmdCtx(), admin); err != nil {
		if errors.Is(err, config.ErrConflict) {
			return fmt.Errorf("admin %q already exists", username)
		}
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Fprintf(out, "Created admin %q (id %d)\n", admin.Username, admin.ID)
	return nil
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all admin accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return fmt.Errorf("init store: %w", err)
			}
			defer store.Close()

			return runAdminList(cmd.OutOrStdout(), store, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAdminList(out io.Writer, store *config.Store, jsonOutput bool) error {
	admins, err := store.ListAdmins(cmdCtx())
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}

	type adminRow struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		CreatedAt string `json:"createdAt"`
	}

	rows := make([]adminRow, len(admins))
	for i, a := range admins {
		rows[i] = adminRow{ID: a.ID, Username: a.Username, CreatedAt: a.CreatedAt.Format("2006-01-02 15:04")}
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Fprintln(out, "No admin accounts. Use 'incidentdesk admin create' to create one.")
		return nil
	}

	fmt.Fprintf(out, "%-6s %-30s %-16s\n", "ID", "USERNAME", "CREATED")
	fmt.Fprintf(out, "%-6s %-30s %-16s\n", "--", "--------", "-------")
	for _, r := range rows {
		fmt.Fprintf(out, "%-6d %-30s %-16s\n", r.ID, r.Username, r.CreatedAt)
	}

	return nil
}
