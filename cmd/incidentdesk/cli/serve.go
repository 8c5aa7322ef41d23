package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sentinelops/incidentdesk/internal/notify"
	"github.com/sentinelops/incidentdesk/internal/server"
	"github.com/sentinelops/incidentdesk/internal/service"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the incidentdesk API server",
		Long:  "Start the HTTP server that serves the admin API, the notification endpoints and the OpenAPI document.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe() error {
	logger := configuredLogger()

	// 1. Token manager first: a missing secret must stop startup before
	// anything touches the database.
	tokens, err := service.NewTokenManager(tokenConfig())
	if err != nil {
		return fmt.Errorf("auth config: %w (set auth.jwt_secret or INCIDENTDESK_AUTH_JWT_SECRET)", err)
	}

	hasher, err := service.NewBcryptHasher(viper.GetInt("auth.bcrypt_cost"))
	if err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	// 2. Store
	store, err := openStore()
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()
	logger.Info("store initialized", "driver", store.Driver())

	admins, err := store.ListAdmins(cmdCtx())
	if err != nil {
		logger.Warn("failed to check for admins", "error", err)
	} else if len(admins) == 0 {
		logger.Warn("no admin account found - sign up via /signup or run: incidentdesk admin create")
	}

	// 3. Services
	authSvc := service.NewAuthService(store, hasher, tokens)

	notifier, err := buildNotifier(logger)
	if err != nil {
		return err
	}
	notifySvc := notify.NewService(store, notifier, notify.Config{
		CodeTTL:       viper.GetDuration("notify.code_ttl"),
		DeletionInbox: viper.GetString("notify.deletion_inbox"),
	}, logger)

	// 4. HTTP server
	srvCfg := server.DefaultConfig()
	srvCfg.Host = viper.GetString("server.host")
	srvCfg.Port = viper.GetInt("server.port")
	srvCfg.CORSOrigins = viper.GetStringSlice("server.cors_origins")
	srvCfg.LoginRateLimit = viper.GetInt("server.login_rate_limit")
	srvCfg.BaseURL = viper.GetString("server.base_url")
	if n := viper.GetInt64("server.max_body_size"); n > 0 {
		srvCfg.MaxBodySize = n
	}
	if d := viper.GetDuration("server.shutdown_timeout"); d > 0 {
		srvCfg.ShutdownTimeout = d
	}

	srv := server.New(srvCfg, store, authSvc, notifySvc, logger)

	fmt.Printf("→ incidentdesk %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", srvCfg.Host, srvCfg.Port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", srvCfg.Host, srvCfg.Port)
	fmt.Printf("→ Health:     http://%s:%d/healthz\n", srvCfg.Host, srvCfg.Port)
	fmt.Println()

	return srv.ListenAndServe()
}
