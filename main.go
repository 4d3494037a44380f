package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cppla/socialbbs/config"
	"github.com/cppla/socialbbs/models"
	"github.com/cppla/socialbbs/routes"
	"github.com/cppla/socialbbs/services"
	"github.com/cppla/socialbbs/storage"
	"github.com/cppla/socialbbs/utils"
)

var rootCmd = &cobra.Command{
	Use:   "socialbbs",
	Short: "Social network REST backend",
	Long: `socialbbs serves accounts, a follow graph, posts with images,
comments and likes over a JSON REST API.

Configuration is read from .env, config/config.json and the environment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the schema and start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or extend the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := utils.InitLogger(cfg); err != nil {
			return err
		}
		dialector, err := config.Dialector(cfg)
		if err != nil {
			return err
		}
		conn, err := config.Open(dialector, cfg.LogLevel)
		if err != nil {
			return err
		}
		if err := config.Migrate(conn, models.All()...); err != nil {
			return err
		}
		utils.Sugar.Infof("schema migrated on %s", dialector.Name())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func runServe(ctx context.Context) error {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		return err
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(models.All()...)

	assets, err := storage.New(cfg)
	if err != nil {
		return fmt.Errorf("configure asset storage: %w", err)
	}

	r := routes.SetupRouter(cfg, db, assets, services.NewMailNotifier())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	utils.StartJanitor(ctx, db, 5*time.Minute)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	return utils.GraceServer(ctx, ":"+cfg.AppPort, r)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
