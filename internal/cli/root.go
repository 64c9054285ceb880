package cli

import (
	"os"

	"github.com/spf13/cobra"

	"valuation-service/internal/config"
)

var (
	port       string
	configPath string
	loaded     config.Config
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envPort := os.Getenv("PORT")
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "valuation-service",
		Short:        "Business valuation questionnaire and sale-to-delivery scoring",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := config.InitLogger(cfg.Log); err != nil {
				return err
			}
			loaded = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&port, "port", envPort, "port to listen on (overrides server.port)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewStartCmd(&loaded, &port))
	cmd.AddCommand(NewMigrateCmd(&loaded))
	cmd.AddCommand(NewScoreCmd())
	cmd.AddCommand(NewS2DCmd())
	return cmd
}
