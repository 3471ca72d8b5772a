package commands

import (
	"expiry-scanner/internal/core/config"
	"expiry-scanner/internal/core/logger"
	"expiry-scanner/internal/core/proxy"
	"expiry-scanner/internal/features/expiry/service"
	"expiry-scanner/internal/features/records/adapters"

	"github.com/spf13/cobra"
)

var (
	configDir string

	cfg     *config.AppConfig
	scanner *service.ScanService
)

// Execute runs the expiryctl root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "expiryctl",
		Short:         "Check vitamins and medications that expire today or tomorrow",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configDir)
			if err != nil {
				return err
			}
			if err := logger.Init(loaded.Environment, loaded.LogLevel); err != nil {
				return err
			}
			cfg = loaded

			loc := cfg.Scan.Location()
			p := proxy.FromConfig(cfg.Proxy)
			scanner = service.NewScanService(
				adapters.NewVitaminsAdapter(cfg.Records, p, loc),
				adapters.NewMedicationsAdapter(cfg.Records, p, loc),
				service.WithLocation(loc),
			)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&configDir, "config", ".", "directory holding the .env file")

	root.AddCommand(scanCmd(), remindCmd())
	return root
}
