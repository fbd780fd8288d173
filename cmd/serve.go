package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"logger-netcfg/internal/adapter/dhcp"
	infraDhcp "logger-netcfg/internal/adapter/infrastructure/dhcp"
	"logger-netcfg/internal/adapter/infrastructure/file"
	"logger-netcfg/internal/adapter/infrastructure/network"
	"logger-netcfg/internal/adapter/static"
	"logger-netcfg/internal/pkg/config"
	"logger-netcfg/internal/pkg/logging"
	"logger-netcfg/internal/pkg/watcher"
	"logger-netcfg/internal/port"

	"github.com/spf13/cobra"
)

var watchFlag bool

// startManagers runs the managers for one configuration until ctx is done.
var startManagers = runManagers

// createNetworkConfigurationManager creates a network configuration manager for the given logger profile
func createNetworkConfigurationManager(name string, loggerConfig config.LoggerConfig, resolvConf string) (port.NetworkConfigurationManager, error) {
	logger := logging.WithDevice(name).WithField("interface", loggerConfig.Interface)

	// Create shared infrastructure adapters
	networkMgr := network.NewManagerAdapter()
	fileMgr := file.NewManagerAdapter()

	if loggerConfig.DHCP {
		dhcpClient := infraDhcp.NewClientAdapter("logger-" + name)

		manager, err := dhcp.NewManager(name, loggerConfig, dhcpClient, networkMgr, fileMgr, resolvConf)
		if err != nil {
			return nil, err
		}
		logger.Info("Created DHCP network configuration adapter")
		return manager, nil
	} else if loggerConfig.Static != nil {
		manager, err := static.NewManager(name, loggerConfig, networkMgr, fileMgr, resolvConf)
		if err != nil {
			return nil, err
		}
		logger.WithFields(map[string]interface{}{
			"ip":      loggerConfig.Static.IP.String(),
			"subnet":  loggerConfig.Static.Subnet.String(),
			"gateway": loggerConfig.Static.Gateway.String(),
		}).Info("Created static network configuration adapter")
		return manager, nil
	}

	return nil, fmt.Errorf("invalid logger configuration: must specify either DHCP or static")
}

// loadServeConfig loads and validates the configuration and logs its warnings.
func loadServeConfig() (*config.Config, error) {
	cfg, err := loadConfig(false)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}
	return cfg, nil
}

// runManagers starts one manager per logger and blocks until all have stopped.
func runManagers(ctx context.Context, cfg *config.Config) {
	logger := logging.GetLogger()

	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}

	var managers []port.NetworkConfigurationManager
	for name, loggerConfig := range cfg.Loggers {
		manager, err := createNetworkConfigurationManager(name, loggerConfig, cfg.GetResolvConf())
		if err != nil {
			logging.WithDevice(name).WithError(err).Error("Failed to create network configuration adapter")
			continue
		}
		managers = append(managers, manager)
	}

	if len(managers) == 0 {
		logger.Warn("No network configuration adapters created")
		return
	}

	logger.WithField("adapter_count", len(managers)).Info("Starting network configuration adapters")

	var wg sync.WaitGroup
	for _, manager := range managers {
		wg.Add(1)
		go func(mgr port.NetworkConfigurationManager) {
			defer wg.Done()

			if err := mgr.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.WithManager("serve", mgr.GetDeviceName(), mgr.GetInterfaceName()).
					WithError(err).Error("Network configuration adapter failed")
			}
		}(manager)
	}

	wg.Wait()
	logger.Info("All network configuration adapters stopped")
}

// serve runs the managers until ctx is done. With reload set, a change
// notification restarts them on the new configuration; an invalid new
// configuration leaves the running one in place.
func serve(ctx context.Context, cfg *config.Config, reload <-chan struct{}) {
	logger := logging.GetLogger()

	for {
		runCtx, stop := context.WithCancel(ctx)
		done := make(chan struct{})
		go func(cfg *config.Config) {
			startManagers(runCtx, cfg)
			close(done)
		}(cfg)

		var next *config.Config
		for next == nil {
			select {
			case <-ctx.Done():
				<-done
				stop()
				return
			case <-reload:
				newCfg, err := loadServeConfig()
				if err != nil {
					logger.WithError(err).Error("Ignoring configuration change")
					continue
				}
				next = newCfg
			}
		}

		logger.Info("Reloading configuration")
		stop()
		<-done
		cfg = next
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Apply every logger profile to its host interface and keep it applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadServeConfig()
		if err != nil {
			return err
		}

		// Initialize logging
		logging.InitLogger(cfg.Logging)

		logger := logging.GetLogger()
		logger.WithField("config_file", configFlag).Info("Starting daemon")

		// Create context for graceful shutdown
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Handle shutdown signals
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigChan
			logger.WithField("signal", sig.String()).Info("Received shutdown signal")
			cancel()
		}()

		reload := make(chan struct{}, 1)
		if watchFlag {
			w := watcher.New(configFlag, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
			go func() {
				if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.WithError(err).Error("Configuration watcher stopped")
				}
			}()
		}

		serve(ctx, cfg, reload)
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVarP(&configFlag, "config", "f", "", "Path to config file (YAML or TOML)")
	serveCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Restart the profiles when the config file changes")
	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		panic(err) // This should never happen during initialization
	}
	rootCmd.AddCommand(serveCmd)
}
