package cmd

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"logger-netcfg/internal/pkg/config"
	"logger-netcfg/internal/pkg/server"
	"logger-netcfg/internal/pkg/wifi"
	"logger-netcfg/internal/types"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	portFlag    int
	timeoutFlag time.Duration
)

// resolversFor returns the resolvers a logger uses to look up its server.
func resolversFor(loggerConfig config.LoggerConfig) []types.IPv4 {
	if loggerConfig.Static != nil {
		return loggerConfig.Static.Resolvers()
	}
	return loggerConfig.DNS
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Resolve and connect to each logger's data server",
	Long: `Check resolves the data server of a logger through the logger's own DNS
servers and opens a TCP connection to it. Without --logger every logger with a
server is checked concurrently.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}

		names := []string{loggerFlag}
		if loggerFlag == "" {
			names = names[:0]
			for name := range cfg.Loggers {
				names = append(names, name)
			}
			sort.Strings(names)
		}

		var mu sync.Mutex
		lines := make(map[string]string, len(names))
		g, ctx := errgroup.WithContext(context.Background())
		checked := 0
		for _, name := range names {
			loggerConfig, ok := cfg.GetLoggerConfig(name)
			if !ok {
				return fmt.Errorf("logger %q is not configured", name)
			}
			if loggerConfig.Server == "" || wifi.IsPlaceholder(loggerConfig.Server) {
				if loggerFlag != "" {
					return fmt.Errorf("logger %s has no data server configured", name)
				}
				continue
			}
			if err := config.ValidateServer(loggerConfig.Server); err != nil {
				return fmt.Errorf("logger %s: %w", name, err)
			}

			checked++
			name, loggerConfig := name, loggerConfig
			g.Go(func() error {
				result, err := server.Check(ctx, loggerConfig.Server, portFlag, resolversFor(loggerConfig), timeoutFlag)
				if err != nil {
					return fmt.Errorf("logger %s: %w", name, err)
				}
				mu.Lock()
				lines[name] = fmt.Sprintf("%s: %s (%s:%d) reachable in %s",
					name, result.Server, result.Address, result.Port, result.Latency.Round(time.Millisecond))
				mu.Unlock()
				return nil
			})
		}

		err = g.Wait()
		out := cmd.OutOrStdout()
		for _, name := range names {
			if line, ok := lines[name]; ok {
				fmt.Fprintln(out, line)
			}
		}
		if err != nil {
			return err
		}
		if checked == 0 {
			return fmt.Errorf("no logger has a data server configured")
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVarP(&configFlag, "config", "f", "", "Path to config file (YAML or TOML)")
	checkCmd.Flags().StringVarP(&loggerFlag, "logger", "l", "", "Logger profile to check (default all)")
	checkCmd.Flags().IntVarP(&portFlag, "port", "p", server.DefaultPort, "Port used when the server setting has none")
	checkCmd.Flags().DurationVarP(&timeoutFlag, "timeout", "t", server.DefaultTimeout, "Timeout for each lookup and connection")
	if err := checkCmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(checkCmd)
}
