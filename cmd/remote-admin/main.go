package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/spf13/cobra"

	"github.com/go-tangra/go-tangra-remote-admin/cmd/remote-admin/assets"
	"github.com/go-tangra/go-tangra-remote-admin/internal/config"
	"github.com/go-tangra/go-tangra-remote-admin/internal/logger"
	"github.com/go-tangra/go-tangra-remote-admin/internal/server"
	"github.com/go-tangra/go-tangra-remote-admin/internal/session"
	"github.com/go-tangra/go-tangra-remote-admin/internal/winsvc"
)

var (
	version    = "dev"
	commitHash = "unknown"
	buildDate  = "unknown"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "remote-admin",
	Short: "Remote Admin - query software and system information on Windows hosts",
	Long: `Remote Admin queries the installed software and basic system information
of remote Windows computers over WinRM or SSH, one concurrent unit of work
per host. It can uninstall software and reboot hosts, and serve the same
operations over gRPC and HTTP with 'serve'.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC and HTTP server",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("remote-admin %s (commit: %s, built: %s)\n", version, commitHash, buildDate)
	},
}

const serviceName = "TangraRemoteAdmin"

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage Windows service installation",
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install 'serve' as a Windows service",
	RunE:  runServiceInstall,
}

var serviceUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall the Windows service",
	RunE:  runServiceUninstall,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./configs/remote-admin.yaml)")
	pf.String("transport", "", "remote transport: winrm or ssh (default winrm)")
	pf.StringP("user", "u", "", "remote account user name")
	pf.StringP("password", "p", "", "remote account password")
	pf.StringP("domain", "d", "", "remote account domain (selects NTLM for WinRM)")
	pf.String("server", "", "run queries through a remote-admin server at this gRPC address")
	pf.String("client-secret", "", "secret for gRPC clients (empty = no auth)")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.StringP("output", "o", "table", "output format: table, json or yaml")

	serveCmd.Flags().String("listen", "", "gRPC listen address (default :9560)")
	serveCmd.Flags().String("http-listen", "", "HTTP listen address (default :9561)")
	serveCmd.Flags().String("api-secret", "", "secret for REST API clients (empty = no auth)")

	serviceCmd.AddCommand(serviceInstallCmd)
	serviceCmd.AddCommand(serviceUninstallCmd)

	rootCmd.AddCommand(softwareCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(rebootCmd)
	rootCmd.AddCommand(localCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serviceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{"transport", &cfg.Transport},
		{"user", &cfg.Credentials.Username},
		{"password", &cfg.Credentials.Password},
		{"domain", &cfg.Credentials.Domain},
		{"server", &cfg.Server},
		{"client-secret", &cfg.ClientSecret},
		{"log-level", &cfg.Logging.Level},
		{"listen", &cfg.Listen},
		{"http-listen", &cfg.HTTPListen},
		{"api-secret", &cfg.ApiSecret},
	}
	for _, o := range overrides {
		if f := cmd.Flags().Lookup(o.flag); f != nil && f.Changed {
			*o.dst = f.Value.String()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Windows service mode logs to the event log.
	if winsvc.IsWindowsService() {
		l, err := winsvc.EventLogger(serviceName)
		if err != nil {
			l = logger.New(cfg.Logging.Level)
		}
		l = log.NewFilter(l, log.FilterLevel(log.ParseLevel(cfg.Logging.Level)))
		svc := &winsvc.Service{Name: serviceName, Log: log.NewHelper(l)}
		return svc.Run(func(ctx context.Context) error {
			return serve(ctx, cfg, l)
		})
	}

	// Interactive mode: shut down on SIGINT / SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, logger.New(cfg.Logging.Level))
}

func serve(ctx context.Context, cfg *config.Config, l log.Logger) error {
	dialer, prober, err := transport(cfg)
	if err != nil {
		return err
	}
	sessions := session.NewManager(session.Options{
		Dialer:      dialer,
		Prober:      prober,
		UnitTimeout: cfg.Round.UnitTimeout,
		Logger:      l,
	})
	return server.Run(ctx, cfg, sessions, assets.OpenApiData, l)
}

func newService() *winsvc.Service {
	return &winsvc.Service{
		Name:        serviceName,
		DisplayName: "Tangra Remote Admin",
		Description: "Queries software and system information on remote Windows hosts over gRPC and HTTP.",
		Log:         log.NewHelper(logger.New("info")),
	}
}

func runServiceInstall(_ *cobra.Command, _ []string) error {
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("cannot determine executable path: %w", err)
	}

	svcArgs := []string{"serve"}
	if cfgFile != "" {
		svcArgs = append(svcArgs, "--config", cfgFile)
	}

	if err := newService().Install(exePath, svcArgs); err != nil {
		return err
	}
	fmt.Printf("Service %s installed successfully\n", serviceName)
	return nil
}

func runServiceUninstall(_ *cobra.Command, _ []string) error {
	if err := newService().Uninstall(); err != nil {
		return err
	}
	fmt.Printf("Service %s uninstalled successfully\n", serviceName)
	return nil
}
