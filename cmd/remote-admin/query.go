package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/spf13/cobra"

	remoteadminv1 "github.com/go-tangra/go-tangra-remote-admin/api/remoteadmin/v1"
	"github.com/go-tangra/go-tangra-remote-admin/internal/client"
	"github.com/go-tangra/go-tangra-remote-admin/internal/collection"
	"github.com/go-tangra/go-tangra-remote-admin/internal/collector"
	"github.com/go-tangra/go-tangra-remote-admin/internal/config"
	"github.com/go-tangra/go-tangra-remote-admin/internal/dispatch"
	"github.com/go-tangra/go-tangra-remote-admin/internal/fanout"
	"github.com/go-tangra/go-tangra-remote-admin/internal/hosts"
	"github.com/go-tangra/go-tangra-remote-admin/internal/inventory"
	"github.com/go-tangra/go-tangra-remote-admin/internal/logger"
	"github.com/go-tangra/go-tangra-remote-admin/internal/remote"
	"github.com/go-tangra/go-tangra-remote-admin/internal/session"
)

var softwareCmd = &cobra.Command{
	Use:   "software <host>",
	Short: "List the software installed on a host",
	Args:  cobra.ExactArgs(1),
	RunE:  runSoftware,
}

var infoCmd = &cobra.Command{
	Use:   "info <hosts | host-file>",
	Short: "Query system information from many hosts concurrently",
	Long: `Query system information from many hosts concurrently.

Hosts may be separated by spaces, commas or semicolons. A single argument
naming an existing file (optionally quoted) is read as a host list, one or
more hosts per line. Duplicate names are queried once.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInfo,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <host> <product-id>",
	Short: "Uninstall a product by its {GUID} and list the remaining software",
	Args:  cobra.ExactArgs(2),
	RunE:  runUninstall,
}

var rebootCmd = &cobra.Command{
	Use:   "reboot <host>",
	Short: "Restart a host",
	Args:  cobra.ExactArgs(1),
	RunE:  runReboot,
}

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Show system information of this machine from SMBIOS",
	Args:  cobra.NoArgs,
	RunE:  runLocal,
}

func init() {
	softwareCmd.Flags().Bool("show-hidden", false, "include system components")
	softwareCmd.Flags().StringP("filter", "f", "", "show only entries containing this text")
	uninstallCmd.Flags().Bool("no-refresh", false, "do not list the software again afterwards")
	rebootCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

// transport builds the dialer and liveness prober from cfg.
func transport(cfg *config.Config) (remote.Dialer, remote.Prober, error) {
	key, err := cfg.PrivateKey()
	if err != nil {
		return nil, nil, err
	}
	opts := remote.Options{
		Transport: cfg.Transport,
		Credentials: remote.Credentials{
			Username:   cfg.Credentials.Username,
			Password:   cfg.Credentials.Password,
			Domain:     cfg.Credentials.Domain,
			PrivateKey: key,
			Passphrase: cfg.SSH.Passphrase,
		},
	}
	if cfg.Transport == remote.TransportSSH {
		opts.Port, opts.Timeout = cfg.SSH.Port, cfg.SSH.Timeout
	} else {
		opts.Port, opts.HTTPS, opts.Insecure, opts.Timeout = cfg.WinRM.Port, cfg.WinRM.HTTPS, cfg.WinRM.Insecure, cfg.WinRM.Timeout
	}

	dialer, err := remote.NewDialer(opts)
	if err != nil {
		return nil, nil, err
	}
	return dialer, &remote.TCPProber{Ports: cfg.Probe.Ports, Timeout: cfg.Probe.Timeout}, nil
}

// env is what every query command needs.
type env struct {
	cfg    *config.Config
	log    log.Logger
	out    *printer
	stderr io.Writer
}

func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	format, _ := cmd.Flags().GetString("output")
	out, err := newPrinter(cmd.OutOrStdout(), format)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: logger.New(cfg.Logging.Level), out: out, stderr: cmd.ErrOrStderr()}, nil
}

// runRound fans c out over list and drives the dispatch loop on the calling
// goroutine until the round completes. Per-host faults are printed as they
// arrive.
func runRound[T any](ctx context.Context, e *env, list []string, build func(collector.Reporter) collector.Collector[T]) ([]T, *fanout.Summary, error) {
	loop := dispatch.New()
	coll := collection.New[T](loop)
	co := fanout.NewCoordinator(loop, e.log, e.cfg.Round.UnitTimeout)

	reporter := collector.ReporterFunc(func(host string, err error) {
		msg := remote.UserMessage(err)
		loop.Post(func() { fmt.Fprintf(e.stderr, "%s: %s\n", host, msg) })
	})

	var sum *fanout.Summary
	round, err := fanout.Run(ctx, co, list, build(reporter), coll, func(s fanout.Summary) {
		sum = &s
		loop.Close()
	})
	if err != nil || round == nil {
		return nil, nil, err
	}

	loop.Run(ctx)
	if sum == nil {
		return nil, nil, ctx.Err()
	}
	return coll.Snapshot(), sum, nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	text := strings.Join(args, " ")
	if e.cfg.Server != "" {
		return remoteInfo(ctx, e, text)
	}

	list, err := hosts.Resolve(text)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(e.stderr, "no hosts to query")
		return nil
	}

	dialer, prober, err := transport(e.cfg)
	if err != nil {
		return err
	}
	records, _, err := runRound(ctx, e, list, func(r collector.Reporter) collector.Collector[inventory.HostInfo] {
		return &collector.HostInfo{Dialer: dialer, Prober: prober, Reporter: r}
	})
	if err != nil {
		return err
	}
	if err := e.out.Hosts(records); err != nil {
		return err
	}
	fmt.Fprintln(e.stderr, session.CompleteMessage(session.KindInfo))
	return nil
}

func runSoftware(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	showHidden, _ := cmd.Flags().GetBool("show-hidden")
	filter, _ := cmd.Flags().GetString("filter")
	return querySoftware(ctx, e, args[0], showHidden, filter)
}

func querySoftware(ctx context.Context, e *env, host string, showHidden bool, filter string) error {
	host = strings.TrimSpace(host)
	if e.cfg.Server != "" {
		return remoteSoftware(ctx, e, &remoteadminv1.QuerySoftwareRequest{Host: host, ShowHidden: showHidden, Filter: filter})
	}

	dialer, prober, err := transport(e.cfg)
	if err != nil {
		return err
	}
	sw := &collector.Software{Dialer: dialer, Prober: prober, ShowHidden: showHidden}
	if err := sw.Preflight(ctx, host); err != nil {
		return errors.New(remote.UserMessage(err))
	}

	records, _, err := runRound(ctx, e, []string{host}, func(r collector.Reporter) collector.Collector[inventory.SoftwareEntry] {
		sw.Reporter = r
		return sw
	})
	if err != nil {
		return err
	}
	if err := e.out.Software(inventory.FilterSoftware(records, filter)); err != nil {
		return err
	}
	fmt.Fprintln(e.stderr, session.CompleteMessage(session.KindSoftware))
	return nil
}

func runUninstall(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	host, productID := args[0], args[1]
	if !collector.ValidProductID(productID) {
		return collector.ErrInvalidProductID
	}

	if e.cfg.Server != "" {
		c, err := client.Dial(e.cfg.Server, e.cfg.ClientSecret)
		if err != nil {
			return err
		}
		defer c.Close()
		err = c.Uninstall(ctx, host, productID)
		if err != nil {
			return err
		}
	} else if err := withRunner(ctx, e, host, func(r remote.Runner) error {
		return collector.Uninstall(ctx, r, host, productID)
	}); err != nil {
		return err
	}
	fmt.Fprintf(e.stderr, "Uninstalled %s from %s\n", productID, host)

	if noRefresh, _ := cmd.Flags().GetBool("no-refresh"); noRefresh {
		return nil
	}
	return querySoftware(ctx, e, host, false, "")
}

func runReboot(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	host := args[0]

	if yes, _ := cmd.Flags().GetBool("yes"); !yes && !confirm(cmd.InOrStdin(), e.stderr, fmt.Sprintf("Restart %s now?", host)) {
		fmt.Fprintln(e.stderr, "Cancelled")
		return nil
	}

	ctx := cmd.Context()
	if e.cfg.Server != "" {
		c, err := client.Dial(e.cfg.Server, e.cfg.ClientSecret)
		if err != nil {
			return err
		}
		defer c.Close()
		if err := c.Reboot(ctx, host); err != nil {
			return err
		}
	} else if err := withRunner(ctx, e, host, func(r remote.Runner) error {
		return collector.Reboot(ctx, r, host)
	}); err != nil {
		return err
	}
	fmt.Fprintf(e.stderr, "Restart requested for %s\n", host)
	return nil
}

func runLocal(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	h, err := collector.Local()
	if err != nil {
		return err
	}
	return e.out.Hosts([]inventory.HostInfo{h})
}

// withRunner dials host and runs fn, returning faults as operator text.
func withRunner(ctx context.Context, e *env, host string, fn func(remote.Runner) error) error {
	dialer, _, err := transport(e.cfg)
	if err != nil {
		return err
	}
	r, err := dialer.Dial(ctx, host)
	if err != nil {
		return errors.New(remote.UserMessage(remote.Classify(host, err)))
	}
	defer r.Close()
	return fn(r)
}

func remoteInfo(ctx context.Context, e *env, text string) error {
	c, err := client.Dial(e.cfg.Server, e.cfg.ClientSecret)
	if err != nil {
		return err
	}
	defer c.Close()

	var records []inventory.HostInfo
	_, err = c.QueryInfo(ctx, text, func(m *remoteadminv1.QueryInfoResponse) {
		records = append(records, m.Hosts...)
		printDiagnostics(e.stderr, m.Diagnostics)
	})
	if err != nil {
		return err
	}
	if err := e.out.Hosts(records); err != nil {
		return err
	}
	fmt.Fprintln(e.stderr, session.CompleteMessage(session.KindInfo))
	return nil
}

func remoteSoftware(ctx context.Context, e *env, req *remoteadminv1.QuerySoftwareRequest) error {
	c, err := client.Dial(e.cfg.Server, e.cfg.ClientSecret)
	if err != nil {
		return err
	}
	defer c.Close()

	var records []inventory.SoftwareEntry
	_, err = c.QuerySoftware(ctx, req, func(m *remoteadminv1.QuerySoftwareResponse) {
		records = append(records, m.Entries...)
		printDiagnostics(e.stderr, m.Diagnostics)
	})
	if err != nil {
		return err
	}
	if err := e.out.Software(records); err != nil {
		return err
	}
	fmt.Fprintln(e.stderr, session.CompleteMessage(session.KindSoftware))
	return nil
}

func printDiagnostics(w io.Writer, lines []string) {
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
