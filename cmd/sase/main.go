// Command sase talks to the SD-WAN controller: interface status reports,
// machine inventory, element reboots, and a periodic status monitor.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	gocmd "github.com/goliatone/go-command"
	job "github.com/goliatone/go-job"

	"github.com/vladracs/prismasase/adapters/gojob"
	"github.com/vladracs/prismasase/auth"
	"github.com/vladracs/prismasase/client"
	"github.com/vladracs/prismasase/command"
	"github.com/vladracs/prismasase/core"
	"github.com/vladracs/prismasase/monitor"
	"github.com/vladracs/prismasase/sdwan"
	sqlstore "github.com/vladracs/prismasase/store/sql"
	"github.com/vladracs/prismasase/transport"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	command := "status"
	if len(os.Args) >= 2 {
		command = os.Args[1]
	}

	switch command {
	case "version":
		fmt.Printf("sase %s, commit %s, built at %s\n", version, commit, date)
	case "status":
		runStatus()
	case "inventory":
		runInventory(false)
	case "unclaimed":
		runInventory(true)
	case "reboot":
		runReboot()
	case "monitor":
		runMonitor()
	case "prune":
		runPrune()
	case "profile":
		runProfile()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		fmt.Fprintln(os.Stderr, "usage: sase [status|inventory|unclaimed|reboot|monitor|prune|profile|version]")
		os.Exit(2)
	}
}

type app struct {
	cfg      core.Config
	logger   core.Logger
	service  *sdwan.Service
	reporter *sdwan.StatusReporter
}

func newApp(configPath string) (*app, error) {
	logger := core.ResolveLogger("sase", nil, nil)

	cfg, resolver, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	restAdapter, ok := transport.NewDefaultRegistry().Get(transport.KindREST)
	if !ok {
		return nil, fmt.Errorf("transport: no %s adapter registered", transport.KindREST)
	}
	tokens, err := auth.NewTokenProvider(auth.TokenProviderConfig{
		TokenURL:  cfg.AuthURL,
		Resolver:  resolver,
		Transport: restAdapter,
		Timeout:   cfg.RequestTimeout,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	tsgID := resolver.Optional(auth.EnvTSGID, "")
	api, err := client.New(client.Config{
		BaseURL:        cfg.BaseAPIURL,
		TSGID:          tsgID,
		Region:         cfg.Region,
		RequestTimeout: cfg.RequestTimeout,
		PageLimit:      cfg.PageLimit,
	}, tokens, restAdapter, logger)
	if err != nil {
		return nil, err
	}

	service, err := sdwan.NewService(api, logger)
	if err != nil {
		return nil, err
	}
	reporter, err := sdwan.NewStatusReporter(service, logger)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, service: service, reporter: reporter}, nil
}

// loadConfig layers defaults, the optional config file, and environment
// overrides into the effective configuration.
func loadConfig(configPath string) (core.Config, *auth.CredentialResolver, error) {
	defaults := core.DefaultConfig()
	loaded, err := core.NewCfgxConfigProvider(fileConfigLoader(configPath)).Load(context.Background(), defaults)
	if err != nil {
		return core.Config{}, nil, err
	}
	resolver := auth.NewCredentialResolver(nil)
	cfg, err := core.ResolveConfig(defaults, loaded, resolver.ApplyOverrides(core.Config{}))
	if err != nil {
		return core.Config{}, nil, err
	}
	return cfg, resolver, nil
}

// fileConfigLoader reads an optional JSON config file. A missing path or file
// yields an empty layer so defaults and environment take over.
func fileConfigLoader(path string) core.RawConfigLoader {
	return rawLoaderFunc(func(context.Context) (map[string]any, error) {
		if path == "" {
			return map[string]any{}, nil
		}
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		if err != nil {
			return nil, err
		}
		values := map[string]any{}
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		return values, nil
	})
}

type rawLoaderFunc func(ctx context.Context) (map[string]any, error)

func (f rawLoaderFunc) LoadRaw(ctx context.Context) (map[string]any, error) { return f(ctx) }

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "sase.json", "path to the JSON config file")
	asJSON := fs.Bool("json", false, "emit entries as JSON lines")
	_ = fs.Parse(os.Args[2:])

	a, err := newApp(*configPath)
	if err != nil {
		fatal(err)
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if !*asJSON {
		fmt.Fprintln(writer, "SITE\tELEMENT\tINTERFACE\tADMIN\tSTATE")
	}
	report, err := a.reporter.Run(context.Background(), sdwan.SinkFunc(func(entry sdwan.StatusEntry) {
		if *asJSON {
			line, _ := json.Marshal(entry)
			fmt.Println(string(line))
			return
		}
		admin := "down"
		if entry.AdminUp {
			admin = "up"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
			entry.SiteID, entry.ElementName, entry.InterfaceName, admin, entry.OperationalState)
	}))
	if err != nil {
		fatal(err)
	}
	if !*asJSON {
		_ = writer.Flush()
	}
	a.logger.Info("status report finished",
		"entries", len(report.Entries),
		"branch_failures", report.BranchFailures,
	)
}

func runInventory(unclaimedOnly bool) {
	fs := flag.NewFlagSet("inventory", flag.ExitOnError)
	configPath := fs.String("config", "sase.json", "path to the JSON config file")
	_ = fs.Parse(os.Args[2:])

	a, err := newApp(*configPath)
	if err != nil {
		fatal(err)
	}

	ctx := context.Background()
	var machines []sdwan.Machine
	if unclaimedOnly {
		machines, err = a.service.UnclaimedMachines(ctx)
	} else {
		machines, err = a.service.Machines(ctx)
	}
	if err != nil {
		fatal(err)
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "SERIAL\tMODEL\tVERSION\tSTATE\tCONNECTED")
	for _, machine := range machines {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%t\n",
			machine.SerialNumber, machine.ModelName, machine.ImageVersion, machine.MachineState, machine.Connected)
	}
	_ = writer.Flush()
}

func runReboot() {
	fs := flag.NewFlagSet("reboot", flag.ExitOnError)
	configPath := fs.String("config", "sase.json", "path to the JSON config file")
	elementID := fs.String("element-id", "", "element id to reboot")
	elementName := fs.String("element-name", "", "element display name to reboot")
	siteID := fs.String("site-id", "", "restrict name lookup to one site")
	_ = fs.Parse(os.Args[2:])

	if *elementID == "" && *elementName == "" {
		fmt.Fprintln(os.Stderr, "one of -element-id or -element-name is required")
		os.Exit(2)
	}

	a, err := newApp(*configPath)
	if err != nil {
		fatal(err)
	}

	ctx := context.Background()
	target := *elementID
	if target == "" {
		element, err := a.service.FindElementByName(ctx, *siteID, *elementName)
		if err != nil {
			fatal(err)
		}
		target = element.ID
	}
	receipt, err := a.service.RebootElement(ctx, target)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("reboot accepted for element %s (operation %s)\n", target, receipt.ID)
}

func runMonitor() {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	configPath := fs.String("config", "sase.json", "path to the JSON config file")
	interval := fs.Duration("interval", 0, "override the sweep interval")
	maxRuns := fs.Int("max-runs", 0, "stop after this many sweeps (0 runs forever)")
	transitionJob := fs.String("transition-job", "", "job id to enqueue when a sweep observes state transitions")
	_ = fs.Parse(os.Args[2:])

	a, err := newApp(*configPath)
	if err != nil {
		fatal(err)
	}

	cfg := a.cfg.Monitor
	if *interval > 0 {
		cfg.Interval = *interval
	}
	if *maxRuns > 0 {
		cfg.MaxRuns = *maxRuns
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recorder monitor.SnapshotRecorder
	if dsn := a.cfg.Persistence.DSN; dsn != "" {
		db, err := sqlstore.Open(ctx, a.cfg.Persistence)
		if err != nil {
			fatal(err)
		}
		defer db.Close()
		store, err := sqlstore.NewSnapshotStore(db)
		if err != nil {
			fatal(err)
		}
		recorder = store
	}

	var enqueuer core.JobEnqueuer
	if *transitionJob != "" {
		enqueuer = gojob.NewEnqueuerAdapter(logQueue{logger: a.logger})
	}

	m, err := monitor.New(monitor.Config{
		Interval:        cfg.Interval,
		MaxRuns:         cfg.MaxRuns,
		TransitionJobID: *transitionJob,
	}, a.reporter, recorder, enqueuer, a.logger)
	if err != nil {
		fatal(err)
	}
	if err := m.Run(ctx); err != nil && ctx.Err() == nil {
		fatal(err)
	}
}

// logQueue satisfies the go-job enqueuer contract by logging dispatched jobs.
// It stands in until a broker-backed queue is configured.
type logQueue struct {
	logger core.Logger
}

func (q logQueue) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	if msg == nil {
		return fmt.Errorf("enqueue: execution message is required")
	}
	q.logger.Info("job enqueued",
		"job_id", msg.JobID,
		"idempotency_key", msg.IdempotencyKey,
		"parameters", msg.Parameters,
	)
	return nil
}

func runPrune() {
	fs := flag.NewFlagSet("prune", flag.ExitOnError)
	configPath := fs.String("config", "sase.json", "path to the JSON config file")
	ttl := fs.Duration("ttl", 30*24*time.Hour, "delete snapshots collected before this retention window")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	if cfg.Persistence.DSN == "" {
		fmt.Fprintln(os.Stderr, "prune needs persistence.dsn in the config file")
		os.Exit(2)
	}

	ctx := context.Background()
	db, err := sqlstore.Open(ctx, cfg.Persistence)
	if err != nil {
		fatal(err)
	}
	defer db.Close()
	store, err := sqlstore.NewSnapshotStore(db)
	if err != nil {
		fatal(err)
	}

	msg := command.PruneSnapshotsMessage{TTL: *ttl}
	if err := msg.Validate(); err != nil {
		fatal(err)
	}
	collector := gocmd.NewResult[int]()
	if err := command.NewPruneSnapshotsCommand(store).Execute(gocmd.ContextWithResult(ctx, collector), msg); err != nil {
		fatal(err)
	}
	deleted, _ := collector.Load()
	fmt.Printf("pruned %d snapshots older than %s\n", deleted, *ttl)
}

func runProfile() {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	configPath := fs.String("config", "sase.json", "path to the JSON config file")
	_ = fs.Parse(os.Args[2:])

	a, err := newApp(*configPath)
	if err != nil {
		fatal(err)
	}
	profile, err := a.service.Profile(context.Background())
	if err != nil {
		fatal(err)
	}
	pretty, _ := json.MarshalIndent(profile, "", "  ")
	fmt.Println(string(pretty))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "sase: %v\n", err)
	if core.IsConfigurationError(err) {
		fmt.Fprintln(os.Stderr, "set PRISMASASE_CLIENT_ID, PRISMASASE_CLIENT_SECRET, and PRISMASASE_TSG_ID")
	}
	os.Exit(1)
}
