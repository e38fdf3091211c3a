package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/intakehq/prospector/internal/browser"
	"github.com/intakehq/prospector/internal/challenge"
	"github.com/intakehq/prospector/internal/fingerprint"
	"github.com/intakehq/prospector/internal/input"
	"github.com/intakehq/prospector/internal/metrics"
	"github.com/intakehq/prospector/internal/model"
	"github.com/intakehq/prospector/internal/pipeline"
	"github.com/intakehq/prospector/internal/report"
	"github.com/intakehq/prospector/internal/serp"
	"github.com/intakehq/prospector/internal/sitemap"
	"github.com/intakehq/prospector/internal/storage"
	"github.com/intakehq/prospector/internal/storage/csvbackend"
	"github.com/intakehq/prospector/internal/storage/jsonbackend"
	"github.com/intakehq/prospector/internal/storage/postgres"
	"github.com/intakehq/prospector/internal/storage/sqlite"
	"github.com/intakehq/prospector/pkg/httpclient"
	"github.com/intakehq/prospector/pkg/useragent"
)

func newRunCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Enrich a company list and write result reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnrichment(cmd.Context(), v)
		},
	}

	flags := cmd.Flags()
	flags.StringP("input", "i", "", "company list (.json or .csv), required")
	flags.StringP("output", "o", "company_contacts", "output base path (without extension)")
	flags.String("store", "", "persist results: csv, json, sqlite or postgres")
	flags.String("store-dsn", "", "store file path or connection string")
	flags.String("captcha-policy", string(challenge.PolicyFallback), "challenge handling: fallback or pause")
	flags.Int("workers", 1, "companies enriched in parallel")
	flags.Int("max", 0, "cap the number of companies processed, 0 = all")
	flags.Bool("headed", false, "run the browser with a visible window")
	flags.Duration("delay-min", 2*time.Second, "minimum delay between navigations")
	flags.Duration("delay-max", 5*time.Second, "maximum delay between navigations")
	flags.Duration("nav-timeout", 15*time.Second, "per-navigation timeout")
	flags.Int("metrics-port", 0, "expose Prometheus metrics on this port, 0 = off")
	flags.BoolP("verbose", "v", false, "debug logging")

	_ = cmd.MarkFlagRequired("input")

	v.SetEnvPrefix("PROSPECTOR")
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)

	return cmd
}

func runEnrichment(ctx context.Context, v *viper.Viper) error {
	level := slog.LevelInfo
	if v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	companies, err := input.Load(v.GetString("input"))
	if err != nil {
		return err
	}
	if max := v.GetInt("max"); max > 0 && max < len(companies) {
		companies = companies[:max]
	}
	logger.Info("loaded companies", "count", len(companies))

	policy := challenge.Policy(v.GetString("captcha-policy"))
	if policy != challenge.PolicyFallback && policy != challenge.PolicyPause {
		return fmt.Errorf("unknown captcha policy %q", policy)
	}

	backend, err := openBackend(ctx, v.GetString("store"), v.GetString("store-dsn"), v.GetString("output"))
	if err != nil {
		return err
	}
	if backend != nil {
		defer backend.Close()
	}

	if port := v.GetInt("metrics-port"); port > 0 {
		srv := metrics.Start(port)
		defer srv.Stop(context.Background())
		logger.Info("metrics server started", "port", port)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	agents := useragent.NewPool(nil)
	launcher := browser.NewChrome(browser.Config{
		Headless:   !v.GetBool("headed"),
		UserAgent:  agents.First(),
		BlockMedia: true,
		NavTimeout: v.GetDuration("nav-timeout"),
	}, logger)
	defer launcher.Close()

	transport, err := fingerprint.Transport(fingerprint.ProfileChrome)
	if err != nil {
		return fmt.Errorf("tls fingerprint: %w", err)
	}
	client := httpclient.New(httpclient.Config{
		Timeout:      v.GetDuration("nav-timeout"),
		MaxRedirects: 5,
		Transport:    transport,
	})
	secondary := serp.NewDuckDuckGo(client, agents, logger)
	locator := sitemap.NewLocator(client, agents, logger)

	var resolver challenge.Resolver = challenge.AutoResolver{}
	if policy == challenge.PolicyPause {
		resolver = &challenge.StdinResolver{In: os.Stdin, Out: os.Stderr}
	}

	p := pipeline.New(pipeline.Config{
		Workers:  v.GetInt("workers"),
		DelayMin: v.GetDuration("delay-min"),
		DelayMax: v.GetDuration("delay-max"),
		Policy:   policy,
		Sitemaps: locator,
	}, launcher, secondary, challenge.NewLog(), resolver, logger)

	started := time.Now()
	results := p.Run(ctx, companies)
	events := p.Challenges().Drain()

	if backend != nil {
		for _, res := range results {
			if err := backend.Save(ctx, res); err != nil {
				logger.Error("persist result", "company", res.CompanyName, "err", err)
			}
		}
	}

	if err := writeReports(v.GetString("output"), results, events); err != nil {
		return err
	}

	summary := report.GenerateSummary(results, len(events))
	summary.Duration = time.Since(started)
	if err := report.WriteText(os.Stdout, summary); err != nil {
		return err
	}

	return nil
}

// openBackend maps the --store flag onto a storage.Backend. An empty store
// disables persistence; file-backed stores default their path from the
// output base.
func openBackend(ctx context.Context, kind, dsn, outBase string) (storage.Backend, error) {
	switch kind {
	case "":
		return nil, nil
	case "csv":
		if dsn == "" {
			dsn = outBase + "_store.csv"
		}
		return csvbackend.New(dsn)
	case "json":
		if dsn == "" {
			dsn = outBase + "_store.jsonl"
		}
		return jsonbackend.New(dsn)
	case "sqlite":
		if dsn == "" {
			dsn = outBase + ".db"
		}
		return sqlite.New(dsn)
	case "postgres":
		if dsn == "" {
			return nil, fmt.Errorf("postgres store needs --store-dsn")
		}
		return postgres.New(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store %q", kind)
	}
}

// writeReports emits the JSON and CSV result files plus the challenge
// side-channel report.
func writeReports(base string, results []*model.CompanyResult, events []challenge.Event) error {
	jsonFile, err := os.Create(base + ".json")
	if err != nil {
		return fmt.Errorf("create json report: %w", err)
	}
	defer jsonFile.Close()
	if err := report.WriteResultsJSON(jsonFile, results); err != nil {
		return err
	}

	csvFile, err := os.Create(base + ".csv")
	if err != nil {
		return fmt.Errorf("create csv report: %w", err)
	}
	defer csvFile.Close()
	if err := report.WriteResultsCSV(csvFile, results); err != nil {
		return err
	}

	if len(events) > 0 {
		chFile, err := os.Create(base + "_challenges.json")
		if err != nil {
			return fmt.Errorf("create challenge report: %w", err)
		}
		defer chFile.Close()
		if err := report.WriteChallenges(chFile, events); err != nil {
			return err
		}
	}

	return nil
}
