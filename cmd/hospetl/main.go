package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"hospetl/internal/config"
	"hospetl/internal/metrics"
	"hospetl/internal/metrics/datadog"
	"hospetl/internal/metrics/prompush"
	"hospetl/internal/pipeline"

	// register all warehouse backends with the factory. The config selects
	// which one to use, but support for all of them is built in.
	_ "hospetl/internal/warehouse/all"
)

// main is the entry point for the hospetl binary. It loads the pipeline
// config, optionally initializes a metrics backend, and executes the run.
// Exit status is 0 on success and 1 on the first failed step.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		dogstatsdAddrFlg  string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "", "pipeline config JSON path (empty runs the built-in hospital pipeline)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (pushgateway, datadog, none; empty reads env METRICS_BACKEND)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&dogstatsdAddrFlg, "dogstatsd-addr", "", "DogStatsD address (overrides env DOGSTATSD_ADDR)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	p := config.Default()
	if cfgPath != "" {
		var err error
		p, err = config.Load(cfgPath)
		if err != nil {
			fatalf("load config: %v", err)
		}
	}

	issues := config.ValidatePipeline(p)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Printf("configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	setupMetrics(metricsBackendFlg, pushGatewayURLFlg, dogstatsdAddrFlg, p.Job, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	ctx := context.Background()
	start := time.Now()

	if *verbose {
		log.Printf("pipeline: source=%s parser=%s warehouse=%s table=%s",
			p.Source.Kind, p.Parser.Kind, p.Warehouse.Kind, p.Warehouse.DB.Table)
	}

	sum, err := pipeline.Run(ctx, p, os.Stdout)
	if err != nil {
		metrics.Flush()
		log.Fatalf("%v", err)
	}

	if *verbose {
		log.Printf("completed in %s: raw=%d curated=%d loaded=%d kpis=%d",
			time.Since(start).Truncate(time.Millisecond),
			sum.RawRows, sum.CuratedRows, sum.LoadedRows, sum.KPICount)
	}
}

// setupMetrics installs the selected metrics backend. Resolution is
// flag → env → default; failures fall back to the nop backend with a log,
// never a fatal error.
func setupMetrics(name, gwURL, ddAddr, job string, verbose bool) {
	name = resolveMetricsBackend(name)
	if job == "" {
		job = "hospetl"
	}

	switch name {
	case "pushgateway":
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init pushgateway backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=pushgateway url=%s job=%s", gwURL, job)
		metrics.SetBackend(b)

	case "datadog":
		if ddAddr == "" {
			ddAddr = os.Getenv("DOGSTATSD_ADDR")
		}
		if ddAddr == "" {
			ddAddr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       ddAddr,
			Namespace:  "hospetl.",
			GlobalTags: []string{"job:" + job},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=datadog addr=%s job=%s", ddAddr, job)
		metrics.SetBackend(b)

	case "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", name)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", name)
	}
}

// resolveMetricsBackend resolves the backend name flag → env → default.
func resolveMetricsBackend(name string) string {
	if name == "" {
		name = os.Getenv("METRICS_BACKEND")
	}
	if name == "" {
		return "none"
	}
	return name
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
