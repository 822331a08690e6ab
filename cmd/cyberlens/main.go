package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"cyberlens/internal/chainlog"
	"cyberlens/internal/config"
	"cyberlens/internal/domain/services"
	"cyberlens/internal/domain/services/ai"
	"cyberlens/internal/infrastructure/store"
	"cyberlens/internal/osint"
	"cyberlens/internal/report"
	"cyberlens/pkg/logger"
)

const usageText = `Usage: cyberlens [-config path] <command> [args]

Commands:
  upload  <file>...              store evidence artifacts
  analyze <file_id>...           run the analysis pipeline
  batch   <file_id>...           analyze artifacts as one batch
  report  case  <file_id>        render a case PDF report
  report  batch <batch_id>       render a unified batch PDF report
  hub     search <query>         search persisted cases
  hub     top [n]                rank entities across cases
  hub     profile <entity>       cross-case entity profile
  hub     clusters               detect scam clusters
`

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usageText) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer app.chain.Close()

	if err := app.run(ctx, args[0], args[1:]); err != nil {
		log.Error().Err(err).Str("command", args[0]).Msg("command failed")
		os.Exit(1)
	}
}

// app bundles the wired services behind the CLI commands.
type app struct {
	cfg      *config.Config
	chain    *chainlog.Log
	intake   *services.EvidenceIntake
	pipeline *services.Pipeline
	batch    *services.BatchAnalyzer
	hub      *services.ThreatHub
	reports  *report.Generator
	logger   *logger.Logger
}

func newApp(cfg *config.Config, log *logger.Logger) (*app, error) {
	fileStore, err := store.New(cfg.Storage.DataRoot, cfg.Storage.OSINTTTL, log)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	chain, err := chainlog.Open(cfg.Storage.ChainLogPath(), log)
	if err != nil {
		return nil, fmt.Errorf("init chain log: %w", err)
	}

	fallback := osint.NewFallbackStore(filepath.Join(cfg.Storage.DataRoot, "fallback_osint"), log)
	enricher := osint.NewEnricher(cfg.Sources, fallback, fileStore, log)

	classifier, err := ai.NewClassifier(fileStore, cfg.Classifier.ModelPath, services.LocalEmbedder{}, services.LocalSentiment{}, log)
	if err != nil {
		return nil, fmt.Errorf("init classifier: %w", err)
	}

	regex := services.NewRegexExtractor(log)
	ner := services.NewNERExtractor(services.LocalNER{}, log)
	fusion := services.NewRiskFusion(cfg.Risk, log)
	scanner := services.NewURLScanner(services.NoopQRDecoder{}, enricher, log)

	pipeline := services.NewPipeline(
		services.LocalOCR{}, regex, ner, classifier, enricher, fusion, scanner,
		fileStore, chain,
		services.PipelineConfig{UploadsDir: cfg.Storage.UploadsDir(), Actor: cfg.App.Actor},
		log,
	)

	return &app{
		cfg:      cfg,
		chain:    chain,
		intake:   services.NewEvidenceIntake(cfg.Storage.UploadsDir(), cfg.Upload.AllowedExtensions, scanner, fileStore, chain, cfg.App.Actor, log),
		pipeline: pipeline,
		batch:    services.NewBatchAnalyzer(pipeline, fileStore, chain, cfg.App.Actor, log),
		hub:      services.NewThreatHub(fileStore, log),
		reports:  report.NewGenerator(fileStore, cfg.Storage.ReportsDir(), chain, cfg.App.Actor, log),
		logger:   log.WithComponent("cli"),
	}, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "upload":
		return a.runUpload(ctx, args)
	case "analyze":
		return a.runAnalyze(ctx, args)
	case "batch":
		return a.runBatch(ctx, args)
	case "report":
		return a.runReport(args)
	case "hub":
		return a.runHub(args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) runUpload(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("upload: at least one file required")
	}
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		meta, err := a.intake.Store(ctx, content, filepath.Base(path))
		if err != nil {
			return err
		}
		if err := printJSON(meta); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) runAnalyze(ctx context.Context, fileIDs []string) error {
	if len(fileIDs) == 0 {
		return fmt.Errorf("analyze: at least one file id required")
	}
	for _, fileID := range fileIDs {
		record, err := a.pipeline.Analyze(ctx, fileID)
		if err != nil {
			return err
		}
		if err := printJSON(record); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) runBatch(ctx context.Context, fileIDs []string) error {
	if len(fileIDs) == 0 {
		return fmt.Errorf("batch: at least one file id required")
	}
	record, err := a.batch.Analyze(ctx, fileIDs)
	if err != nil {
		return err
	}
	return printJSON(record)
}

func (a *app) runReport(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("report: expected 'case <file_id>' or 'batch <batch_id>'")
	}

	var path string
	var err error
	switch args[0] {
	case "case":
		path, err = a.reports.CaseReport(args[1])
	case "batch":
		path, err = a.reports.BatchReport(args[1])
	default:
		return fmt.Errorf("report: unknown report type %q", args[0])
	}
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func (a *app) runHub(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("hub: expected search, top, profile or clusters")
	}

	switch args[0] {
	case "search":
		if len(args) != 2 {
			return fmt.Errorf("hub search: query required")
		}
		hits, err := a.hub.Search(args[1])
		if err != nil {
			return err
		}
		return printJSON(hits)
	case "top":
		limit := 10
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("hub top: invalid limit %q", args[1])
			}
			limit = n
		}
		top, err := a.hub.TopEntities(limit)
		if err != nil {
			return err
		}
		return printJSON(top)
	case "profile":
		if len(args) != 2 {
			return fmt.Errorf("hub profile: entity value required")
		}
		profile, err := a.hub.EntityProfile(args[1])
		if err != nil {
			return err
		}
		return printJSON(profile)
	case "clusters":
		clusters, err := a.hub.Clusters()
		if err != nil {
			return err
		}
		return printJSON(clusters)
	default:
		return fmt.Errorf("hub: unknown subcommand %q", args[0])
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
