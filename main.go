package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"procur/internal/catalog"
	"procur/internal/config"
	"procur/internal/db"
	"procur/internal/logger"
	"procur/internal/pipeline"
	"procur/internal/retrieval"
)

var version = "dev"

const defaultRequest = "Need a CRM for 100 sales seats, must have lead management, pipeline management and email sequences, SOC2 required, budget $120k/year"

func main() {
	requestText := flag.String("request", defaultRequest, "Free-text procurement request")
	vendorsPath := flag.String("vendors", "", "Optional JSON vendor catalog file (seed vendors always load)")
	dbPath := flag.String("db", "", "Optional SQLite path for audit/memory persistence")
	topN := flag.Int("topn", 0, "Shortlist size override")
	flag.Parse()

	logger.Banner(version)

	cfg := config.Default()
	if *topN > 0 {
		cfg.TopN = *topN
	}

	cat := catalog.New()
	if err := cat.LoadSeed(); err != nil {
		logger.Error("catalog", fmt.Sprintf("seed load failed: %v", err))
		os.Exit(1)
	}
	if *vendorsPath != "" {
		n, err := cat.LoadFile(*vendorsPath)
		if err != nil {
			logger.Error("catalog", fmt.Sprintf("vendor file load failed: %v", err))
			os.Exit(1)
		}
		logger.Info("catalog", fmt.Sprintf("loaded %d vendors from %s", n, *vendorsPath))
	}
	logger.Stats("vendors", cat.Len())

	opts := pipeline.Options{}
	var store *db.DB
	if *dbPath != "" {
		var err error
		store, err = db.Open(*dbPath)
		if err != nil {
			logger.Error("DB", fmt.Sprintf("open failed: %v", err))
			os.Exit(1)
		}
		defer store.Close()
		opts.AuditSink = store
		opts.MemSink = store

		// Prior runs seed the retrieval index.
		index, err := retrieval.NewIndex(0)
		if err != nil {
			logger.Error("retrieval", err.Error())
			os.Exit(1)
		}
		if memories, err := store.LoadMemories(context.Background()); err == nil {
			for _, m := range memories {
				index.Add(m)
			}
			logger.Info("retrieval", fmt.Sprintf("indexed %d prior negotiations", len(memories)))
		}
		opts.Index = index
	}

	p, err := pipeline.New(cfg, cat, opts)
	if err != nil {
		logger.Error("pipeline", err.Error())
		os.Exit(1)
	}

	ctx := context.Background()
	result, err := p.RunText(ctx, *requestText, "standard procurement policy")
	if err != nil {
		logger.Error("pipeline", err.Error())
		os.Exit(1)
	}

	if len(result.Clarifications) > 0 {
		logger.Section("clarifications needed")
		for _, c := range result.Clarifications {
			logger.Info("intake", fmt.Sprintf("%s: %s", c.Field, c.Question))
		}
		return
	}

	printResult(result)

	if store != nil {
		runID := store.InsertRunResult(result.Request.RequestID, result.Request.Status, result.Elapsed)
		store.InsertOutcomes(runID, result.Outcomes)
		logger.Success("DB", fmt.Sprintf("run %d persisted", runID))
	}
}

func printResult(result *pipeline.Result) {
	logger.Section("shortlist")
	for _, e := range result.Shortlist {
		logger.Stats(e.VendorID, fmt.Sprintf("%s composite=%.3f features=%.2f", e.Name, e.Summary.Composite, e.Summary.FeatureScore))
	}

	logger.Section("outcomes")
	for _, o := range result.Outcomes {
		line := fmt.Sprintf("%s after %d rounds", o.State, o.Rounds)
		if o.FinalOffer != nil {
			line = fmt.Sprintf("%s at %.2f/unit, savings %.2f", line, o.FinalOffer.Components.UnitPrice, o.Savings)
		} else if o.Reason != "" {
			line += " (" + o.Reason + ")"
		}
		logger.Stats(o.VendorID, line)
	}

	logger.Section("recommendations")
	for _, r := range result.Recommendations {
		logger.Stats(r.Kind, fmt.Sprintf("%s at %.2f/unit, TCO %.2f, savings %.2f", r.VendorID, r.Offer.Components.UnitPrice, r.TCO, r.Savings))
		for _, b := range r.Bullets {
			logger.Info(r.Kind, "- "+b)
		}
	}

	logger.Section("vendor report")
	for _, v := range result.Vendors {
		line := fmt.Sprintf("%s: %s", v.VendorName, v.State)
		if v.FinalPrice > 0 {
			line = fmt.Sprintf("%s at %.2f/unit, %dmo %s, composite %.3f", line, v.FinalPrice, v.TermMonths, v.PaymentTerms, v.Composite)
		} else if v.OutcomeReason != "" {
			line += " (" + v.OutcomeReason + ")"
		}
		logger.Stats(v.VendorID, line)
		logger.Info(v.VendorID, fmt.Sprintf("support %s, SLA %.1f%%, %d rounds, %d moves",
			v.Support.Tier, v.Support.SLAPct, v.AuditSummary.Rounds, v.AuditSummary.Moves))
	}
	if len(result.Approvals) > 0 {
		logger.Stats("approvals", result.Approvals)
	}
	logger.Stats("audit events", len(result.Audit.Events))
	logger.Stats("elapsed", result.Elapsed)
}
