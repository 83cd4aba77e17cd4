package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/shanehull/asxreport/internal/ai"
	"github.com/shanehull/asxreport/internal/asx"
	"github.com/shanehull/asxreport/internal/config"
	"github.com/shanehull/asxreport/internal/history"
	"github.com/shanehull/asxreport/internal/notify"
	"github.com/shanehull/asxreport/internal/prices"
	"github.com/shanehull/asxreport/internal/report"
)

// app wires one report run: assemble, save, then optionally digest and email.
type app struct {
	cfg        *config.Config
	opts       options
	loc        *time.Location
	assembler  *report.Assembler
	summarizer *ai.Summarizer
	renderer   notify.Renderer
	sender     *notify.EmailSender
	ledger     *history.Manager
	out        io.Writer
	logger     *zap.Logger
}

func newApp(ctx context.Context, cfg *config.Config, opts options, log *zap.Logger) (*app, error) {
	loc := cfg.Location()

	schema, err := asx.NewListingSchema(cfg.Listing.TableSelector, cfg.Listing.BaseURL, loc)
	if err != nil {
		return nil, err
	}
	fetcher := asx.NewFetcher(cfg.Listing, schema, log)
	priceClient := prices.NewClient(cfg.Prices, loc, log)

	pipeline := report.NewPipeline(fetcher, asx.NewParser(schema), priceClient, log,
		report.WithWorkers(cfg.Prices.Workers),
		report.WithClock(func() time.Time { return time.Now().In(loc) }),
	)

	summarizer, err := ai.NewSummarizer(ctx, cfg.AI, log)
	if err != nil {
		return nil, err
	}

	ledger, err := history.NewManager(cfg.Timezone, log)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		opts:       opts,
		loc:        loc,
		assembler:  report.NewAssembler(pipeline, log),
		summarizer: summarizer,
		renderer:   notify.NewHTMLEmailRenderer(),
		sender:     notify.NewEmailSender(cfg.Email, log),
		ledger:     ledger,
		out:        os.Stdout,
		logger:     log,
	}, nil
}

func (a *app) runOnce(ctx context.Context) error {
	log := a.logger.With(zap.String("run_id", uuid.NewString()))
	start := time.Now()
	log.Info("report run started")

	rep, err := a.assembler.Assemble(ctx)
	if err != nil {
		return fmt.Errorf("failed to assemble report: %w", err)
	}

	path, err := report.OutputPath(a.cfg.Output.Dir, a.cfg.Output.PathTemplate, rep.Date)
	if err != nil {
		return err
	}
	if err := report.Save(path, rep.Table); err != nil {
		return err
	}
	log.Info("report saved",
		zap.String("path", path),
		zap.String("report_date", rep.Date.Format("2006-01-02")),
		zap.Int("rows", len(rep.Table)),
	)

	data := notify.ReportData{
		Date:        rep.Date,
		GeneratedAt: time.Now().In(a.loc),
		Filename:    filepath.Base(path),
		Table:       rep.Table,
		Listings:    rep.Listings,
	}

	if err := a.deliver(ctx, log, &data, path); err != nil {
		return err
	}

	notify.PrintSummary(a.out, data, path)
	log.Info("report run finished", zap.Duration("took", time.Since(start)))
	return nil
}

func (a *app) deliver(ctx context.Context, log *zap.Logger, data *notify.ReportData, path string) error {
	switch {
	case a.opts.noEmail:
		log.Info("email delivery disabled by flag")
		return nil
	case !a.sender.Enabled():
		log.Info("email delivery not configured")
		return nil
	case a.ledger.Delivered(data.Date) && !a.opts.force:
		log.Info("report already delivered, skipping email",
			zap.String("report_date", data.Date.Format("2006-01-02")),
			zap.String("history", a.ledger.HistoryFilePath()),
		)
		return nil
	}

	digest, err := a.summarizer.Digest(ctx, data.Table)
	if err != nil {
		log.Warn("failed to generate digest, sending without it", zap.Error(err))
	}
	data.Digest = digest

	msg, err := a.renderer.Render(*data)
	if err != nil {
		return err
	}
	if err := a.sender.Send(ctx, msg, path); err != nil {
		return fmt.Errorf("failed to email report: %w", err)
	}

	if err := a.ledger.RecordDelivery(data.Date); err != nil {
		log.Warn("failed to record delivery", zap.Error(err))
	}
	return nil
}

// schedule runs the report on the cron expr in the exchange time zone until ctx is
// cancelled. Overlapping runs are skipped.
func (a *app) schedule(ctx context.Context, expr string) error {
	cronLog := cron.PrintfLogger(zap.NewStdLog(a.logger.Named("cron")))
	c := cron.New(
		cron.WithLocation(a.loc),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	if _, err := c.AddFunc(expr, func() {
		if err := a.runOnce(ctx); err != nil {
			a.logger.Error("report run failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}

	c.Start()
	a.logger.Info("scheduler started", zap.String("schedule", expr), zap.String("timezone", a.loc.String()))

	<-ctx.Done()
	a.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	return nil
}
