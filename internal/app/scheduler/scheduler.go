// Package scheduler runs the periodic preload job.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	symbolusecase "stock_trend/internal/feature/symbollist/usecase"
	"stock_trend/internal/feature/trend/usecase"
)

// Preloader は銘柄リストをまとめて取り込みます。
type Preloader interface {
	PreloadAll(ctx context.Context, symbols []string) usecase.PreloadReport
}

// Scheduler は cron 式に従って PreloadAll を実行します。
// 前回の実行が終わっていない場合、次の実行はスキップされます。
type Scheduler struct {
	cron      *cron.Cron
	preloader Preloader
	source    symbolusecase.SymbolSource
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a Scheduler. Cron specs include a seconds field.
func New(preloader Preloader, source symbolusecase.SymbolSource) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelError))
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		preloader: preloader,
		source:    source,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Register adds the preload job on spec. An empty spec registers nothing.
func (s *Scheduler) Register(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register preload job: %w", err)
	}
	slog.Info("preload job registered", "cron", spec)
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started")
}

// RunAsync runs one preload in the background, e.g. at start-up.
func (s *Scheduler) RunAsync() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunNow()
	}()
}

// RunNow loads the symbol list and preloads it, returning the report.
func (s *Scheduler) RunNow() usecase.PreloadReport {
	symbols, err := s.source.Symbols(s.ctx)
	if err != nil {
		slog.Error("failed to load preload symbols", "error", err)
		return usecase.PreloadReport{}
	}
	if len(symbols) == 0 {
		slog.Info("no symbols to preload")
		return usecase.PreloadReport{}
	}
	slog.Info("running preload", "symbols", len(symbols))
	return s.preloader.PreloadAll(s.ctx, symbols)
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	slog.Info("scheduler stopped")
}
