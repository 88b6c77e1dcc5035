package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rzzdr/options-risk-engine/config"
	"github.com/rzzdr/options-risk-engine/internal/feed"
	"github.com/rzzdr/options-risk-engine/internal/risk"
	"github.com/rzzdr/options-risk-engine/internal/sink"
	"github.com/rzzdr/options-risk-engine/internal/store"
	"github.com/rzzdr/options-risk-engine/pkg/api"
	"github.com/rzzdr/options-risk-engine/pkg/metrics"
	"github.com/rzzdr/options-risk-engine/pkg/utils/logger"
)

var (
	once = flag.Bool("once", false, "Process a single snapshot and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", "production")
		logger.GetLogger("risk-engine.main").Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	defer logger.Sync()

	log := logger.GetLogger("risk-engine.main")
	log.Infof("Starting %s", cfg.App.Name)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recorder := metrics.NewRecorder()

	source, err := newSource(cfg)
	if err != nil {
		log.Fatalf("Failed to create snapshot source: %v", err)
	}
	defer source.Close()

	engine := risk.NewEngine(risk.EngineConfig{
		RiskFreeRate:      cfg.Engine.RiskFreeRate,
		ExpiryGraceWindow: cfg.Engine.ExpiryGraceWindow,
		Analyzer: risk.AnalyzerConfig{
			ReferenceIndexPrice:  cfg.Engine.ReferenceIndexPrice,
			ConcentrationFlagPct: cfg.Engine.ConcentrationFlagPct,
			DeltaFlagShares:      cfg.Engine.DeltaFlagShares,
			ThetaFlagPerDay:      cfg.Engine.ThetaFlagPerDay,
			Betas:                cfg.Engine.Betas,
			Sectors:              cfg.Engine.Sectors,
		},
	})

	latestStore := store.NewLatestStore()
	betaStore := store.NewBetaStore()

	hub, sinks, err := newSinks(cfg)
	if err != nil {
		log.Fatalf("Failed to create sinks: %v", err)
	}
	out := sink.NewMulti(sinks...)
	out.OnError = recorder.RecordSinkError
	defer out.Close()

	if *once {
		if err := runCycle(ctx, cfg, source, engine, out, latestStore, betaStore, recorder); err != nil {
			log.Fatalf("Cycle failed: %v", err)
		}
		log.Info("Single snapshot processed")
		return
	}

	server := api.NewServer(cfg.API, latestStore, betaStore, hub, recorder, cfg.Metrics.Enabled)

	g, gctx := errgroup.WithContext(ctx)

	if hub != nil {
		g.Go(func() error {
			hub.Run(gctx)
			return nil
		})
	}

	g.Go(server.Start)

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
		defer cancel()
		return server.Stop(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.Engine.SnapshotInterval)
		defer ticker.Stop()

		for {
			if err := runCycle(gctx, cfg, source, engine, out, latestStore, betaStore, recorder); err != nil {
				if gctx.Err() != nil {
					return nil
				}
				log.Errorf("Cycle failed: %v", err)
			}

			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	log.Info("Risk engine started")

	if err := g.Wait(); err != nil {
		log.Fatalf("Shutdown with error: %v", err)
	}
	log.Info("Shutdown complete")
}

// runCycle pulls one snapshot, computes exposures and risk, publishes the
// result and records metrics.
func runCycle(
	ctx context.Context,
	cfg *config.Config,
	source feed.Source,
	engine *risk.Engine,
	out sink.Sink,
	latest *store.LatestStore,
	betas *store.BetaStore,
	recorder *metrics.Recorder,
) error {
	snap, err := source.Next(ctx)
	if err != nil {
		return err
	}
	if snap.Account == "" {
		snap.Account = cfg.App.Account
	}

	start := time.Now()
	res := engine.Cycle(snap, betas.Snapshot())
	recorder.RecordCycle(time.Since(start), res)

	latest.Set(res)

	return out.Emit(ctx, res)
}

func newSource(cfg *config.Config) (feed.Source, error) {
	switch cfg.Feed.Source {
	case "kafka":
		return feed.NewKafka(feed.KafkaConfig{
			Brokers: cfg.Feed.Kafka.Brokers,
			Topic:   cfg.Feed.Kafka.Topic,
			GroupID: cfg.Feed.Kafka.GroupID,
		})
	default:
		return feed.NewFile(cfg.Feed.File.Path)
	}
}

func newSinks(cfg *config.Config) (*sink.Hub, []sink.Sink, error) {
	var sinks []sink.Sink

	if cfg.Sink.JSONL.Enabled {
		s, err := sink.NewJSONL(cfg.Sink.JSONL.Path)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, s)
	}

	if cfg.Sink.Kafka.Enabled {
		s, err := sink.NewKafka(sink.KafkaConfig{
			Brokers:      cfg.Sink.Kafka.Brokers,
			Topic:        cfg.Sink.Kafka.Topic,
			BatchTimeout: cfg.Sink.Kafka.BatchTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, s)
	}

	var hub *sink.Hub
	if cfg.Sink.WebSocket.Enabled {
		hub = sink.NewHub()
		sinks = append(sinks, hub)
	}

	return hub, sinks, nil
}
