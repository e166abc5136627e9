// Command iotwatchd runs the behavioral traffic pipeline daemon: burst
// assembly, standardization, periodic filtering, and event prediction over
// a live (or replayed) packet stream. Follows
// flow-enricher/cmd/flow-enricher/main.go: flag-based configuration, a
// Prometheus /metrics endpoint, signal.NotifyContext for graceful
// shutdown, and a --pcap-input replay mode in place of a live capture
// driver (out of scope per spec.md §1; see internal/registry.Static* for
// the standalone external-collaborator adapters this binary wires in).
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"log/slog"

	"github.com/fenwicklabs/iotwatch/internal/cache"
	"github.com/fenwicklabs/iotwatch/internal/capture"
	"github.com/fenwicklabs/iotwatch/internal/config"
	"github.com/fenwicklabs/iotwatch/internal/filter"
	"github.com/fenwicklabs/iotwatch/internal/idle"
	"github.com/fenwicklabs/iotwatch/internal/metrics"
	"github.com/fenwicklabs/iotwatch/internal/modelstore"
	"github.com/fenwicklabs/iotwatch/internal/pipeline"
	"github.com/fenwicklabs/iotwatch/internal/predict"
	"github.com/fenwicklabs/iotwatch/internal/registry"
	"github.com/fenwicklabs/iotwatch/internal/resolver"
	"github.com/fenwicklabs/iotwatch/internal/standardize"
	"github.com/fenwicklabs/iotwatch/internal/types"
)

var (
	showVersion = flag.Bool("version", false, "print version information and exit")
	metricsAddr = flag.String("metrics-addr", "127.0.0.1:2112", "The address the metrics endpoint binds to")
	verbose     = flag.Bool("verbose", false, "set debug logging level")

	devicesFile = flag.String("devices-file", "", "Path to a JSON {mac: product_name} device registry file")
	arpFile     = flag.String("arp-file", "", "Path to a JSON {ip: mac} ARP cache file")
	idleFile    = flag.String("idle-set-file", "idle-devices.json", "Path to the JSON-persisted idle-device set")
	pcapInput   = flag.String("pcap-input", "", "Replay packets from a pcap file instead of waiting on a live feed")
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("version: %s\ncommit: %s\ndate: %s\n", version, commit, date)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: level, TimeFormat: time.Kitchen}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	reg := prometheus.WrapRegistererWithPrefix("iotwatch_", prometheus.DefaultRegisterer)

	devices, err := registry.LoadStaticDeviceRegistry(*devicesFile)
	if err != nil {
		logger.Error("failed to load device registry", "err", err)
		os.Exit(1)
	}
	arp, err := registry.LoadStaticARPCache(*arpFile)
	if err != nil {
		logger.Error("failed to load ARP cache", "err", err)
		os.Exit(1)
	}
	idleSet, err := idle.LoadJSONIdleSet(*idleFile)
	if err != nil {
		logger.Error("failed to load idle-device set", "err", err)
		os.Exit(1)
	}

	cacheMetrics := metrics.NewCacheMetrics(reg)
	store := modelstore.NewStore(cfg.ModelsRoot, cfg.CacheTTL, cfg.CacheCapacity, cacheMetrics)
	models := resolver.NewModelResolver(cfg.ModelsRoot+"/binary/rf", resolver.DefaultAliasTable(), cfg.FuzzyMatchThreshold)

	products := cache.New[string, string]("device_product",
		cache.WithTTL[string, string](cfg.CacheTTL), cache.WithCapacity[string, string](cfg.CacheCapacity), cache.WithMetrics[string, string](cacheMetrics))
	macs := cache.New[string, []string]("device_mac_list",
		cache.WithTTL[string, []string](cfg.CacheTTL), cache.WithCapacity[string, []string](cfg.CacheCapacity), cache.WithMetrics[string, []string](cacheMetrics))

	gate := pipeline.NewGate()
	burstQueue := pipeline.NewQueue[types.BFV](cfg.QueueCapacity)
	ssQueue := pipeline.NewQueue[types.SBFV](cfg.QueueCapacity)
	filteredQueue := pipeline.NewQueue[types.SBFV](cfg.QueueCapacity)

	assembler := capture.NewAssembler(arp, burstQueue, metrics.NewAssemblerMetrics(reg),
		capture.WithBurstWindowSeconds(cfg.BurstWindow.Seconds()), capture.WithLogger(logger))

	idleRecorder := idle.NewRecorder(cfg.ProjectRoot+"/idle-data", idleSet, metrics.NewIdleRecorderMetrics(reg))

	stdStage := standardize.NewStage(devices, models, store, products, burstQueue, ssQueue, metrics.NewStandardizerMetrics(reg), logger)
	filterStage := filter.NewStage(devices, models, store, products, macs, devices, ssQueue, filteredQueue, metrics.NewFilterMetrics(reg), logger)

	events := predict.NewEventQueue()
	predictStage := predict.NewStage(devices, models, store, products, events, filteredQueue, metrics.NewPredictorMetrics(reg), logger)

	orch := pipeline.NewOrchestrator(gate, pipeline.Stages{
		Assembler:     assembler,
		IdleRec:       idleRecorder,
		Std:           stdStage,
		Filt:          filterStage,
		Pred:          predictStage,
		BurstQueue:    burstQueue,
		SSQueue:       ssQueue,
		FilteredQueue: filteredQueue,
	}, 8, logger)

	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "burst_queue_dropped_total",
		Help: "Total number of BFVs dropped from the burst queue due to backpressure",
	}, func() float64 { return float64(burstQueue.DroppedTotal()) })

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", "err", err)
		}
	}()

	if *pcapInput != "" {
		go func() {
			if err := capture.ReplayPcapFile(ctx, *pcapInput, registry.NullHostnameResolver{}, orch.OnPacket); err != nil {
				logger.Error("pcap replay failed", "err", err)
			}
		}()
	}

	logger.Info("starting iotwatchd", "models_root", cfg.ModelsRoot, "metrics_addr", *metricsAddr)
	orch.Run(ctx, cfg.BurstWindow)
	logger.Info("iotwatchd stopped")
}
