package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"main/internal/engine"
	"main/internal/event"
	"main/internal/execution"
	"main/internal/feed"
	"main/internal/ops"
	"main/internal/strategy"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/joho/godotenv"
	"github.com/yanun0323/logs"
)

func main() {
	if err := run(); err != nil {
		logs.Errorf("trader: %+v", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "trader.json", "config file path")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := ops.Load(*configFlag)
	if err != nil {
		return err
	}

	if addr := os.Getenv("PYROSCOPE_SERVER_ADDRESS"); addr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "trader",
			ServerAddress:   addr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileInuseObjects,
			},
		})
		if err != nil {
			logs.Errorf("pyroscope start, err: %+v", err)
		} else {
			defer profiler.Stop()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue := event.NewQueue(cfg.QueueCapacity)
	rec := execution.NewReconciler(queue, cfg.AckWait)

	var handler execution.Handler
	switch cfg.Broker {
	case "rest":
		handler = execution.NewRestBroker(execution.RestBrokerConfig{
			Domain:      cfg.Domain,
			AccessToken: cfg.AccessToken,
			AccountID:   cfg.AccountID,
			MaxRetries:  cfg.SubmitRetries,
		}, rec)
	case "socket":
		broker := execution.NewSocketBroker(ctx, execution.SocketBrokerConfig{
			URL:          cfg.SocketURL,
			OrderRouting: cfg.OrderRouting,
			Currency:     cfg.Currency,
		}, rec)
		if err := broker.Start(ctx); err != nil {
			return err
		}
		defer broker.Close()
		handler = broker
	default:
		handler = execution.NewSimulated(rec)
	}

	stream := feed.NewOandaStream(cfg.StreamDomain, cfg.AccessToken, cfg.AccountID, cfg.Pairs)
	priceFeed := feed.New(stream, queue)
	sizer := strategy.NewSizer(cfg.DefaultUnits, cfg.UnitsPerPair)

	eng := engine.New(engine.Config{}, queue, priceFeed, strategy.Noop{}, sizer, handler, rec)

	logs.Infof("trader started, broker %s, pairs %v", cfg.Broker, cfg.Pairs)
	eng.Run(ctx)
	return nil
}
