package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/brokerclient/pkg/brokerclient"
)

var (
	cfg           brokerclient.Config
	topic         string
	numPartitions int
	numRecords    int
)

func init() {
	cfg.RegisterFlags(flag.CommandLine)
	flag.StringVar(&topic, "topic", "brokerclient-bench", "topic to create and produce to")
	flag.IntVar(&numPartitions, "partitions", 1, "partitions to create the topic with")
	flag.IntVar(&numRecords, "records", 10000, "number of records to produce")
}

func main() {
	flag.Parse()
	if len(cfg.SeedBrokers) == 0 {
		cfg.SeedBrokers = []string{"localhost:9092"}
	}

	logger := log.NewLogfmtLogger(os.Stderr)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	metrics := brokerclient.NewMetrics(prometheus.DefaultRegisterer)

	if err := run(logger, metrics); err != nil {
		level.Error(logger).Log("msg", "bench run failed", "err", err)
		os.Exit(1)
	}
}

func run(logger log.Logger, metrics *brokerclient.Metrics) error {
	ctx := context.Background()

	conn, err := brokerclient.NewBrokerConnectorFromConfig(cfg, logger, metrics)
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close()

	cc := brokerclient.NewControllerClient(conn, nil, logger, metrics)
	if err := cc.CreateTopic(ctx, topic, int32(numPartitions), 1, 10*time.Second); err != nil {
		level.Warn(logger).Log("msg", "create topic failed, assuming it already exists", "topic", topic, "err", err)
	}

	pc := brokerclient.NewPartitionClient(conn, topic, 0, nil, logger, metrics)
	bp := brokerclient.NewBatchProducer(pc, cfg.MaxBatchBytes, cfg.Linger, logger, metrics)

	start := time.Now()
	for i := 0; i < numRecords; i++ {
		rec := brokerclient.Record{
			Value:     []byte(fmt.Sprintf("record-%d", i)),
			Timestamp: time.Now(),
		}
		if _, err := bp.Produce(ctx, rec); err != nil {
			return fmt.Errorf("producing record %d: %w", i, err)
		}
	}
	elapsed := time.Since(start)

	level.Info(logger).Log("msg", "bench complete", "records", numRecords, "elapsed", elapsed, "records_per_sec", float64(numRecords)/elapsed.Seconds())
	return nil
}
