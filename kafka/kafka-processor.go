package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	messages "github.com/kpaschen/fcmerge/lib/kafka"
	"github.com/kpaschen/fcmerge/lib/reporter"
	"github.com/kpaschen/fcmerge/lib/settings"
	"github.com/kpaschen/fcmerge/receiver"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	kafka "github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// messageReader is the part of kafka.Reader the worker uses.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

func decodeMergeRequest(msg kafka.Message) (*messages.MergeRequest, error) {
	req := &messages.MergeRequest{}
	if err := json.Unmarshal(msg.Value, req); err != nil {
		return nil, err
	}
	if req.RequestID == "" {
		req.RequestID = string(msg.Key)
	}
	return req, nil
}

// worker runs merge requests read from kafka one at a time. Result tables
// are published by a kafka reporter that tags them with the request id.
type worker struct {
	reader    messageReader
	processor *receiver.MergeProcessor
	tables    *reporter.KafkaReporter
	logger    *zap.Logger
}

// consume returns when ctx is cancelled. A request that fails is logged
// and skipped.
func (w *worker) consume(ctx context.Context) error {
	w.logger.Info("kafka worker waiting for merge requests")
	for {
		msg, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("failed to read merge request", zap.Error(err))
			continue
		}
		w.logger.Info("received merge request",
			zap.String("key", string(msg.Key)), zap.Int("partition", msg.Partition))
		req, err := decodeMergeRequest(msg)
		if err != nil {
			w.logger.Error("failed to decode merge request", zap.Error(err))
			continue
		}
		if w.tables != nil {
			w.tables.RequestID = req.RequestID
		}
		if err = w.processor.Process(ctx, req); err != nil {
			w.logger.Error("merge request failed", zap.String("requestId", req.RequestID), zap.Error(err))
		}
	}
}

func newRootCommand() *cobra.Command {
	var configFile string
	var debug bool
	var groupID string
	var metricsAddr string
	v := settings.NewViper()

	cmd := &cobra.Command{
		Use:          "kafka-processor",
		Short:        "Run merge requests from kafka and publish the result tables",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.BindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			config, err := settings.Load(v, configFile)
			if err != nil {
				return err
			}
			if config.KafkaURL == "" {
				return errors.New("--kafka-url is required")
			}
			logger, err := newLogger(debug)
			if err != nil {
				return err
			}
			defer logger.Sync()

			reader := kafka.NewReader(kafka.ReaderConfig{
				Brokers: []string{config.KafkaURL},
				GroupID: groupID,
				Topic:   messages.REQUEST_TOPIC,
			})
			defer reader.Close()

			tables := reporter.NewKafkaReporter(config.KafkaURL, config.KafkaTopic, logger)
			processor := receiver.NewMergeProcessor(config, tables, logger)
			defer processor.Shutdown()

			http.Handle("/metrics", promhttp.Handler())
			go func() {
				if err := http.ListenAndServe(metricsAddr, nil); err != nil {
					logger.Error("metrics endpoint failed", zap.Error(err))
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			w := &worker{reader: reader, processor: processor, tables: tables, logger: logger}
			return w.consume(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "optional yaml/json/toml config file")
	flags.BoolVar(&debug, "debug", false, "use a development logger")
	flags.StringVar(&groupID, "group-id", "fcmerge", "kafka consumer group")
	flags.StringVar(&metricsAddr, "metrics-address", ":9203", "The address the metrics endpoint binds to.")
	settings.RegisterFlags(flags)
	return cmd
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
