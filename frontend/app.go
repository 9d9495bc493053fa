package main

import (
	"context"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/kpaschen/fcmerge/explorer"
	"github.com/kpaschen/fcmerge/lib/reporter"
	"github.com/kpaschen/fcmerge/lib/settings"
	"github.com/kpaschen/fcmerge/receiver"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type config struct {
	explorerAddress string
	mergeAddress    string
	metricsAddress  string
	justExplore     bool
	noExplore       bool
}

// mergeRouter serves the merge request endpoint.
func mergeRouter(processor *receiver.MergeProcessor) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/api/v1/merge", processor.ReceiveMergeRequest).Methods("POST")
	return router
}

func serve(server *http.Server, name string, logger *zap.Logger) {
	logger.Info("service listening", zap.String("service", name), zap.String("address", server.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("service failed", zap.String("service", name), zap.Error(err))
	}
}

func run(cfg config, mergeConfig settings.MergeSettings, logger *zap.Logger) error {
	http.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(cfg.metricsAddress, nil)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var processor *receiver.MergeProcessor
	var mergeServer *http.Server
	if !cfg.justExplore {
		store, err := reporter.NewTableStore(mergeConfig, logger)
		if err != nil {
			return err
		}
		processor = receiver.NewMergeProcessor(mergeConfig, store, logger)
		mergeServer = &http.Server{
			Addr:    cfg.mergeAddress,
			Handler: mergeRouter(processor),
		}
		go serve(mergeServer, "merge", logger)
	}

	var explorerServer *http.Server
	if !cfg.noExplore {
		explorerServer = &http.Server{
			Addr:    cfg.explorerAddress,
			Handler: explorer.NewTableExplorer(mergeConfig.ResultsDirectory, logger).Router(),
		}
		go serve(explorerServer, "explorer", logger)
	}

	<-stop
	logger.Info("merge service shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if mergeServer != nil {
		if err := mergeServer.Shutdown(ctx); err != nil {
			logger.Error("merge server shutdown", zap.Error(err))
		}
		// Queued requests still get stored.
		if err := processor.Shutdown(); err != nil {
			logger.Error("closing table store", zap.Error(err))
		}
	}
	if explorerServer != nil {
		if err := explorerServer.Shutdown(ctx); err != nil {
			logger.Error("explorer server shutdown", zap.Error(err))
		}
	}
	return nil
}

func main() {
	var cfg config
	var configFile string
	var debug bool
	v := settings.NewViper()

	cmd := &cobra.Command{
		Use:          "frontend",
		Short:        "Accept merge requests over HTTP and serve the stored result tables",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.BindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			mergeConfig, err := settings.Load(v, configFile)
			if err != nil {
				return err
			}
			var logger *zap.Logger
			if debug {
				logger, err = zap.NewDevelopment()
			} else {
				logger, err = zap.NewProduction()
			}
			if err != nil {
				return err
			}
			defer logger.Sync()
			return run(cfg, mergeConfig, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "optional yaml/json/toml config file")
	flags.BoolVar(&debug, "debug", false, "use a development logger")
	flags.StringVar(&cfg.metricsAddress, "metrics-address", ":9203", "The address the metrics endpoint binds to.")
	flags.StringVar(&cfg.mergeAddress, "listen-address", ":9201", "The address that the merge endpoint binds to.")
	flags.StringVar(&cfg.explorerAddress, "explorer-address", ":9205", "The address that the explorer endpoint binds to.")
	flags.BoolVar(&cfg.justExplore, "just-explore", false, "If true, launch only the explorer endpoint")
	flags.BoolVar(&cfg.noExplore, "no-explore", false, "If true, do not launch the explorer endpoint")
	settings.RegisterFlags(flags)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
