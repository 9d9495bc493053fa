package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/kpaschen/fcmerge/lib/loader"
	"github.com/kpaschen/fcmerge/lib/merge"
	"github.com/kpaschen/fcmerge/lib/reporter"
	"github.com/kpaschen/fcmerge/lib/settings"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// inputFiles names the csv files a merge run reads.
type inputFiles struct {
	clusters     string
	clusterDir   string
	transcripts  string
	metabolites  string
	coexpression string
	targetedList string
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadInputs(l *loader.Loader, files inputFiles, config *settings.MergeSettings) (merge.Inputs, error) {
	var in merge.Inputs
	var err error

	switch {
	case files.clusters != "" && files.clusterDir != "":
		return in, errors.New("use only one of --clusters and --cluster-dir")
	case files.clusters != "":
		in.Clusters, err = l.LoadClusterTable(files.clusters)
	case files.clusterDir != "":
		in.Clusters, err = l.LoadClusterDirectory(files.clusterDir)
	default:
		return in, errors.New("one of --clusters or --cluster-dir is required")
	}
	if err != nil {
		return in, fmt.Errorf("loading clusters: %w", err)
	}

	// Every method needs the metabolite universe to split members.
	if files.transcripts == "" || files.metabolites == "" {
		return in, errors.New("--transcripts and --metabolites are required")
	}
	in.Transcripts, in.Metabolites, err = l.LoadFeatureTables(files.transcripts, files.metabolites)
	if err != nil {
		return in, fmt.Errorf("loading feature tables: %w", err)
	}

	if files.coexpression != "" {
		in.Coexpression, err = l.LoadCoexpressionEdges(files.coexpression)
		if err != nil {
			return in, fmt.Errorf("loading coexpression edges: %w", err)
		}
	}

	if files.targetedList != "" {
		config.AnchorFeatures, err = l.LoadAnchorList(files.targetedList)
		if err != nil {
			return in, fmt.Errorf("loading targeted list: %w", err)
		}
	}
	return in, nil
}

// run loads the inputs, merges and stores the result table.
func run(ctx context.Context, files inputFiles, config settings.MergeSettings, logger *zap.Logger) (*merge.Output, error) {
	in, err := loadInputs(loader.NewLoader(logger), files, &config)
	if err != nil {
		return nil, err
	}

	out, err := merge.NewMerger(config, logger).Run(ctx, in)
	if err != nil {
		return nil, err
	}

	store, err := reporter.NewTableStore(config, logger)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	if err = reporter.Publish(ctx, store, out, config.AssociationMatrixFile, logger); err != nil {
		return nil, err
	}
	return out, nil
}

func newRootCommand() *cobra.Command {
	var configFile string
	var debug bool
	var files inputFiles
	v := settings.NewViper()

	cmd := &cobra.Command{
		Use:          "merge_clusters",
		Short:        "Merge gene/metabolite clusters from several clustering runs",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.BindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			config, err := settings.Load(v, configFile)
			if err != nil {
				return err
			}
			logger, err := newLogger(debug)
			if err != nil {
				return err
			}
			defer logger.Sync()

			out, err := run(cmd.Context(), files, config, logger)
			if err != nil {
				logger.Error("merge failed", zap.Error(err))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote table %s with %d merged clusters\n",
				out.Table.Name, len(out.Merged))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "optional yaml/json/toml config file")
	flags.BoolVar(&debug, "debug", false, "use a development logger")
	flags.StringVar(&files.clusters, "clusters", "", "cluster table with columns ID, Members, Source")
	flags.StringVar(&files.clusterDir, "cluster-dir", "", "directory of per decay rate cluster files (*_DR_<n>.csv)")
	flags.StringVar(&files.transcripts, "transcripts", "", "transcript feature table (gene x sample)")
	flags.StringVar(&files.metabolites, "metabolites", "", "metabolite feature table (metabolite x sample)")
	flags.StringVar(&files.coexpression, "coexpression", "", "coexpression edge table with columns gene1, gene2, edgeweight")
	flags.StringVar(&files.targetedList, "targeted-list", "", "targeted list whose metabolites become the overlap anchors")
	settings.RegisterFlags(flags)
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
