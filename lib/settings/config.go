package settings

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ENV_PREFIX is prepended to every key for environment overrides,
// e.g. FCMERGE_DECAY_RATE.
const ENV_PREFIX = "FCMERGE"

// Keys of MergeSettings as they appear in config files and, upper-cased,
// in the environment.
var settingKeys = []string{
	"decay_rate", "method", "threshold", "inflation", "expansion",
	"max_iterations", "prune_threshold", "workers", "anchor_features",
	"results_directory", "store", "kafka_url", "kafka_topic", "redis_address",
	"max_rows_per_row_group", "association_matrix_file",
}

func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	v.SetDefault("threshold", DEFAULT_THRESHOLD)
	v.SetDefault("prune_threshold", DEFAULT_PRUNE_THRESHOLD)
	for _, key := range settingKeys {
		// Unmarshal only sees environment values for keys viper knows about.
		v.BindEnv(key)
	}
	return v
}

// RegisterFlags adds one command line flag per setting. Flag names use
// dashes where the setting keys use underscores.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.Int("decay-rate", 0, "decay rate of the upstream clustering run to merge; 0 means all")
	flags.String("method", METHOD_OVERLAP, "merge method: overlap, fingerprinting or coexpression")
	flags.Float64("threshold", DEFAULT_THRESHOLD, "similarity or edge weight cutoff in [0,1]")
	flags.Float64("inflation", 2.0, "MCL inflation, must be > 1")
	flags.Int("expansion", 2, "MCL expansion power")
	flags.Int("max-iterations", 100, "maximum number of MCL iterations")
	flags.Float64("prune-threshold", DEFAULT_PRUNE_THRESHOLD, "MCL entries below this are dropped; 0 keeps all")
	flags.Int("workers", 0, "worker pool size; 0 means one per cpu")
	flags.StringSlice("anchor-features", nil, "explicit overlap anchors; defaults to all metabolites")
	flags.String("results-directory", "/tmp/fcmergeResults", "directory for parquet and csv tables")
	flags.String("store", STORE_PARQUET, "table store: parquet, csv, kafka or redis")
	flags.String("kafka-url", "", "kafka broker address")
	flags.String("kafka-topic", "fcmerge_tables", "kafka topic for result tables")
	flags.String("redis-address", "localhost:6379", "redis address for the redis store")
	flags.Int64("max-rows-per-row-group", 100000, "number of rows per row group in parquet")
	flags.String("association-matrix-file", "", "if set, write the fingerprint association matrix here as csv")
}

// BindFlags makes every flag registered by RegisterFlags override the
// corresponding setting when it is set on the command line.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, key := range settingKeys {
		flag := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the optional config file, applies environment and flag
// overrides, fills defaults and validates the result.
func Load(v *viper.Viper, configFile string) (MergeSettings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return MergeSettings{}, fmt.Errorf("failed to read config file %q: %w", configFile, err)
		}
	}
	var s MergeSettings
	if err := v.Unmarshal(&s); err != nil {
		return MergeSettings{}, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	s = s.ComputeSettingsFields()
	if err := s.Validate(); err != nil {
		return MergeSettings{}, err
	}
	return s, nil
}
