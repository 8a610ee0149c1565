// Package cmd defines the command-line interface for makan.
package cmd

import (
	"github.com/GarnettJZ/makan-apa/internal/contract"
	"github.com/GarnettJZ/makan-apa/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(gapsCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("week", "", "Any date (YYYY-MM-DD) in the target week (default: this week)")
	rootCmd.PersistentFlags().Bool("filter-week", false, "Drop dated records that fall outside the target week")
	rootCmd.PersistentFlags().Float64("day-start", contract.DefaultDayStart, "Start of the day window in hours")
	rootCmd.PersistentFlags().Float64("day-end", contract.DefaultDayEnd, "End of the day window in hours")
	rootCmd.PersistentFlags().Float64("min-gap", contract.DefaultMinGap, "Minimum personal gap in hours")
	rootCmd.PersistentFlags().Float64("min-mutual", contract.DefaultMinMutual, "Minimum mutual gap in hours")
	rootCmd.PersistentFlags().String("days", contract.DefaultDays, "Comma-separated days to consider")
	rootCmd.PersistentFlags().Bool("trailing-gap", false, "Count the free time after the last class of the day")
	rootCmd.PersistentFlags().String("source", string(schema.APUSource), "Timetable source: apu or apspace or file")
	rootCmd.PersistentFlags().String("source-url", "", "Override the timetable endpoint URL")
	rootCmd.PersistentFlags().String("source-file", "", "Path to a .json or .csv timetable for the file source")
	rootCmd.PersistentFlags().String("timeout", contract.DefaultTimeout.String(), "HTTP timeout per request")
	rootCmd.PersistentFlags().Float64("rate-limit", contract.DefaultRateLimit, "Maximum upstream requests per second")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Bool("detail", false, "Print per-person gap tables")
	rootCmd.PersistentFlags().Bool("classes", false, "Include class rows in per-person output")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("emoji", "yes", "Enable emojis in headers (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or redis or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Connection string for mysql/postgresql/redis (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("cache-ttl", contract.DefaultCacheTTL.String(), "How long a cached timetable stays fresh")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of cacheMigrateCmd to Viper
	cacheMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(cacheMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding cache migrate flags", err)
	}
}
