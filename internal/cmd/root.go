// Package cmd provides the command-line interface for seoplanner.
// It handles command parsing, configuration loading and wiring of the
// planner service, its store and its adapters.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/masahif/seoplanner/internal/config"
	"github.com/masahif/seoplanner/internal/logging"
)

var (
	cfgFile   string
	version   string
	buildTime string

	logCloser io.Closer
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func init() {
	cobra.OnInitialize(initConfig)
}

// Execute runs the command tree
func Execute() error {
	defer closeLog()
	return rootCmd.Execute()
}

// SetVersionInfo sets version information for the CLI
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "seoplanner",
		Short: "A semantic SEO content planner",
		Long: `seoplanner plans topical coverage for a website.

It keeps projects, topical maps, entities, attributes, content briefs and
internal links in a local SQLite database, discovers a project's semantic
framework with an AI provider, and exports plans as JSON, CSV, Excel or
Markdown.`,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
		RunE:              runRoot,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./seoplanner.yml or ./config/seoplanner.yml)")
	root.PersistentFlags().StringP("database", "d", "", "Path to SQLite database file")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "", "Log format: json or text")
	root.PersistentFlags().String("log-file", "", "Also write logs to this file")

	root.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")

	bindFlags(root.PersistentFlags(), map[string]string{
		"database.path": "database",
		"log.level":     "log-level",
		"log.format":    "log-format",
		"log.file":      "log-file",
	})

	root.AddCommand(
		newProjectCmd(),
		newMapCmd(),
		newEntityCmd(),
		newAttributeCmd(),
		newBriefCmd(),
		newLinkCmd(),
		newPublicationCmd(),
		newDiscoverCmd(),
		newModelsCmd(),
		newDBCmd(),
		newAuditCmd(),
		newServeCmd(),
	)
	return root
}

func runRoot(cmd *cobra.Command, args []string) error {
	showConfig, _ := cmd.Flags().GetBool("show-config")
	if !showConfig {
		return cmd.Help()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return showCurrentConfig(cmd.OutOrStdout(), cfg)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.SetConfigType("yaml")
		viper.SetConfigName("seoplanner")
	}

	viper.SetEnvPrefix("SEOP")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	// Every key needs a default for environment overrides to reach Unmarshal
	if err := registerDefaults(config.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to register defaults: %v\n", err)
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults flattens cfg into dotted viper keys
func registerDefaults(cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}
	setDefaults("", tree)
	return nil
}

func setDefaults(prefix string, tree map[string]any) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			setDefaults(key, sub)
			continue
		}
		viper.SetDefault(key, v)
	}
}

// bindFlags binds viper keys to flags, keyed by viper key
func bindFlags(flags *pflag.FlagSet, binds map[string]string) {
	for key, name := range binds {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			// Log the error but continue - non-critical for operation
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", name, err)
		}
	}
}

// loadConfig layers viper values (flags, env, file) over the defaults
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func setupLogging(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	closeLog()
	closer, err := logging.SetDefault(logging.Config{
		Level:      logging.ParseLevel(cfg.Log.Level),
		Format:     cfg.Log.Format,
		FilePath:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Console:    cfg.Log.Console,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	logCloser = closer
	return nil
}

func closeLog() {
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
}

func showCurrentConfig(w io.Writer, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Configuration validation failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "Displaying configuration anyway...\n\n")
	}

	yamlData, err := yaml.Marshal(cfg.Masked())
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Fprintf(w, "# Current seoplanner configuration\n")
	fmt.Fprintf(w, "# Generated at: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "# Configuration file search paths: ./seoplanner.yml, ./config/seoplanner.yml\n")
	fmt.Fprintf(w, "# Environment variables prefix: SEOP_\n")
	if providers := cfg.AvailableProviders(); len(providers) > 0 {
		fmt.Fprintf(w, "# AI providers with keys: %s\n\n", strings.Join(providers, ", "))
	} else {
		fmt.Fprintf(w, "# AI providers with keys: none\n\n")
	}

	_, _ = w.Write(yamlData)

	fmt.Fprintf(w, "\n# Configuration source priority:\n")
	fmt.Fprintf(w, "# 1. Command-line arguments (highest priority)\n")
	fmt.Fprintf(w, "# 2. Environment variables (SEOP_ prefix)\n")
	fmt.Fprintf(w, "# 3. Configuration file (seoplanner.yml)\n")
	fmt.Fprintf(w, "# 4. Default values (lowest priority)\n")
	fmt.Fprintf(w, "# API keys left empty fall back to OPENROUTER_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY and GOOGLE_API_KEY\n")
	return nil
}
