package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aschepis/backscratcher/chatwire/config"
	"github.com/aschepis/backscratcher/chatwire/logger"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	AppName = "chatwire"
	Version = "0.1.0"
)

// app carries state shared by all subcommands.
type app struct {
	configPath string
	logFile    string
	pretty     bool

	cfg    *config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:     AppName,
		Short:   "Translate conversations to and from the OpenAI chat completions wire format",
		Version: Version,
		Long: `chatwire encodes conversations into OpenAI-compatible request payloads,
decodes provider responses, classifies provider errors and can send a
conversation to OpenAI or a Databricks serving endpoint.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", config.GetConfigPath(), "path to config file")
	rootCmd.PersistentFlags().StringVar(&a.logFile, "logfile", "", "path to log file (default: stderr)")
	rootCmd.PersistentFlags().BoolVar(&a.pretty, "pretty", false, "use pretty console log output")

	rootCmd.AddCommand(
		newEncodeCmd(a),
		newDecodeCmd(a),
		newUsageCmd(a),
		newClassifyCmd(a),
		newUnescapeCmd(a),
		newSanitizeCmd(a),
		newSendCmd(a),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.logFile != "" && a.pretty {
		return fmt.Errorf("--logfile and --pretty are mutually exclusive")
	}

	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.cfg = cfg

	logFile, pretty := a.logFile, a.pretty
	if logFile == "" && !pretty {
		logFile, pretty = cfg.Log.File, cfg.Log.Pretty
	}
	log, err := logger.InitWithOptions(logFile, pretty)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = log.With().Str("command", cmd.Name()).Logger()
	return nil
}

// readInput reads the named file, or stdin when name is empty or "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return data, nil
}

func status(cmd *cobra.Command, attr color.Attribute, format string, args ...any) {
	_, _ = color.New(attr).Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}
