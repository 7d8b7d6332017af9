// Package cmd implements the attrskema command line.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reoring/attrskema"
	"github.com/reoring/attrskema/config"
	"github.com/reoring/attrskema/schemafile"
)

// app is the state shared by all subcommands of one invocation.
type app struct {
	cfg *config.Config
	log *zap.Logger
}

// NewRootCommand returns the attrskema command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "attrskema",
		Short: "Schema-driven attribute map codec",
		Long: `attrskema decodes and encodes DynamoDB-style attribute maps against
record schemas declared in a YAML schema file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	f := root.PersistentFlags()
	f.StringP("config", "c", "", "Configuration file")
	f.StringP("schema", "s", "", "Schema file (overrides the configuration)")
	f.StringP("root", "r", "", "Record to use (defaults to the schema file root)")
	f.StringP("data-dir", "d", "", "Data directory for the store")
	f.Int("parallel", 0, "Decode record fields with up to this many goroutines")
	f.String("log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newCheckCmd(a),
		newDecodeCmd(a),
		newNormalizeCmd(a),
		newJSONSchemaCmd(a),
		newPutCmd(a),
		newGetCmd(a),
	)
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()
	cfg := config.DefaultConfig()
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if v, _ := flags.GetString("schema"); v != "" {
		cfg.Schema = v
	}
	if v, _ := flags.GetString("root"); v != "" {
		cfg.Root = v
	}
	if v, _ := flags.GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := flags.GetInt("parallel"); v > 0 {
		cfg.Decode.Parallelism = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := cfg.Logging.Logger()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	attrskema.SetLogger(log)
	a.cfg, a.log = cfg, log
	return nil
}

// schema loads the configured schema file.
func (a *app) schema() (*schemafile.File, error) {
	f, err := schemafile.Load(a.cfg.Schema)
	if err != nil {
		return nil, err
	}
	a.log.Debug("schema loaded", zap.String("path", a.cfg.Schema), zap.Strings("records", f.Records()))
	return f, nil
}

// codec compiles the configured root record.
func (a *app) codec() (*attrskema.Codec[map[string]any], error) {
	f, err := a.schema()
	if err != nil {
		return nil, err
	}
	reg, err := schemafile.NewRegistry()
	if err != nil {
		return nil, err
	}
	return f.Bind(reg, a.cfg.Root, attrskema.WithParallelFields(a.cfg.Decode.Parallelism))
}

// input reads the named file, or stdin when args is empty or "-".
func input(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}
