package main

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/born-ml/vmap/internal/backend/cpu"
	"github.com/born-ml/vmap/internal/config"
	"github.com/born-ml/vmap/internal/dispatch"
	"github.com/born-ml/vmap/internal/ops"
	"github.com/born-ml/vmap/internal/vmap"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var (
	cfgFile   string
	activeCfg config.Config
)

// NewRootCmd builds the born command tree.
func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)

	cmd := &cobra.Command{
		Use:           "born",
		Short:         "Batched operator dispatch with a per-example vmap fallback",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded
			config.Apply(loaded)
			return klogFlags.Set("v", strconv.Itoa(loaded.Log.Verbosity))
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newOpsCmd())
	cmd.AddCommand(newRunCmd())

	return cmd
}

// engine is an operator library on the CPU backend with a vmap interpreter
// handling batched calls.
type engine struct {
	lib *ops.Library
	ip  *vmap.Interpreter
}

func newEngine(cfg config.Config) (*engine, error) {
	d := dispatch.New()
	lib, err := ops.Register(d, cpu.NewWithConfig(cfg.Runtime.ParallelConfig()))
	if err != nil {
		return nil, fmt.Errorf("register operators: %w", err)
	}
	if cfg.Vmap.BatchingRules {
		if err := lib.RegisterBatchingRules(); err != nil {
			return nil, fmt.Errorf("register batching rules: %w", err)
		}
	}
	return &engine{lib: lib, ip: vmap.New(d)}, nil
}
