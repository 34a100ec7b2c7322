package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/NkanyeziNgobese/ares-1"
)

const defaultConfig = "./data/config.yaml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ares-edge",
		Short: "Ares-1 drilling telemetry edge runtime",
		Long: `Ares-1 ingests rig telemetry from MQTT, OPC UA or a replay table, classifies
the rig state on a fixed tick and writes frames and events to the configured outputs.`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newValidateCmd(), newStatsCmd(), newZoneCmd(), newReplayCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the edge runtime using the provided config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			flow, err := ares.Conf(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return flow.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", defaultConfig, "Path to edge configuration file")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate a config file without starting the runtime",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ares.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config %s looks good (source=%s tick_hz=%g rules=%d)\n",
				cfgPath, cfg.Source, cfg.Engine.TickHz, len(cfg.Engine.Thresholds))
			return nil
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", defaultConfig, "Path to configuration file to validate")
	return cmd
}

func newStatsCmd() *cobra.Command {
	var (
		url      string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Poll the Prometheus metrics endpoint and print live counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return streamStats(ctx, cmd.OutOrStdout(), url, interval)
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Refresh interval")
	return cmd
}

func newZoneCmd() *cobra.Command {
	var cfgPath, terrainPath string
	cmd := &cobra.Command{
		Use:   "zone <depth>...",
		Short: "Print the geology zone for each depth (metres, negative below datum)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zones, err := resolveZones(cfgPath, terrainPath)
			if err != nil {
				return err
			}
			return printZones(cmd.OutOrStdout(), zones, args)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "Take zone constants from this config file")
	cmd.Flags().StringVar(&terrainPath, "terrain", "", "Take zone constants from a terrain metrics workbook")
	return cmd
}

func newReplayCmd() *cobra.Command {
	var (
		cfgPath string
		file    string
		hz      float64
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Run the engine over a CSV/XLSX drilling table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ares.LoadConfig(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if file != "" {
				cfg.Replay.File = file
			}
			if hz > 0 {
				cfg.Replay.Hz = hz
			}
			if cfg.Replay.File == "" {
				return fmt.Errorf("no replay file: pass --file or set replay.file")
			}
			cfg.Source = ares.SourceReplay

			if dryRun {
				return describeTable(cmd.OutOrStdout(), cfg)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			rt, err := ares.NewRuntime(cfg)
			if err != nil {
				return err
			}
			return rt.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", defaultConfig, "Path to edge configuration file")
	cmd.Flags().StringVar(&file, "file", "", "Replay table (overrides replay.file)")
	cmd.Flags().Float64Var(&hz, "hz", 0, "Rows per second (overrides replay.hz)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Load and summarise the table without running")
	return cmd
}

func resolveZones(cfgPath, terrainPath string) (ares.ZoneConfig, error) {
	switch {
	case terrainPath != "":
		m, err := ares.LoadTerrain(terrainPath)
		if err != nil {
			return ares.ZoneConfig{}, err
		}
		return m.Zones, nil
	case cfgPath != "":
		cfg, err := ares.LoadConfig(cfgPath)
		if err != nil {
			return ares.ZoneConfig{}, err
		}
		return cfg.Engine.Zones, nil
	default:
		return ares.DefaultZones(), nil
	}
}

func printZones(w io.Writer, zones ares.ZoneConfig, args []string) error {
	for _, arg := range args {
		depth, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("depth %q: %w", arg, err)
		}
		fmt.Fprintf(w, "%10.2f  %s\n", depth, zones.Classify(depth))
	}
	return nil
}

func describeTable(w io.Writer, cfg *ares.Config) error {
	table, err := ares.LoadReplayTable(cfg.Replay.File, cfg.Replay.Options)
	if err != nil {
		return err
	}
	table.SortByDepth()
	lo, hi := table.DepthRange()
	fmt.Fprintf(w, "file:    %s\n", cfg.Replay.File)
	fmt.Fprintf(w, "rows:    %d\n", len(table.Rows))
	fmt.Fprintf(w, "depth:   %g .. %g (mapped to %g .. %g)\n", lo, hi, cfg.Replay.Origin, cfg.Replay.TD)
	for _, c := range []ares.Channel{ares.Depth, ares.ROP, ares.WOB, ares.RPM, ares.Torque, ares.FlowIn, ares.FlowOut} {
		col, ok := table.Columns[c]
		if !ok {
			col = "-"
		}
		fmt.Fprintf(w, "  %-8s <- %s\n", c.Key(), col)
	}
	if cfg.Replay.Hz > 0 {
		fmt.Fprintf(w, "runtime: %s at %g Hz\n", time.Duration(float64(len(table.Rows))/cfg.Replay.Hz*float64(time.Second)).Round(time.Second), cfg.Replay.Hz)
	}
	return nil
}
