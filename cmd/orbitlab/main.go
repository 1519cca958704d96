package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/orbitlab/internal/automation"
	"github.com/san-kum/orbitlab/internal/config"
	"github.com/san-kum/orbitlab/internal/dynamo"
	"github.com/san-kum/orbitlab/internal/export"
	"github.com/san-kum/orbitlab/internal/sim"
	"github.com/san-kum/orbitlab/internal/storage"
	"github.com/san-kum/orbitlab/internal/viz"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	dataDir    string
	configFile string
	logLevel   string

	// live
	width        float64
	height       float64
	theme        string
	gifPath      string
	universeFile string
	logFile      string

	// run / plot
	svgOut  bool
	plotSVG string

	// config
	configOut string

	// physics overrides, applied over --config only when set
	gravity    float64
	merge      bool
	wrap       bool
	playground bool

	logger = log.New(io.Discard)
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "orbitlab",
		Short:        "interactive n-body star sandbox",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger = log.NewWithOptions(os.Stderr, log.Options{
				Level:           level,
				ReportTimestamp: true,
				Prefix:          "orbitlab",
			})
			return nil
		},
		RunE: runLive,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".orbitlab", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	configFlags(rootCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "open the interactive sandbox",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	for _, c := range []*cobra.Command{rootCmd, liveCmd} {
		c.Flags().Float64Var(&width, "width", 640, "world width")
		c.Flags().Float64Var(&height, "height", 384, "world height")
		c.Flags().StringVar(&theme, "theme", viz.ThemeNames()[0], "color theme")
		c.Flags().StringVar(&gifPath, "gif", "orbitlab.gif", "GIF recording output")
		c.Flags().StringVar(&universeFile, "universe", "", "initial stars (yaml)")
		c.Flags().StringVar(&logFile, "log-file", "", "write logs here while the UI runs")
	}

	runCmd := &cobra.Command{
		Use:   "run [scenario.yaml...]",
		Short: "replay scripted scenarios headless and store the runs",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runScenarios,
	}
	runCmd.Flags().BoolVar(&svgOut, "svg", false, "write a final snapshot SVG next to each run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energy and star count of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotSVG, "svg", "", "also write the energy plot as SVG")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(cmd.OutOrStdout(), args[0])
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  printConfig,
	}
	configCmd.Flags().StringVarP(&configOut, "out", "o", "", "write to file instead of stdout")

	rootCmd.AddCommand(liveCmd, runCmd, listCmd, plotCmd, exportJSONCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func configFlags(c *cobra.Command) {
	c.PersistentFlags().Float64Var(&gravity, "gravity", config.DefaultGravityConstant, "gravitational constant")
	c.PersistentFlags().BoolVar(&merge, "merge", true, "merge overlapping stars")
	c.PersistentFlags().BoolVar(&wrap, "wrap", true, "wrap around the edges")
	c.PersistentFlags().BoolVar(&playground, "playground", false, "orbit playground mode (no damping, clamp or merging)")
}

// loadConfig overlays --config on the defaults, then any physics flag the
// user set on the command line.
func loadConfig(cmd *cobra.Command) (config.ConfigSet, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return config.ConfigSet{}, fmt.Errorf("failed to load config: %w", err)
		}
	}
	cfg = overlayFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return config.ConfigSet{}, err
	}
	return cfg, nil
}

func overlayFlags(cmd *cobra.Command, cfg config.ConfigSet) config.ConfigSet {
	flags := cmd.Flags()
	if flags.Changed("gravity") {
		cfg.GravityConstant = gravity
	}
	if flags.Changed("merge") {
		cfg.EnableMerging = merge
	}
	if flags.Changed("wrap") {
		cfg.Boundary = config.BoundaryNone
		if wrap {
			cfg.Boundary = config.BoundaryWrap
		}
	}
	if flags.Changed("playground") {
		cfg.Mode = config.ModeNBody
		if playground {
			cfg.Mode = config.ModeOrbitPlayground
		}
	}
	return cfg
}

func loadUniverse(path string) (sim.Universe, error) {
	var u sim.Universe
	data, err := os.ReadFile(path)
	if err != nil {
		return u, err
	}
	if err := yaml.Unmarshal(data, &u); err != nil {
		return u, fmt.Errorf("parse universe %s: %w", path, err)
	}
	return u, nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// the alt screen owns the terminal, so logs go to a file or nowhere
	uiLogger := log.New(io.Discard)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		uiLogger = log.NewWithOptions(f, log.Options{Level: logger.GetLevel(), ReportTimestamp: true})
	}

	s := sim.New(width, height, cfg, sim.WithLogger(uiLogger))
	if universeFile != "" {
		u, err := loadUniverse(universeFile)
		if err != nil {
			return err
		}
		n := s.LoadUniverse(u)
		uiLogger.Info("universe loaded", "path", universeFile, "stars", n)
	}

	m := viz.NewModel(s, viz.Options{Theme: theme, GIFPath: gifPath, Logger: uiLogger})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err = p.Run()
	return err
}

func runScenarios(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	scenarios := make([]*automation.Scenario, 0, len(args))
	for _, path := range args {
		sc, err := automation.LoadScenario(path)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, sc)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	runs, err := automation.NewRunner(cfg, logger).RunAll(ctx, scenarios)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTICKS\tSTARS\tMASS\tENERGY\tDRIFT\tBOUND")
	for _, run := range runs {
		id, err := st.Save(run)
		if err != nil {
			return err
		}
		logger.Info("run saved", "id", id, "scenario", run.Meta.Scenario)

		if svgOut {
			bounds := dynamo.Bounds{Width: run.Meta.Width, Height: run.Meta.Height, Wrap: run.Meta.Config.Wraps()}
			path := filepath.Join(dataDir, id, "bodies.svg")
			if err := os.WriteFile(path, []byte(export.BodiesToSVG(run.Bodies, bounds, 1)), 0644); err != nil {
				return err
			}
		}

		last := run.Stats[len(run.Stats)-1]
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.2f\t%.4g\t%.2e\t%.2f\n",
			id,
			run.Meta.Scenario,
			run.Meta.Ticks,
			last.Bodies,
			last.TotalMass,
			last.Energy,
			run.Meta.Metrics["energy_drift"],
			run.Meta.Metrics["bound_fraction"],
		)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tTICKS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Ticks,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	stats, err := st.LoadStats(runID)
	if err != nil {
		return err
	}
	if len(stats) < 2 {
		return fmt.Errorf("no data to plot")
	}

	times := make([]float64, len(stats))
	energy := make([]float64, len(stats))
	count := make([]float64, len(stats))
	for i, s := range stats {
		times[i] = s.Time
		energy[i] = s.Energy
		count[i] = float64(s.Bodies)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "scenario: %s\n", meta.Scenario)
	fmt.Fprintf(out, "samples: %d\n\n", len(stats))
	fmt.Fprintln(out, asciigraph.Plot(energy, asciigraph.Height(10), asciigraph.Width(70), asciigraph.Caption("total energy")))
	fmt.Fprintln(out)
	fmt.Fprintln(out, asciigraph.Plot(count, asciigraph.Height(5), asciigraph.Width(70), asciigraph.Caption("stars")))

	if plotSVG != "" {
		svg := export.SeriesToSVG(times, energy, 800, 300, "#00ccff")
		if err := os.WriteFile(plotSVG, []byte(svg), 0644); err != nil {
			return err
		}
		logger.Info("plot written", "path", plotSVG)
	}
	return nil
}

func printConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if configOut != "" {
		return config.Save(configOut, cfg)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
