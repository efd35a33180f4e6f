package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/railkit/railsim/internal/analysis"
	"github.com/railkit/railsim/internal/api"
	"github.com/railkit/railsim/internal/config"
	"github.com/railkit/railsim/internal/experiment"
	"github.com/railkit/railsim/internal/export"
	"github.com/railkit/railsim/internal/storage"
	"github.com/railkit/railsim/internal/viz"
)

var (
	dataDir     string
	configFile  string
	dt          float64
	duration    float64
	seed        int64
	stride      int
	liveView    bool
	frameRate   int
	column      string
	svgOut      string
	withPhase   bool
	addr        string
	sweepTrain  string
	sweepFrom   float64
	sweepTo     float64
	sweepPoints int
)

// main registers the railsim command tree and executes it; it launches
// the interactive cab when no subcommand is given and exits with status
// 1 if command execution returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:   "railsim",
		Short: "rail vehicle physics sandbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to the interactive cab when no command given
			return driveScenario(cmd, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".railsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a scenario headless and record it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	runCmd.Flags().IntVar(&stride, "stride", 1, "record every nth tick")
	runCmd.Flags().BoolVar(&liveView, "live", false, "render the track while running")
	runCmd.Flags().IntVar(&frameRate, "fps", 20, "frame rate for --live")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&column, "column", "", "plot only this column")
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write an SVG to this path")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "statistics and frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&column, "column", "", "column to analyze (default: first speed column)")
	analyzeCmd.Flags().BoolVar(&withPhase, "phase", false, "include a position/speed phase portrait")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenarios",
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "benchmark the tick loop",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScenario,
	}
	benchCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "drive a scenario interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  driveScenario,
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	liveCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	liveCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	liveCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")

	serveCmd := &cobra.Command{
		Use:   "serve [preset]",
		Short: "serve scenario state over HTTP",
		Args:  cobra.MaximumNArgs(1),
		RunE:  serveScenario,
	}
	serveCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	serveCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	serveCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	serveCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	serveCmd.Flags().StringVar(&addr, "addr", ":8100", "listen address")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "sweep a train's entry speed and find the derailment threshold",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepScenario,
	}
	sweepCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	sweepCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	sweepCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	sweepCmd.Flags().StringVar(&sweepTrain, "train", "", "train to vary (default: the player train)")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 5, "lowest entry speed (m/s)")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 40, "highest entry speed (m/s)")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 8, "number of speeds to try")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, exportCSVCmd,
		exportJSONCmd, presetsCmd, benchCmd, liveCmd, serveCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadScenario resolves the scenario for a command: a named preset,
// then a config file, then the defaults, with CLI flags overriding the
// loaded values.
func loadScenario(cmd *cobra.Command, args []string) (*config.Scenario, error) {
	scenario := config.DefaultScenario()

	if len(args) > 0 {
		scenario = config.GetPreset(args[0])
		if scenario == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)",
				args[0], strings.Join(config.ListPresets(), ", "))
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		scenario = loaded
	}

	if cmd.Flags().Changed("dt") {
		scenario.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		scenario.Duration = duration
	}
	if cmd.Flags().Changed("seed") {
		scenario.Seed = seed
	}
	return scenario, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	w, err := scenario.Build()
	if err != nil {
		return err
	}
	defer w.Close()

	collected := experiment.StandardMetrics()
	for _, m := range collected {
		w.AddMetric(m)
	}

	rec := storage.NewRecorder(stride)
	w.AddObserver(rec)

	if liveView {
		lr := viz.NewLiveRenderer(w.Layout, frameRate)
		lr.Start()
		defer lr.Stop()
		w.AddObserver(lr)
	}

	fmt.Printf("running %s scenario...\n", scenario.Name)
	start := time.Now()

	for i := 0; i < scenario.Steps(); i++ {
		w.Step(scenario.Dt)
	}

	elapsed := time.Since(start)

	results := make(map[string]float64, len(collected))
	for _, m := range collected {
		results[m.Name()] = m.Value()
	}

	runID, err := st.Save(scenario.Name, scenario.Dt, scenario.Duration, scenario.Seed, results, rec.Series())
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", rec.Samples())
	fmt.Println("\nmetrics:")
	for name, val := range results {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tSAMPLES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Samples,
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

	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(series.Times))

	selected := series.Columns
	if column != "" {
		if _, err := columnData(series, column); err != nil {
			return err
		}
		selected = []string{column}
	}
	maxPlots := 6
	if len(selected) > maxPlots {
		selected = selected[:maxPlots]
	}

	for _, col := range selected {
		data, err := columnData(series, col)
		if err != nil {
			return err
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(col),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if svgOut != "" {
		col := column
		if col == "" {
			col = series.Columns[0]
		}
		svg, err := export.SeriesSVG(series, col, 800, 400, "#00d7af")
		if err != nil {
			return err
		}
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
	}

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series.Times) < 2 {
		return fmt.Errorf("not enough data to analyze")
	}

	col := column
	if col == "" {
		col = series.Columns[0]
		for _, c := range series.Columns {
			if strings.HasSuffix(c, "_speed") {
				col = c
				break
			}
		}
	}
	data, err := columnData(series, col)
	if err != nil {
		return err
	}

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("column: %s\n\n", col)

	s := analysis.Summarize(data)
	fmt.Printf("samples: %d\n", s.Samples)
	fmt.Printf("min: %.4f  max: %.4f  mean: %.4f\n", s.Min, s.Max, s.Mean)
	fmt.Printf("stddev: %.4f  rms: %.4f\n\n", s.StdDev, s.RMS)

	last := len(series.Times) - 1
	rate := float64(last) / (series.Times[last] - series.Times[0])
	spec := analysis.NewSpectrum(data, rate)

	plotData := spec.Power
	if len(plotData) >= 8 {
		plotData = plotData[:len(plotData)/4]
	}

	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum ("+col+")"),
	)
	fmt.Println(graph)
	fmt.Println()

	freq, power := spec.Dominant()
	fmt.Printf("dominant frequency: %.3f hz (power %.3f)\n", freq, power)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}

	if withPhase {
		xs, ys, ok := phaseColumns(series, col)
		if !ok {
			return fmt.Errorf("no matching position/speed columns for phase portrait")
		}
		fmt.Println("\nphase portrait (position vs speed):")
		fmt.Println(analysis.PhasePortrait(xs, ys).ASCII(70, 20))
	}

	return nil
}

func columnData(series *storage.Series, name string) ([]float64, error) {
	for i, col := range series.Columns {
		if col != name {
			continue
		}
		data := make([]float64, len(series.Rows))
		for j, row := range series.Rows {
			if i < len(row) {
				data[j] = row[i]
			}
		}
		return data, nil
	}
	return nil, fmt.Errorf("run has no column %q (have: %s)",
		name, strings.Join(series.Columns, ", "))
}

// phaseColumns finds the position/speed pair recorded for the same
// train as the given column.
func phaseColumns(series *storage.Series, col string) (xs, ys []float64, ok bool) {
	idx := strings.LastIndex(col, "_")
	if idx < 0 {
		return nil, nil, false
	}
	prefix := col[:idx]

	xs, errX := columnData(series, prefix+"_position")
	ys, errY := columnData(series, prefix+"_speed")
	if errX != nil || errY != nil {
		return nil, nil, false
	}
	return xs, ys, true
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	series, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	if len(series.Times) == 0 {
		return fmt.Errorf("no data to export")
	}
	return export.WriteCSV(os.Stdout, series)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	return export.WriteJSON(os.Stdout, export.FromRun(meta, series))
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTRAINS\tTRACK\tDURATION")

	for _, name := range config.ListPresets() {
		s := config.GetPreset(name)
		length := 0.0
		for _, seg := range s.Track.Segments {
			length += seg.Length
		}
		fmt.Fprintf(w, "%s\t%d\t%.0f m\t%.0fs\n", name, len(s.Trains), length, s.Duration)
	}

	return w.Flush()
}

func benchScenario(cmd *cobra.Command, args []string) error {
	scenario, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}

	durations := []float64{1.0, 5.0, 10.0}
	timesteps := []float64{0.001, 0.01, 0.1}

	fmt.Printf("benchmarking %s\n\n", scenario.Name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DURATION\tDT\tSTEPS\tTIME\tSTEPS/SEC")

	for _, dur := range durations {
		for _, step := range timesteps {
			wld, err := scenario.Build()
			if err != nil {
				return err
			}

			steps := int(dur/step + 0.5)
			start := time.Now()
			for i := 0; i < steps; i++ {
				wld.Step(step)
			}
			elapsed := time.Since(start)
			wld.Close()

			fmt.Fprintf(w, "%.1fs\t%.4fs\t%d\t%v\t%.0f\n",
				dur, step, steps, elapsed, float64(steps)/elapsed.Seconds())
		}
	}

	return w.Flush()
}

func sweepScenario(cmd *cobra.Command, args []string) error {
	scenario, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	if sweepPoints < 2 {
		return fmt.Errorf("need at least 2 sweep points, got %d", sweepPoints)
	}

	name := sweepTrain
	if name == "" {
		for _, tc := range scenario.Trains {
			if tc.Player {
				name = tc.Name
				break
			}
		}
		if name == "" && len(scenario.Trains) > 0 {
			name = scenario.Trains[0].Name
		}
	}

	speeds := make([]float64, sweepPoints)
	step := (sweepTo - sweepFrom) / float64(sweepPoints-1)
	for i := range speeds {
		speeds[i] = sweepFrom + float64(i)*step
	}

	fmt.Printf("sweeping %s entry speed on %s (%d runs)...\n", name, scenario.Name, sweepPoints)

	sw := &experiment.Sweep{Base: scenario, Train: name, Speeds: speeds}
	points, err := sw.Run(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SPEED\tDERAILMENTS\tROLL_STABILITY\tCOUPLER_STRESS\tENERGY_DRIFT")
	for _, p := range points {
		fmt.Fprintf(w, "%.2f\t%.0f\t%.4f\t%.1f\t%.6f\n",
			p.Speed,
			p.Metrics["derailments"],
			p.Metrics["roll_stability"],
			p.Metrics["coupler_stress"],
			p.Metrics["energy_drift"],
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if speed, ok := experiment.CriticalSpeed(points); ok {
		fmt.Printf("\nfirst derailing speed: %.2f m/s\n", speed)
	} else {
		fmt.Printf("\nno derailments between %.2f and %.2f m/s\n", sweepFrom, sweepTo)
	}
	return nil
}

func driveScenario(cmd *cobra.Command, args []string) error {
	scenario, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}

	m, err := viz.NewModel(scenario)
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func serveScenario(cmd *cobra.Command, args []string) error {
	scenario, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}

	server, err := api.New(scenario)
	if err != nil {
		return err
	}
	defer server.Close()

	srv := &http.Server{Addr: addr, Handler: server.Handler()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Real-time pacing: one scenario timestep per wall-clock timestep.
	g.Go(func() error {
		ticker := time.NewTicker(time.Duration(scenario.Dt * float64(time.Second)))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				server.Tick(scenario.Dt)
			}
		}
	})

	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	})

	fmt.Printf("serving %s on %s\n", scenario.Name, addr)
	return g.Wait()
}
