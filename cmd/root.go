// cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ppsim/ppsim/sim/engine"
	"github.com/ppsim/ppsim/sim/loader"
	"github.com/ppsim/ppsim/sim/model"
	"github.com/ppsim/ppsim/sim/process"
	"github.com/ppsim/ppsim/sim/rng"
	"github.com/ppsim/ppsim/sim/spatial"
	"github.com/ppsim/ppsim/sim/state"
	"github.com/ppsim/ppsim/sim/writer"
)

var (
	modelPath        string
	inputPath        string
	outputPath       string
	densityPath      string
	logLevel         string
	simTime          float64
	simTimeSet       bool
	stepCount        int64
	stepCountSet     bool
	domain           float64
	domainSet        bool
	dt               float64
	seed             int64
	seedSet          bool
	printPropensity  bool
	haltOnExtinction []string
)

var rootCmd = &cobra.Command{
	Use:   "ppsim",
	Short: "Spatial marked point process simulator (Gillespie SSA on a 2D torus)",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation from a model file",
	RunE:  runSimulation,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVar(&modelPath, "model", "", "path to a JSON or YAML model file (required)")
	runCmd.Flags().StringVar(&inputPath, "input", "", "path to an input point file to seed the initial configuration")
	runCmd.Flags().StringVar(&outputPath, "output", "", "path to write snapshot output (stdout if empty)")
	runCmd.Flags().StringVar(&densityPath, "density", "", "path to write density output (not written if empty)")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "log level (debug, info, warn, error)")
	runCmd.Flags().Float64Var(&domain, "domain", 0, "domain side length U")
	runCmd.Flags().Float64Var(&dt, "dt", 1, "writer emission interval")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "PRNG master seed")
	runCmd.Flags().BoolVar(&printPropensity, "print-propensity", false, "print each process's initial propensity before running")

	runCmd.Flags().Float64Var(&simTime, "time", 0, "simulation horizon (real time units)")
	runCmd.Flags().Int64Var(&stepCount, "step", 0, "simulation horizon in reaction count (overrides --time)")

	haltFlag := pflag.NewFlagSet("halt", pflag.ContinueOnError)
	haltFlag.StringArrayVar(&haltOnExtinction, "halt-on-extinction", nil, "halt when the named entity's count reaches zero (repeatable, e.g. entity=1)")
	runCmd.Flags().AddFlagSet(haltFlag)

	runCmd.PreRun = func(cmd *cobra.Command, args []string) {
		domainSet = cmd.Flags().Changed("domain")
		simTimeSet = cmd.Flags().Changed("time")
		stepCountSet = cmd.Flags().Changed("step")
		seedSet = cmd.Flags().Changed("seed")
	}

	rootCmd.AddCommand(runCmd)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return engine.NewConfigurationError("invalid log level %q", logLevel)
	}
	logrus.SetLevel(level)

	if modelPath == "" {
		return engine.NewConfigurationError("--model is required")
	}
	spec, err := loadModelFile(modelPath)
	if err != nil {
		return err
	}

	u, err := loader.ResolveParam("domain", spec.Simulator.Domain, domain, domainSet)
	if err != nil {
		return engine.NewConfigurationError("%v", err)
	}
	horizon, horizonSet := resolveHorizon(spec)
	if !horizonSet {
		return engine.NewConfigurationError("one of --time, --step, or a model file default is required")
	}

	seedVal, err := loader.ResolveParam("seed", spec.Simulator.Seed, seed, seedSet)
	if err != nil {
		seedVal = 0
		logrus.Infof("[cmd] no seed given, defaulting to 0")
	}

	dtVal := dt
	if spec.Simulator.Dt != nil && !cmd.Flags().Changed("dt") {
		dtVal = *spec.Simulator.Dt
	}

	procs, err := loader.BuildProcesses(spec)
	if err != nil {
		return engine.NewInputFormatError("%v", err)
	}

	m := model.New()
	prng := rng.New(seedVal)
	s := state.New(u, 1, maxEntity(procs), len(procs), prng)
	for _, p := range procs {
		m.Add(p, s)
	}
	m.Finalize()
	logrus.Infof("[cmd] %s", m)

	if inputPath != "" {
		if err := seedFromFile(s, inputPath); err != nil {
			return err
		}
	}

	sim := engine.New(m, s, prng)
	if printPropensity {
		printInitialPropensities(m)
	}
	for _, flagVal := range haltOnExtinction {
		entity, err := parseEntityFlag(flagVal)
		if err != nil {
			return engine.NewConfigurationError("%v", err)
		}
		sim.AddHaltingCondition(engine.CheckExtinction(entity))
	}
	if stepCountSet && stepCount > 0 {
		stepsRemaining := stepCount
		sim.AddHaltingCondition(func(*state.SimulationState) (bool, string) {
			if stepsRemaining <= 0 {
				return true, "step limit reached"
			}
			stepsRemaining--
			return false, ""
		})
	} else {
		sim.AddHaltingCondition(func(st *state.SimulationState) (bool, string) {
			if st.Stats.Time >= horizon {
				return true, "time horizon reached"
			}
			return false, ""
		})
	}

	out, closeOut, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeOut()
	sim.AddWriter(writer.NewSnapshotWriter(out, dtVal))

	if densityPath != "" {
		df, err := os.Create(densityPath)
		if err != nil {
			return fmt.Errorf("cmd: creating density output: %w", err)
		}
		defer df.Close()
		sim.AddWriter(writer.NewDensityWriter(df, dtVal))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	sim.AddHaltingCondition(func(*state.SimulationState) (bool, string) {
		select {
		case <-ctx.Done():
			return true, "interrupted"
		default:
			return false, ""
		}
	})

	runHorizon := horizon
	if stepCountSet {
		runHorizon = math.Inf(1)
	}
	sim.Run(runHorizon)

	logrus.Infof("[cmd] simulation halted: %s", sim.HaltReason())
	return nil
}

func loadModelFile(path string) (*loader.ModelSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cmd: reading model file: %w", err)
	}
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return loader.ParseModelYAML(data)
	}
	return loader.ParseModelJSON(data)
}

func resolveHorizon(spec *loader.ModelSpec) (float64, bool) {
	if stepCountSet {
		return 0, true
	}
	if simTimeSet {
		return simTime, true
	}
	if spec.Simulator.Time != nil {
		return *spec.Simulator.Time, true
	}
	return 0, false
}

func maxEntity(procs []process.Descriptor) spatial.EntityID {
	var max spatial.EntityID
	for _, p := range procs {
		for i := 0; i < p.InputCount(); i++ {
			if p.Input(i) > max {
				max = p.Input(i)
			}
		}
		for i := 0; i < p.OutputCount(); i++ {
			if p.Output(i) > max {
				max = p.Output(i)
			}
		}
	}
	return max
}

func seedFromFile(s *state.SimulationState, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cmd: opening input point file: %w", err)
	}
	defer f.Close()
	points, err := loader.ReadPoints(f)
	if err != nil {
		return err
	}
	for _, pt := range points {
		s.NewPoint(pt.X, pt.Y, pt.Entity)
	}
	logrus.Infof("[cmd] %d input points read from %s", len(points), path)
	return nil
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cmd: creating snapshot output: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func printInitialPropensities(m *model.Model) {
	var total float64
	for i, tr := range m.Trackers() {
		p := tr.Propensity()
		total += p
		fmt.Printf("process[%d] %s propensity=%g\n", i, tr.Process(), p)
	}
	fmt.Printf("total propensity=%g\n", total)
}

func parseEntityFlag(spec string) (spatial.EntityID, error) {
	parts := strings.SplitN(spec, "=", 2)
	name := "entity"
	val := spec
	if len(parts) == 2 {
		name = parts[0]
		val = parts[1]
	}
	if name != "entity" {
		return 0, fmt.Errorf("unrecognized halt-on-extinction key %q", name)
	}
	n, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("halt-on-extinction: %q is not a valid entity id", val)
	}
	return spatial.EntityID(n), nil
}
