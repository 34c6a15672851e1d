package cmd

import (
	"fmt"
	"log/slog"
	"math/cmplx"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/llrf/cavity"
	"github.com/sarchlab/llrf/controller"
	"github.com/sarchlab/llrf/sim"
	"github.com/sarchlab/llrf/simulation"
	"github.com/sarchlab/llrf/station"
	"github.com/sarchlab/llrf/tracing"
)

type runOptions struct {
	name       string
	steps      uint64
	setPoint   float64
	setPhase   float64
	kp         float64
	kiRatio    float64
	openLoop   bool
	detuningHz float64

	disturbance   float64
	disturbanceAt uint64
	stepSetPoint  float64
	stepAt        uint64

	output      string
	noRecording bool
	decimation  uint64
	settleTime  float64

	monitor     bool
	monitorPort int
	openBrowser bool
	wait        bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a station simulation and record its trace.",
	Long: `Run simulates one RF station from rest. The trace of every step ` +
		`is stored in an SQLite database that the plot command can read.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runStation(runOpts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.StringVar(&runOpts.name, "name",
		envString("LLRF_STATION", "Cav1"), "Name of the station.")
	f.Uint64Var(&runOpts.steps, "steps",
		envUint("LLRF_STEPS", 50000), "Number of time steps to simulate.")
	f.Float64Var(&runOpts.setPoint, "set-point",
		envFloat("LLRF_SET_POINT", 11.5), "Probe amplitude set point.")
	f.Float64Var(&runOpts.setPhase, "set-phase",
		envFloat("LLRF_SET_PHASE", 0), "Probe phase set point, in rad.")
	f.Float64Var(&runOpts.kp, "kp",
		envFloat("LLRF_KP", -8), "Proportional gain.")
	f.Float64Var(&runOpts.kiRatio, "ki-ratio",
		envFloat("LLRF_KI_RATIO", 1),
		"Integral gain as a multiple of kp times the cavity half bandwidth.")
	f.BoolVar(&runOpts.openLoop, "open-loop",
		envBool("LLRF_OPEN_LOOP", false),
		"Drive the amplifier with the set point directly.")
	f.Float64Var(&runOpts.detuningHz, "detuning",
		envFloat("LLRF_DETUNING_HZ", 0), "Cavity detuning, in Hz.")

	f.Float64Var(&runOpts.disturbance, "disturbance",
		envFloat("LLRF_DISTURBANCE", 0),
		"Beam loading voltage added to the cavity drive.")
	f.Uint64Var(&runOpts.disturbanceAt, "disturbance-at",
		envUint("LLRF_DISTURBANCE_AT", 0),
		"Step at which the disturbance turns on. Zero applies it from "+
			"the first step.")
	f.Float64Var(&runOpts.stepSetPoint, "step-set-point",
		envFloat("LLRF_STEP_SET_POINT", 0),
		"New set point amplitude applied at --step-at.")
	f.Uint64Var(&runOpts.stepAt, "step-at",
		envUint("LLRF_STEP_AT", 0),
		"Step at which the set point changes. Zero keeps it constant.")

	f.StringVar(&runOpts.output, "output",
		envString("LLRF_OUTPUT", ""),
		"Trace database name, without the .sqlite3 suffix.")
	f.BoolVar(&runOpts.noRecording, "no-recording",
		envBool("LLRF_NO_RECORDING", false), "Do not store the trace.")
	f.Uint64Var(&runOpts.decimation, "decimation",
		envUint("LLRF_DECIMATION", 10), "Store every n-th step only.")
	f.Float64Var(&runOpts.settleTime, "settle-time",
		envFloat("LLRF_SETTLE_TIME", 0.02),
		"Time after which the error statistics are collected, in s.")

	f.BoolVar(&runOpts.monitor, "monitor",
		envBool("LLRF_MONITOR", false), "Serve the monitor web page.")
	f.IntVar(&runOpts.monitorPort, "monitor-port",
		int(envUint("LLRF_MONITOR_PORT", 0)), "Port of the monitor.")
	f.BoolVar(&runOpts.openBrowser, "open-browser",
		envBool("LLRF_OPEN_BROWSER", false),
		"Open the monitor in a browser.")
	f.BoolVar(&runOpts.wait, "wait",
		envBool("LLRF_WAIT", false),
		"Keep the monitor alive after the run until interrupted.")
}

// buildSpec derives the station configuration from the command-line
// options.
func buildSpec(o runOptions) (station.Spec, error) {
	spec := station.ReferenceSpec()

	mode := cavity.DefaultModeParams()
	mode.FreqOffset = o.detuningHz

	cav, err := mode.Spec()
	if err != nil {
		return station.Spec{}, err
	}

	spec.Cavity = cav
	spec.ProbePhase = -cmplx.Phase(cav.KProbe)
	spec.Controller.Kp = o.kp
	spec.Controller.Ki = o.kp * o.kiRatio * cav.DecayRate
	spec.Controller.SetPoint = cmplx.Rect(o.setPoint, o.setPhase)
	spec.Controller.OpenLoop = o.openLoop
	spec.Controller.Polarity = controller.Inverting

	if o.kp > 0 {
		spec.Controller.Polarity = controller.Direct
	}

	if err := spec.Validate(); err != nil {
		return station.Spec{}, err
	}

	return spec, nil
}

// operatorSchedule returns a hook that switches the disturbance on and
// changes the set point at the configured steps. A disturbance scheduled
// at step zero is applied right away since steps are counted from one.
func operatorSchedule(comp *station.Comp, o runOptions) sim.HookFunc {
	disturbance := complex(o.disturbance, 0)
	setPoint := cmplx.Rect(o.stepSetPoint, o.setPhase)

	if disturbance != 0 && o.disturbanceAt == 0 {
		slog.Info("disturbance on", "step", 0, "voltage", o.disturbance)
		comp.SetDisturbance(disturbance)
	}

	return func(ctx sim.HookCtx) {
		if ctx.Pos != station.HookPosStep {
			return
		}

		step := ctx.Item.(station.Snapshot).Step

		if disturbance != 0 && step == o.disturbanceAt {
			slog.Info("disturbance on", "step", step, "voltage", o.disturbance)
			comp.SetDisturbance(disturbance)
		}

		if o.stepAt > 0 && step == o.stepAt {
			slog.Info("set point change",
				"step", step, "set_point", o.stepSetPoint)
			comp.SetSetPoint(setPoint)
		}
	}
}

func buildSimulation(o runOptions) *simulation.Simulation {
	b := simulation.MakeBuilder().WithTraceDecimation(o.decimation)

	if !o.monitor {
		b = b.WithoutMonitoring()
	} else if o.monitorPort > 0 {
		b = b.WithMonitorPort(o.monitorPort)
	}

	if o.noRecording {
		b = b.WithoutRecording()
	} else if o.output != "" {
		b = b.WithOutputFileName(o.output)
	}

	return b.Build()
}

func runStation(o runOptions) error {
	if o.decimation == 0 {
		return fmt.Errorf("decimation must be positive")
	}

	if o.steps == 0 {
		return fmt.Errorf("the number of steps must be positive")
	}

	spec, err := buildSpec(o)
	if err != nil {
		return err
	}

	s := buildSimulation(o)
	defer s.Terminate()

	comp := station.MakeBuilder().
		WithEngine(s.GetEngine()).
		WithSpec(spec).
		WithNumSteps(o.steps).
		Build(o.name)
	s.RegisterStation(comp)

	comp.AcceptHook(operatorSchedule(comp, o))

	stats := tracing.NewErrorStatsTracer(o.settleTime)
	tracing.CollectTrace(comp, stats)

	slog.Info("station configured",
		"name", o.name,
		"time_step", spec.TimeStep(),
		"loaded_q", cavity.DefaultModeParams().LoadedQ(),
		"half_bandwidth", spec.Cavity.DecayRate,
		"loop_gain", spec.Gain(),
		"kp", spec.Controller.Kp,
		"ki", spec.Controller.Ki,
	)

	if url := s.MonitorURL(); url != "" && o.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			slog.Warn("cannot open browser", "err", err)
		}
	}

	start := time.Now()
	if err := s.Run(); err != nil {
		return err
	}

	snap := comp.Snapshot()
	slog.Info("simulation finished",
		"steps", snap.Step,
		"wall_time", time.Since(start).Round(time.Millisecond),
		"probe", fmt.Sprintf("%.6g", snap.Probe),
		"forward", fmt.Sprintf("%.6g", snap.Forward),
		"reverse", fmt.Sprintf("%.6g", snap.Reverse),
		"rms_error", stats.RMS(),
		"max_error", stats.MaxAbs(),
	)

	if path := s.OutputPath(); path != "" {
		slog.Info("trace recorded", "file", path)
	}

	if o.wait && s.MonitorURL() != "" {
		slog.Info("waiting for interrupt", "monitor", s.MonitorURL())

		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt)
		<-ch
	}

	return nil
}
