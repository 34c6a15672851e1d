package cmd

import (
	"context"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/llrf/controller"
	"github.com/sarchlab/llrf/sim"
	"github.com/sarchlab/llrf/station"
)

func defaultRunOptions() runOptions {
	return runOptions{
		name:       "Cav1",
		steps:      2000,
		setPoint:   11.5,
		kp:         -8,
		kiRatio:    1,
		decimation: 10,
	}
}

var _ = Describe("buildSpec", func() {
	It("should match the reference station by default", func() {
		spec, err := buildSpec(defaultRunOptions())

		Expect(err).NotTo(HaveOccurred())
		Expect(spec).To(Equal(station.ReferenceSpec()))
	})

	It("should detune the cavity", func() {
		o := defaultRunOptions()
		o.detuningHz = 10

		spec, err := buildSpec(o)

		Expect(err).NotTo(HaveOccurred())
		Expect(spec.Cavity.Detuning).To(BeNumerically("~", 20*math.Pi, 1e-9))
	})

	It("should pick the polarity from the gain sign", func() {
		o := defaultRunOptions()
		o.kp = 8

		spec, err := buildSpec(o)

		Expect(err).NotTo(HaveOccurred())
		Expect(spec.Controller.Polarity).To(Equal(controller.Direct))
		Expect(spec.Controller.Ki).To(BeNumerically(">", 0))
	})

	It("should apply the set point phase", func() {
		o := defaultRunOptions()
		o.setPhase = 0.5

		spec, err := buildSpec(o)

		Expect(err).NotTo(HaveOccurred())
		Expect(cmplx.Phase(spec.Controller.SetPoint)).
			To(BeNumerically("~", 0.5, 1e-12))
	})

	It("should reject non-finite gains", func() {
		o := defaultRunOptions()
		o.kp = math.Inf(1)

		_, err := buildSpec(o)

		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("operatorSchedule", func() {
	var (
		comp *station.Comp
		hook sim.HookFunc
	)

	stepAt := func(step uint64) {
		hook(sim.HookCtx{
			Pos:  station.HookPosStep,
			Item: station.Snapshot{Step: step},
		})
	}

	BeforeEach(func() {
		o := defaultRunOptions()
		o.disturbance = 3
		o.disturbanceAt = 10
		o.stepSetPoint = 5
		o.stepAt = 20

		comp = station.MakeBuilder().
			WithEngine(sim.NewSerialEngine()).
			Build("Cav1")
		hook = operatorSchedule(comp, o)
	})

	It("should act only at the configured steps", func() {
		stepAt(9)
		Expect(comp.Snapshot().Disturbance).To(Equal(complex(0, 0)))

		stepAt(10)
		Expect(comp.Snapshot().Disturbance).To(Equal(complex(3, 0)))
		Expect(comp.Spec().Controller.SetPoint).To(Equal(complex(11.5, 0)))

		stepAt(20)
		Expect(comp.Spec().Controller.SetPoint).To(Equal(complex(5, 0)))
	})

	It("should ignore other hook positions", func() {
		hook(sim.HookCtx{Pos: sim.HookPosAfterEvent})

		Expect(comp.Snapshot().Disturbance).To(Equal(complex(0, 0)))
	})

	It("should apply a disturbance at step zero from the start", func() {
		o := defaultRunOptions()
		o.disturbance = 3

		engine := sim.NewSerialEngine()
		c := station.MakeBuilder().
			WithEngine(engine).
			WithNumSteps(20).
			Build("Cav1")
		c.AcceptHook(operatorSchedule(c, o))

		c.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(c.StepCount()).To(Equal(uint64(20)))
		Expect(c.Snapshot().Disturbance).To(Equal(complex(3, 0)))
	})
})

var _ = Describe("run and plot", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should record a run and plot it", func() {
		o := defaultRunOptions()
		o.output = filepath.Join(dir, "run")
		o.stepAt = 1000
		o.stepSetPoint = 5
		o.disturbance = 1e3
		o.disturbanceAt = 500

		Expect(runStation(o)).To(Succeed())

		plotOutDir = filepath.Join(dir, "plots")
		plotStation = ""
		plotTailFrac = 0.2

		Expect(plotTrace(context.Background(), o.output+".sqlite3")).
			To(Succeed())

		entries, err := os.ReadDir(plotOutDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(3))
	})

	It("should refuse a zero decimation", func() {
		o := defaultRunOptions()
		o.noRecording = true
		o.decimation = 0

		Expect(runStation(o)).NotTo(Succeed())
	})

	It("should fail on a missing trace", func() {
		Expect(plotTrace(context.Background(),
			filepath.Join(dir, "absent.sqlite3"))).NotTo(Succeed())
	})

	It("should reject unknown log levels", func() {
		Expect(setupLogging("loud")).NotTo(Succeed())
		Expect(setupLogging("debug")).To(Succeed())
	})
})
