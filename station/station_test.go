package station

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/llrf/amplifier"
	"github.com/sarchlab/llrf/cavity"
	"github.com/sarchlab/llrf/controller"
	"github.com/sarchlab/llrf/rf"
)

// normalizedSpec is a unit gain station whose controller zero cancels the
// cavity pole at 100 rad/s.
func normalizedSpec() Spec {
	const dt = 1e-5

	return Spec{
		Controller: controller.Spec{
			Kp:        -10,
			Ki:        -1000,
			SetPoint:  1,
			OutSat:    10,
			Harshness: 20,
			TimeStep:  dt,
			Polarity:  controller.Inverting,
		},
		Amplifier: amplifier.Spec{
			TimeConstant: 1e-4,
			Harshness:    5,
			FullScale:    10,
			TimeStep:     dt,
		},
		Cavity: cavity.Spec{
			DecayRate: 100,
			KDrive:    1,
			KForward:  1,
			KProbe:    1,
			KReverse:  1,
			TimeStep:  dt,
		},
	}
}

func run(n int, disturbance complex128, spec *Spec, state *State) {
	for i := 0; i < n; i++ {
		Step(disturbance, spec, state)
	}
}

var _ = Describe("Station", func() {
	var (
		spec  Spec
		state State
	)

	BeforeEach(func() {
		spec = normalizedSpec()
		state = State{}
	})

	It("should validate the normalized and the reference station", func() {
		Expect(spec.Validate()).To(Succeed())
		Expect(ReferenceSpec().Validate()).To(Succeed())
	})

	It("should reject mismatched time steps", func() {
		spec.Amplifier.TimeStep = 2e-5
		spec.Amplifier.TimeConstant = 1e-3

		err := spec.Validate()

		Expect(errors.Is(err, rf.ErrInvalidParameter)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("time steps differ"))
	})

	It("should name the failing part", func() {
		spec.Cavity.DecayRate = -1

		err := spec.Validate()

		Expect(errors.Is(err, rf.ErrInvalidParameter)).To(BeTrue())
		Expect(err.Error()).To(HavePrefix("cavity:"))
	})

	It("should act on the previous probe only", func() {
		Step(0, &spec, &state)

		Expect(state.Error).To(Equal(spec.Controller.SetPoint))
		Expect(state.Cavity.Probe).NotTo(BeZero())

		previous := state.Cavity.Probe
		Step(0, &spec, &state)

		Expect(state.Error).To(Equal(spec.Controller.SetPoint - previous))
	})

	It("should return the cavity voltage", func() {
		v := Step(0, &spec, &state)

		Expect(v).To(Equal(state.Cavity.Voltage))
	})

	DescribeTable("closed loop convergence",
		func(mutate func(*Spec), setPoint complex128) {
			mutate(&spec)
			spec.Controller.SetPoint = setPoint
			Expect(spec.Validate()).To(Succeed())

			maxProbe := 0.0
			for i := 0; i < 20000; i++ {
				Step(0, &spec, &state)

				Expect(cmplx.Abs(state.Controller.Drive)).
					To(BeNumerically("<", spec.Controller.OutSat))
				maxProbe = math.Max(maxProbe, cmplx.Abs(state.Cavity.Probe))
			}

			Expect(cmplx.Abs(Measured(&spec, &state) - setPoint)).
				To(BeNumerically("<", 1e-4))
			Expect(maxProbe).To(BeNumerically("<", 2*cmplx.Abs(setPoint)))
		},
		Entry("unit gain", func(*Spec) {}, complex(1, 0)),
		Entry("complex set point", func(*Spec) {}, complex(0.3, -0.6)),
		Entry("rotated probe with detuning", func(s *Spec) {
			s.Cavity.KProbe = cmplx.Rect(2, 0.4)
			s.Cavity.Detuning = 30
			s.ProbePhase = -0.4
			s.Controller.Kp /= 2
			s.Controller.Ki /= 2
		}, complex(1, 0)),
	)

	It("should hold the voltage at set point over probe coupling", func() {
		spec.Cavity.KProbe = 0.5
		spec.Controller.Kp *= 2
		spec.Controller.Ki *= 2

		run(20000, 0, &spec, &state)

		Expect(cmplx.Abs(state.Cavity.Probe/spec.Cavity.KProbe -
			spec.Controller.SetPoint/spec.Cavity.KProbe)).
			To(BeNumerically("<", 1e-3))
	})

	It("should reject a constant disturbance", func() {
		run(20000, 0, &spec, &state)

		disturbance := complex(0.2, 0.1)
		Step(disturbance, &spec, &state)
		Expect(cmplx.Abs(state.Error)).To(BeNumerically("<", 1e-3))

		run(30000, disturbance, &spec, &state)

		Expect(cmplx.Abs(Measured(&spec, &state) - spec.Controller.SetPoint)).
			To(BeNumerically("<", 1e-4))
	})

	It("should follow a set point change", func() {
		run(20000, 0, &spec, &state)

		spec.Controller.SetPoint = complex(0, 0.5)
		run(20000, 0, &spec, &state)

		Expect(cmplx.Abs(Measured(&spec, &state) - complex(0, 0.5))).
			To(BeNumerically("<", 1e-4))
	})

	It("should pass the set point through in open loop", func() {
		run(500, 0, &spec, &state)
		integrator := state.Controller.Integrator

		spec.Controller.OpenLoop = true
		spec.Controller.SetPoint = complex(0.7, 0.2)
		for i := 0; i < 500; i++ {
			Step(0, &spec, &state)

			Expect(state.Controller.Drive).To(Equal(spec.Controller.SetPoint))
			Expect(state.Controller.Integrator).To(Equal(integrator))
		}

		spec.Controller.OpenLoop = false
		Step(0, &spec, &state)
		Expect(state.Controller.Integrator).NotTo(Equal(integrator))
	})

	It("should settle the open loop to the cavity steady state", func() {
		spec.Controller.OpenLoop = true
		spec.Controller.SetPoint = 2

		run(200000, 0, &spec, &state)

		fwd := amplifier.SteadyState(2, &spec.Amplifier)
		Expect(cmplx.Abs(state.Cavity.Probe -
			cavity.SteadyStateProbe(fwd, &spec.Cavity))).
			To(BeNumerically("<", 1e-6))
	})

	It("should converge with the reference station", func() {
		spec = ReferenceSpec()

		run(60000, 0, &spec, &state)

		Expect(cmplx.Abs(Measured(&spec, &state)-spec.Controller.SetPoint) /
			cmplx.Abs(spec.Controller.SetPoint)).
			To(BeNumerically("<", 1e-3))
		Expect(cmplx.Abs(state.Amplifier.Output)).
			To(BeNumerically("<", spec.Amplifier.FullScale))
	})

	It("should not allocate while stepping", func() {
		allocs := testing.AllocsPerRun(1000, func() {
			Step(0, &spec, &state)
		})

		Expect(allocs).To(BeZero())
	})

	It("should reset to rest", func() {
		run(100, 0, &spec, &state)

		state.Reset()

		Expect(state).To(Equal(State{}))
	})
})
