package controller

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/stat"

	"github.com/sarchlab/llrf/rf"
)

var _ = Describe("PI controller", func() {
	var (
		spec  Spec
		state State
	)

	BeforeEach(func() {
		spec = Defaults()
		state = State{}
	})

	Context("closed loop", func() {
		It("should recover kp and ki from a set point step", func() {
			const (
				tMax        = 2.0
				setPointVal = complex(1.0, 0)
				cavIn       = complex128(0)
			)

			n := int(tMax / spec.TimeStep)
			stepAt := n / 10
			times := make([]float64, n)
			drive := make([]complex128, n)

			for i := 0; i < n; i++ {
				if i == stepAt {
					spec.SetPoint = setPointVal
				}

				Step(Error(spec.SetPoint, cavIn), &spec, &state)

				times[i] = float64(i) * spec.TimeStep
				drive[i] = state.Drive
			}

			kpMeasured := (drive[stepAt] - drive[stepAt-1] +
				setPointVal*complex(spec.Ki*spec.TimeStep, 0)) / -setPointVal
			Expect(cmplx.Abs(kpMeasured - complex(spec.Kp, 0))).
				To(BeNumerically("<", 1e-12))

			x := times[stepAt : n-1]
			y := make([]float64, len(x))
			for i := range y {
				y[i] = real(drive[stepAt+i])
			}
			_, slope := stat.LinearRegression(x, y, nil, false)
			kiMeasured := slope / -cmplx.Abs(setPointVal)
			Expect(math.Abs(kiMeasured - spec.Ki)).To(BeNumerically("<", 1e-12))
		})

		It("should drive positively for a positive error with negative gains", func() {
			Step(complex(0.5, 0), &spec, &state)

			Expect(real(state.Drive)).To(BeNumerically(">", 0))
			Expect(real(state.Integrator)).To(BeNumerically("<", 0))
		})

		It("should flip the drive sign with direct polarity", func() {
			spec.Kp, spec.Ki, spec.Polarity = 5, 3, Direct

			Step(complex(0.5, 0), &spec, &state)

			Expect(real(state.Drive)).To(BeNumerically("~", 2.5+0.015, 1e-12))
		})

		It("should never exceed the output ceiling", func() {
			spec.Harshness = 5
			for i := 0; i < 1000; i++ {
				err := complex(float64(i)*10, -float64(i)*3)
				Step(err, &spec, &state)

				Expect(cmplx.Abs(state.Drive)).
					To(BeNumerically("<=", spec.OutSat))
			}
		})

		It("should return the error it was given", func() {
			err := complex(0.2, -0.7)

			Expect(Step(err, &spec, &state)).To(Equal(err))
		})
	})

	Context("open loop", func() {
		It("should follow the set point and freeze the integrator", func() {
			rng := rand.New(rand.NewSource(1))
			spec.OpenLoop = true
			spec.SetPoint = complex(0.8, 0.1)
			state.Integrator = complex(0.25, -0.5)

			for i := 0; i < 500; i++ {
				err := complex(rng.NormFloat64(), rng.NormFloat64())

				Expect(Step(err, &spec, &state)).To(Equal(err))
				Expect(state.Drive).To(Equal(spec.SetPoint))
				Expect(state.Integrator).To(Equal(complex(0.25, -0.5)))
			}
		})

		It("should resume from the frozen integrator when the loop closes", func() {
			spec.OpenLoop = true
			spec.SetPoint = 1
			Step(1, &spec, &state)
			Step(1, &spec, &state)
			Expect(state.Integrator).To(BeZero())

			spec.OpenLoop = false
			Step(1, &spec, &state)

			Expect(real(state.Integrator)).
				To(BeNumerically("~", spec.Ki*spec.TimeStep, 1e-15))
		})
	})

	It("should reset the state", func() {
		state = State{Drive: 1, Integrator: 2}

		state.Reset()

		Expect(state).To(Equal(State{}))
	})
})

var _ = DescribeTable("Spec validation",
	func(mutate func(*Spec), valid bool) {
		s := Defaults()
		mutate(&s)

		err := s.Validate()
		if valid {
			Expect(err).NotTo(HaveOccurred())
			return
		}

		Expect(errors.Is(err, rf.ErrInvalidParameter)).To(BeTrue())
	},
	Entry("defaults", func(*Spec) {}, true),
	Entry("zero time step", func(s *Spec) { s.TimeStep = 0 }, false),
	Entry("negative time step", func(s *Spec) { s.TimeStep = -1e-3 }, false),
	Entry("NaN kp", func(s *Spec) { s.Kp = math.NaN() }, false),
	Entry("infinite ki", func(s *Spec) { s.Ki = math.Inf(1) }, false),
	Entry("zero harshness", func(s *Spec) { s.Harshness = 0 }, false),
	Entry("zero output ceiling", func(s *Spec) { s.OutSat = 0 }, false),
	Entry("unset polarity", func(s *Spec) { s.Polarity = 0 }, false),
	Entry("infinite set point",
		func(s *Spec) { s.SetPoint = complex(math.Inf(1), 0) }, false),
	Entry("direct polarity", func(s *Spec) { s.Polarity = Direct }, true),
)
