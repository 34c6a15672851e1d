package plotting

import (
	"bytes"
	"context"
	"database/sql"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/llrf/datarecording"
	"github.com/sarchlab/llrf/station"
	"github.com/sarchlab/llrf/tracing"
)

const pngMagic = "\x89PNG\r\n\x1a\n"

func recordedTrace(n int) []tracing.StepEntry {
	spec := station.ReferenceSpec()
	state := station.State{}

	entries := make([]tracing.StepEntry, 0, n)
	for i := 1; i <= n; i++ {
		station.Step(0, &spec, &state)
		entries = append(entries, tracing.MakeStepEntry("Cav1", station.Snapshot{
			Step:     uint64(i),
			Time:     float64(i) * spec.TimeStep(),
			SetPoint: spec.Controller.SetPoint,
			Error:    state.Error,
			Drive:    state.Controller.Drive,
			Voltage:  state.Cavity.Voltage,
			Probe:    state.Cavity.Probe,
			Forward:  state.Cavity.Forward,
			Reverse:  state.Cavity.Reverse,
		}))
	}

	return entries
}

var _ = Describe("Trace", func() {
	var trace Trace

	BeforeEach(func() {
		trace = Trace{Location: "Cav1"}
		for _, e := range recordedTrace(200) {
			trace.Append(e)
		}
	})

	It("should summarize the tracking error", func() {
		s := Summarize(trace, 0.25)

		Expect(s.Samples).To(Equal(200))
		Expect(s.FinalProbe).To(Equal(trace.Probe[199]))
		Expect(s.PeakProbe).To(BeNumerically(">", 0))
		Expect(s.TailMeanErr).To(BeNumerically(">", 0))
		Expect(s.TailStdDevErr).To(BeNumerically(">=", 0))
	})

	It("should take the tracking error from the recorded error", func() {
		rotated := Trace{Location: "Cav1"}
		for i := 0; i < 8; i++ {
			rotated.Append(tracing.StepEntry{
				Time:       float64(i),
				SetPointRe: 11.5,
				ProbeIm:    11.5,
				ErrorRe:    0.01,
			})
		}

		s := Summarize(rotated, 0.5)

		Expect(s.TailMeanErr).To(BeNumerically("~", 0.01, 1e-12))
		Expect(s.TailStdDevErr).To(BeNumerically("~", 0, 1e-12))
	})

	It("should leave open-loop samples out of the tail error", func() {
		mixed := Trace{Location: "Cav1"}
		for i := 0; i < 4; i++ {
			mixed.Append(tracing.StepEntry{
				Time:     float64(i),
				OpenLoop: i%2 == 0,
				ErrorRe:  float64(1 + 99*((i+1)%2)),
			})
		}

		Expect(Summarize(mixed, 1).TailMeanErr).To(Equal(1.0))
	})

	It("should summarize an empty trace", func() {
		Expect(Summarize(Trace{}, 0.5)).To(Equal(Summary{}))
	})

	It("should keep recorded units without couplings", func() {
		m := MagnitudesOf(trace)

		Expect(m.Unit).To(ContainSubstring("recorded"))
		Expect(m.Probe[199]).To(Equal(cmplx.Abs(trace.Probe[199])))
	})

	It("should render PNG figures", func() {
		p, err := MagnitudePlot(trace)
		Expect(err).NotTo(HaveOccurred())

		buf := bytes.NewBuffer(nil)
		Expect(WritePNG(buf, p)).To(Succeed())
		Expect(buf.Bytes()).To(HavePrefix(pngMagic))
	})

	It("should save all figures", func() {
		dir := filepath.Join(GinkgoT().TempDir(), "figs")

		files, err := SaveAll(dir, trace)

		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(HaveLen(3))
		for _, f := range files {
			content, err := os.ReadFile(f)
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(HavePrefix(pngMagic))
		}
	})

	It("should refuse to save an empty trace", func() {
		_, err := SaveAll(GinkgoT().TempDir(), Trace{Location: "Cav1"})

		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("LoadTrace", func() {
	var (
		db     *sql.DB
		reader datarecording.DataReader
	)

	BeforeEach(func() {
		var err error
		db, err = sql.Open("sqlite3", ":memory:")
		Expect(err).NotTo(HaveOccurred())
		db.SetMaxOpenConns(1)

		recorder := datarecording.NewWithDB(db)
		recorder.CreateTable(tracing.TraceTable, tracing.StepEntry{})
		recorder.CreateTable(tracing.SpecTable, tracing.SpecEntry{})
		recorder.InsertData(tracing.SpecTable,
			tracing.MakeSpecEntry("Cav1", station.ReferenceSpec()))
		for _, e := range recordedTrace(50) {
			recorder.InsertData(tracing.TraceTable, e)
		}
		recorder.Flush()

		reader = datarecording.NewReaderWithDB(db)
	})

	AfterEach(func() {
		db.Close()
	})

	It("should load a recorded trace", func() {
		trace, err := LoadTrace(context.Background(), reader, "Cav1")

		Expect(err).NotTo(HaveOccurred())
		Expect(trace.Len()).To(Equal(50))
		Expect(trace.Time[0]).To(BeNumerically("<", trace.Time[49]))
	})

	It("should load the couplings of the station", func() {
		trace, err := LoadTrace(context.Background(), reader, "Cav1")
		Expect(err).NotTo(HaveOccurred())

		spec := station.ReferenceSpec()
		Expect(trace.Couplings).NotTo(BeNil())
		Expect(*trace.Couplings).To(Equal(CouplingsOf(
			tracing.MakeSpecEntry("Cav1", spec))))
		Expect(trace.Couplings.KProbe).To(Equal(spec.Cavity.KProbe))
	})

	It("should plot every amplitude in cavity volts", func() {
		trace, err := LoadTrace(context.Background(), reader, "Cav1")
		Expect(err).NotTo(HaveOccurred())

		spec := station.ReferenceSpec()
		entries := recordedTrace(50)
		m := MagnitudesOf(trace)

		Expect(m.Unit).To(Equal("cavity voltage (V)"))
		for i, e := range entries {
			v := cmplx.Abs(complex(e.VoltageRe, e.VoltageIm))
			Expect(m.Probe[i]).To(BeNumerically("~", v, 1e-9*(1+v)))

			fwd := trace.Forward[i] / complex(spec.Cavity.KForward, 0)
			drive := cmplx.Abs(fwd) * math.Abs(spec.Cavity.KDrive)
			Expect(m.Forward[i]).To(BeNumerically("~", drive, 1e-9*(1+drive)))
		}

		Expect(m.SetPoint[0]).To(BeNumerically("~",
			cmplx.Abs(spec.Controller.SetPoint)/cmplx.Abs(spec.Cavity.KProbe),
			1e-9))
	})

	It("should fail for an unknown station", func() {
		_, err := LoadTrace(context.Background(), reader, "Cav9")

		Expect(err).To(MatchError(ContainSubstring("no trace")))
	})

	It("should list recorded stations", func() {
		names, err := Locations(context.Background(), reader)

		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(Equal([]string{"Cav1"}))
	})
})
