package tangent_test

import (
	"context"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/huddle/pkg/inference"
	"github.com/papercomputeco/huddle/pkg/tangent"
	"github.com/papercomputeco/huddle/pkg/transcript"
)

type fakeClassifier struct {
	result *inference.TangentResult
	err    error
	calls  int
}

func (f *fakeClassifier) ClassifyTangent(context.Context, string, string) (*inference.TangentResult, error) {
	f.calls++
	return f.result, f.err
}

var (
	offTopic = &inference.TangentResult{OnTopic: false, Confidence: 0.9, Message: "Back to the roadmap?"}
	onTopic  = &inference.TangentResult{OnTopic: true, Confidence: 0.9}
	unsure   = &inference.TangentResult{OnTopic: false, Confidence: 0.69}
)

var _ = Describe("Detector", func() {
	var (
		now      time.Time
		clock    func() time.Time
		store    *transcript.Store
		m        *transcript.Meeting
		client   *fakeClassifier
		detector *tangent.Detector
	)

	BeforeEach(func() {
		now = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
		clock = func() time.Time { return now }
		store = transcript.NewStore(transcript.WithClock(clock))
		store.SetAgenda("m1", "Roadmap review")
		m = store.Get("m1")
		client = &fakeClassifier{result: offTopic}
		detector = tangent.New(tangent.DefaultConfig(), client, tangent.WithClock(clock))
	})

	Describe("ShouldCheck", func() {
		It("needs an agenda", func() {
			Expect(detector.ShouldCheck(store.Get("no-agenda"))).To(BeFalse())
			Expect(detector.ShouldCheck(m)).To(BeTrue())
		})

		It("is false right after a check and true once the interval passes", func() {
			_, err := detector.Classify(context.Background(), m)
			Expect(err).NotTo(HaveOccurred())
			Expect(detector.ShouldCheck(m)).To(BeFalse())

			now = now.Add(4 * time.Second)
			Expect(detector.ShouldCheck(m)).To(BeFalse())
			now = now.Add(time.Second)
			Expect(detector.ShouldCheck(m)).To(BeTrue())
		})

		It("advances the check time even when classification fails", func() {
			client.err = errors.New("timeout")
			_, err := detector.Classify(context.Background(), m)
			Expect(err).To(HaveOccurred())
			Expect(m.Tangent().LastCheck).To(Equal(now))
		})
	})

	Describe("Register", func() {
		It("intervenes once on two confident strikes inside the window", func() {
			Expect(detector.Register(m, offTopic)).To(BeFalse())
			Expect(detector.Phase(m)).To(Equal(tangent.PhaseStriking))

			now = now.Add(10 * time.Second)
			Expect(detector.Register(m, offTopic)).To(BeTrue())

			st := m.Tangent()
			Expect(st.Strikes).To(BeZero())
			Expect(st.WindowExpiry.IsZero()).To(BeTrue())
			Expect(st.CooldownExpiry).To(Equal(now.Add(45 * time.Second)))
			Expect(detector.Phase(m)).To(Equal(tangent.PhaseCooling))
		})

		It("forgives drift on an on-topic beat", func() {
			Expect(detector.Register(m, offTopic)).To(BeFalse())
			Expect(detector.Register(m, onTopic)).To(BeFalse())
			Expect(m.Tangent().Strikes).To(BeZero())
			Expect(detector.Register(m, offTopic)).To(BeFalse())
			Expect(m.Tangent().Strikes).To(Equal(1))
		})

		It("treats low confidence like on topic", func() {
			Expect(detector.Register(m, offTopic)).To(BeFalse())
			Expect(detector.Register(m, unsure)).To(BeFalse())
			Expect(detector.Phase(m)).To(Equal(tangent.PhaseIdle))
		})

		It("restarts the count when the window expired", func() {
			Expect(detector.Register(m, offTopic)).To(BeFalse())
			now = now.Add(20 * time.Second)
			Expect(detector.Register(m, offTopic)).To(BeFalse())
			Expect(m.Tangent().Strikes).To(Equal(1))
		})

		It("ignores everything while cooling down", func() {
			detector.Register(m, offTopic)
			Expect(detector.Register(m, offTopic)).To(BeTrue())

			for range 5 {
				now = now.Add(5 * time.Second)
				Expect(detector.Register(m, offTopic)).To(BeFalse())
				Expect(m.Tangent().Strikes).To(BeZero())
			}

			now = now.Add(30 * time.Second)
			Expect(detector.Phase(m)).To(Equal(tangent.PhaseIdle))
			Expect(detector.Register(m, offTopic)).To(BeFalse())
			Expect(m.Tangent().Strikes).To(Equal(1))
		})
	})

	Describe("Message", func() {
		It("uses the classification message", func() {
			Expect(detector.Message("Roadmap", offTopic)).To(Equal("Back to the roadmap?"))
		})

		It("falls back to a nudge built from the agenda", func() {
			msg := detector.Message("Roadmap review", &inference.TangentResult{})
			Expect(msg).To(ContainSubstring("Roadmap review"))
		})

		It("caps the message", func() {
			msg := detector.Message(strings.Repeat("agenda ", 100), nil)
			Expect(len([]rune(msg))).To(Equal(160))
		})
	})

	Describe("Check", func() {
		It("returns the intervention message on the second strike", func() {
			_, msg, err := detector.Check(context.Background(), m)
			Expect(err).NotTo(HaveOccurred())
			Expect(msg).To(BeEmpty())

			now = now.Add(5 * time.Second)
			_, msg, err = detector.Check(context.Background(), m)
			Expect(err).NotTo(HaveOccurred())
			Expect(msg).To(Equal("Back to the roadmap?"))
			Expect(client.calls).To(Equal(2))
		})

		It("leaves strike state alone on failure", func() {
			detector.Register(m, offTopic)
			client.err = errors.New("bad json")

			_, _, err := detector.Check(context.Background(), m)
			Expect(err).To(HaveOccurred())
			Expect(m.Tangent().Strikes).To(Equal(1))
		})
	})
})
