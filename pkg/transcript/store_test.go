package transcript_test

import (
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/huddle/pkg/textsim"
	"github.com/papercomputeco/huddle/pkg/transcript"
)

var _ = Describe("Store", func() {
	var (
		store *transcript.Store
		now   time.Time
	)

	BeforeEach(func() {
		now = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
		store = transcript.NewStore(transcript.WithClock(func() time.Time { return now }))
	})

	Describe("Get", func() {
		It("lazily creates a defaulted meeting", func() {
			m := store.Get("m1")
			Expect(m.ID()).To(Equal("m1"))
			Expect(m.Agenda()).To(BeEmpty())
			Expect(m.Len()).To(BeZero())
		})

		It("starts new meetings in the joining state", func() {
			status, _ := store.Get("fresh").Status()
			Expect(status).To(Equal(transcript.StatusJoining))
			Expect([]transcript.Status{
				transcript.StatusJoining,
				transcript.StatusInCall,
				transcript.StatusDone,
				transcript.StatusError,
			}).To(ContainElement(status))
		})

		It("returns the same meeting on repeated lookups", func() {
			Expect(store.Get("m1")).To(BeIdenticalTo(store.Get("m1")))
		})

		It("does not create meetings through Lookup", func() {
			_, ok := store.Lookup("ghost")
			Expect(ok).To(BeFalse())
			Expect(store.IDs()).To(BeEmpty())
		})
	})

	Describe("Append", func() {
		It("ignores blank text", func() {
			Expect(store.Append("m1", "Ana", "   \n\t", time.Time{})).To(BeFalse())
			m := store.Get("m1")
			Expect(m.Len()).To(BeZero())
			Expect(m.RecentContext()).To(BeEmpty())
		})

		It("grows the log by one and indexes every token at the new position", func() {
			store.Append("m1", "Ana", "kickoff for the launch", time.Time{})
			Expect(store.Append("m1", "Ben", "Launch budget, launch date!", time.Time{})).To(BeTrue())

			m := store.Get("m1")
			Expect(m.Len()).To(Equal(2))
			for _, tok := range textsim.Index.Tokens("Launch budget, launch date!") {
				Expect(m.Positions(tok)).To(ContainElement(1))
			}
			Expect(m.Positions("launch")).To(Equal([]int{0, 1}))
			Expect(m.Positions("the")).To(BeEmpty())
		})

		It("defaults the speaker and timestamp", func() {
			store.Append("m1", "  ", "hello there", time.Time{})
			u := store.Get("m1").Utterances()[0]
			Expect(u.Speaker).To(Equal(transcript.DefaultSpeaker))
			Expect(u.Timestamp).To(Equal(now))
		})

		It("keeps explicit timestamps and records the recording start", func() {
			ts := now.Add(-time.Hour)
			store.Append("m1", "Ana", "first", ts)
			store.Append("m1", "Ana", "second", now)
			Expect(store.Get("m1").RecordingStartedAt()).To(Equal(ts))
		})

		It("bounds the rolling buffer independently of the log", func() {
			store = transcript.NewStore(transcript.WithRecentCapacity(3))
			for i := range 5 {
				store.Append("m1", "Ana", fmt.Sprintf("line %d", i), time.Time{})
			}
			m := store.Get("m1")
			Expect(m.Len()).To(Equal(5))
			Expect(m.RecentContext()).To(Equal("Ana: line 2\nAna: line 3\nAna: line 4"))
		})

		It("evicts the oldest utterances past the cap and rebuilds the index", func() {
			store = transcript.NewStore(transcript.WithMaxUtterances(3))
			store.Append("m1", "Ana", "alpha topic", time.Time{})
			store.Append("m1", "Ana", "bravo topic", time.Time{})
			store.Append("m1", "Ana", "charlie topic", time.Time{})
			store.Append("m1", "Ana", "delta topic", time.Time{})
			store.Append("m1", "Ana", "echo topic", time.Time{})

			m := store.Get("m1")
			Expect(m.Len()).To(Equal(3))
			Expect(m.Utterances()[0].Text).To(Equal("charlie topic"))
			Expect(m.Positions("alpha")).To(BeEmpty())
			Expect(m.Positions("topic")).To(Equal([]int{0, 1, 2}))
			Expect(m.Positions("echo")).To(Equal([]int{2}))

			m.View(func(log []transcript.Utterance, index map[string][]int) {
				for _, positions := range index {
					for _, p := range positions {
						Expect(p).To(BeNumerically(">=", 0))
						Expect(p).To(BeNumerically("<", len(log)))
					}
				}
			})
		})

		It("is safe for concurrent appends", func() {
			var wg sync.WaitGroup
			for i := range 20 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					store.Append("m1", "Ana", fmt.Sprintf("message number %d", i), time.Time{})
				}()
			}
			wg.Wait()
			Expect(store.Get("m1").Positions("message")).To(HaveLen(20))
		})
	})

	Describe("AppendLine", func() {
		It("splits a speaker prefix", func() {
			store.AppendLine("m1", "Dana Scully: the files are open", time.Time{})
			u := store.Get("m1").Utterances()[0]
			Expect(u.Speaker).To(Equal("Dana Scully"))
			Expect(u.Text).To(Equal("the files are open"))
		})

		It("falls back to the default speaker", func() {
			store.AppendLine("m1", "no prefix here", time.Time{})
			u := store.Get("m1").Utterances()[0]
			Expect(u.Speaker).To(Equal(transcript.DefaultSpeaker))
			Expect(u.Text).To(Equal("no prefix here"))
		})
	})

	Describe("setters", func() {
		It("trims the agenda", func() {
			store.SetAgenda("m1", "  Q3 planning \n")
			Expect(store.Get("m1").Agenda()).To(Equal("Q3 planning"))
		})

		It("accepts any status sequence and stamps the update time", func() {
			store.SetStatus("m1", transcript.StatusDone)
			now = now.Add(time.Minute)
			store.SetStatus("m1", transcript.StatusJoining)
			status, at := store.Get("m1").Status()
			Expect(status).To(Equal(transcript.StatusJoining))
			Expect(at).To(Equal(now))
		})

		It("remembers participants and ignores blank values", func() {
			store.RememberParticipant("m1", "Ana", "p-1")
			store.RememberParticipant("m1", "", "p-2")
			store.RememberParticipant("m1", "Ben", " ")
			Expect(store.Get("m1").Participants()).To(Equal(map[string]string{"Ana": "p-1"}))
		})

		It("updates tangent state atomically", func() {
			m := store.Get("m1")
			m.UpdateTangent(func(st *transcript.TangentState) { st.Strikes++ })
			m.UpdateTangent(func(st *transcript.TangentState) { st.Strikes++ })
			Expect(m.Tangent().Strikes).To(Equal(2))
		})
	})

	Describe("Evict", func() {
		It("drops resident meetings", func() {
			store.Get("m1")
			store.Get("m2")
			Expect(store.IDs()).To(Equal([]string{"m1", "m2"}))
			Expect(store.Evict("m1")).To(BeTrue())
			Expect(store.Evict("m1")).To(BeFalse())
			Expect(store.IDs()).To(Equal([]string{"m2"}))
		})
	})
})
