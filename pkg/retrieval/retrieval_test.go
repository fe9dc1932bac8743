package retrieval_test

import (
	"fmt"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/huddle/pkg/retrieval"
	"github.com/papercomputeco/huddle/pkg/textsim"
	"github.com/papercomputeco/huddle/pkg/transcript"
)

func texts(us []transcript.Utterance) []string {
	out := make([]string, len(us))
	for i, u := range us {
		out[i] = u.Text
	}
	return out
}

var _ = Describe("Engine", func() {
	var (
		store  *transcript.Store
		engine *retrieval.Engine
	)

	BeforeEach(func() {
		store = transcript.NewStore()
		engine = retrieval.New(retrieval.DefaultConfig())
	})

	Describe("New", func() {
		It("keeps an explicit zero threshold", func() {
			Expect(retrieval.New(retrieval.Config{MinScore: 0}).Config().MinScore).To(BeZero())
		})

		It("replaces a negative threshold and unset sizes with the defaults", func() {
			def := retrieval.DefaultConfig()
			cfg := retrieval.New(retrieval.Config{MinScore: -1}).Config()
			Expect(cfg.MinScore).To(Equal(def.MinScore))
			Expect(cfg.MaxExcerpts).To(Equal(def.MaxExcerpts))
			Expect(cfg.FallbackRecent).To(Equal(def.FallbackRecent))
			Expect(cfg.Blend).To(Equal(def.Blend))
		})
	})

	It("returns nothing for a blank question", func() {
		store.Append("m1", "Ana", "budget is fifty thousand", time.Time{})
		Expect(engine.Retrieve(store.Get("m1"), "   ")).To(BeEmpty())
	})

	It("returns nothing when there is no history", func() {
		Expect(engine.Retrieve(store.Get("m1"), "what is the budget?")).To(BeEmpty())
	})

	It("falls back to the most recent ten utterances when nothing ranks", func() {
		for i := range 15 {
			store.Append("m1", "Ana", fmt.Sprintf("alpha bravo charlie %d", i), time.Time{})
		}
		got := engine.Retrieve(store.Get("m1"), "xyzzy xyzzy")
		Expect(got).To(HaveLen(10))
		Expect(got[0].Text).To(Equal("alpha bravo charlie 5"))
		Expect(got[9].Text).To(Equal("alpha bravo charlie 14"))
	})

	It("falls back to the whole history when it is shorter than ten", func() {
		for i := range 3 {
			store.Append("m1", "Ana", fmt.Sprintf("alpha bravo charlie %d", i), time.Time{})
		}
		Expect(engine.Retrieve(store.Get("m1"), "xyzzy xyzzy")).To(HaveLen(3))
	})

	It("scans the whole history for fuzzy matches when no token is indexed", func() {
		for i := range 15 {
			store.Append("m1", "Ana", fmt.Sprintf("alpha bravo charlie %d", i), time.Time{})
		}
		store.Append("m1", "Ben", "budgeting numbers", time.Time{})
		for i := range 12 {
			store.Append("m1", "Ana", fmt.Sprintf("alpha bravo charlie %d", 15+i), time.Time{})
		}

		got := engine.Retrieve(store.Get("m1"), "budgets")
		Expect(texts(got)).To(ContainElement("budgeting numbers"))
	})

	It("returns keyword hits in chronological order", func() {
		store.Append("m1", "Ana", "welcome everyone", time.Time{})
		store.Append("m1", "Ben", "the budget is fifty thousand", time.Time{})
		store.Append("m1", "Ana", "lunch arrives at noon", time.Time{})
		store.Append("m1", "Cy", "parking is in the back", time.Time{})
		store.Append("m1", "Ben", "we decided the budget goes to marketing", time.Time{})

		got := engine.Retrieve(store.Get("m1"), "What did we decide about the budget?")
		Expect(texts(got)).To(Equal([]string{
			"the budget is fifty thousand",
			"we decided the budget goes to marketing",
		}))
	})

	It("bounds the ranked selection", func() {
		for i := range 20 {
			store.Append("m1", "Ana", fmt.Sprintf("budget line %d", i), time.Time{})
		}
		got := engine.Retrieve(store.Get("m1"), "budget")
		Expect(got).To(HaveLen(8))
		for i := 1; i < len(got); i++ {
			Expect(got[i].Timestamp).NotTo(BeTemporally("<", got[i-1].Timestamp))
		}
	})

	It("only considers the recent window of an index list", func() {
		cfg := retrieval.DefaultConfig()
		cfg.IndexWindow, cfg.MaxExcerpts = 2, 10
		engine = retrieval.New(cfg)
		for i := range 6 {
			store.Append("m1", "Ana", fmt.Sprintf("roadmap item %d", i), time.Time{})
		}
		got := engine.Retrieve(store.Get("m1"), "roadmap")
		Expect(texts(got)).To(Equal([]string{"roadmap item 4", "roadmap item 5"}))
	})

	It("never scores a keyword hit below its overlap ratio", func() {
		q := "budget review"
		score := engine.Score(q, textsim.Query.Set(q), "the budget")
		Expect(score).To(BeNumerically(">=", 0.5))
	})
})

var _ = Describe("Format", func() {
	excerpts := []transcript.Utterance{
		{Speaker: "Ana", Text: "first line"},
		{Speaker: "Ben", Text: "second line"},
		{Speaker: "Cy", Text: "third line"},
	}

	It("joins speaker lines", func() {
		Expect(retrieval.Format(excerpts, 2200)).To(Equal("Ana: first line\nBen: second line\nCy: third line"))
	})

	It("drops the oldest lines to fit the budget", func() {
		out := retrieval.Format(excerpts, 31)
		Expect(out).To(Equal("Ben: second line\nCy: third line"))
		Expect(len(out)).To(BeNumerically("<=", 31))
	})

	It("keeps a suffix of the input for any budget", func() {
		full := retrieval.Format(excerpts, 2200)
		for budget := range len(full) + 2 {
			out := retrieval.Format(excerpts, budget)
			Expect(len(out)).To(BeNumerically("<=", budget))
			Expect(strings.HasSuffix(full, out)).To(BeTrue())
		}
	})
})
