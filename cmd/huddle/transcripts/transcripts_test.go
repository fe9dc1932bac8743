package transcriptscmder_test

import (
	"bytes"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	transcriptscmder "github.com/papercomputeco/huddle/cmd/huddle/transcripts"
	"github.com/papercomputeco/huddle/pkg/journal"
)

var _ = Describe("transcripts", func() {
	It("reports an empty journal", func() {
		out := &bytes.Buffer{}
		Expect(transcriptscmder.Run(out, journal.New(GinkgoT().TempDir()))).To(Succeed())
		Expect(out.String()).To(ContainSubstring("No transcripts yet."))
	})

	It("lists journaled meetings", func() {
		j := journal.New(GinkgoT().TempDir())
		for _, text := range []string{"hello", "agenda first"} {
			Expect(j.Append(journal.Record{
				TS:        time.Now(),
				MeetingID: "5e1f0000-0000-4000-8000-000000000042",
				Speaker:   "Ana",
				Text:      text,
				Event:     "transcript.data",
			})).To(Succeed())
		}

		out := &bytes.Buffer{}
		Expect(transcriptscmder.Run(out, j)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("5e1f0000-0000-4000-8000-000000000042"))
		Expect(out.String()).To(ContainSubstring("2 utterances"))
	})
})
