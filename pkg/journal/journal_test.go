package journal_test

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/huddle/pkg/journal"
)

var _ = Describe("Journal", func() {
	var (
		dir string
		j   *journal.Journal
		ts  time.Time
	)

	BeforeEach(func() {
		dir = filepath.Join(GinkgoT().TempDir(), "transcripts")
		j = journal.New(dir)
		ts = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	})

	It("appends records and replays them in order", func() {
		Expect(j.Append(journal.Record{TS: ts, MeetingID: "abc-123", Speaker: "Ana", Text: "hello", Event: "transcript.data",
			Participant: map[string]any{"id": float64(7), "name": "Ana"}})).To(Succeed())
		Expect(j.Append(journal.Record{TS: ts.Add(time.Second), MeetingID: "abc-123", Speaker: "Ben", Text: "hi"})).To(Succeed())

		var got []journal.Record
		found, err := j.Replay("abc-123", func(r journal.Record) error {
			got = append(got, r)
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(got).To(HaveLen(2))
		Expect(got[0].Speaker).To(Equal("Ana"))
		Expect(got[0].TS).To(BeTemporally("==", ts))
		Expect(got[0].Participant).To(HaveKeyWithValue("name", "Ana"))
		Expect(got[1].Text).To(Equal("hi"))
	})

	It("reports a missing journal as not found", func() {
		found, err := j.Replay("nope", func(journal.Record) error { return nil })
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse())
	})

	It("skips blank lines", func() {
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		content := "\n{\"speaker\":\"Ana\",\"text\":\"one\"}\n   \n{\"speaker\":\"Ben\",\"text\":\"two\"}\n"
		Expect(os.WriteFile(filepath.Join(dir, "transcript_abc.jsonl"), []byte(content), 0o644)).To(Succeed())

		n := 0
		_, err := j.Replay("abc", func(journal.Record) error { n++; return nil })
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))
	})

	It("replays lines written in the bot_id/raw_event layout", func() {
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		legacy := `{"ts": 1772618400.5, "bot_id": "abc-9", "speaker": "Ana", "participant": {"id": 3, "name": "Ana"}, "text": "hello", "raw_event": "transcript.data"}` + "\n"
		Expect(os.WriteFile(filepath.Join(dir, "transcript_abc-9.jsonl"), []byte(legacy), 0o644)).To(Succeed())
		Expect(j.Append(journal.Record{TS: ts, MeetingID: "abc-9", Speaker: "Ben", Text: "hi", Event: "transcript.data"})).To(Succeed())

		var got []journal.Record
		_, err := j.Replay("abc-9", func(r journal.Record) error {
			got = append(got, r)
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(2))
		Expect(got[0].MeetingID).To(Equal("abc-9"))
		Expect(got[0].Event).To(Equal("transcript.data"))
		Expect(got[0].TS).To(BeTemporally("==", time.Unix(1772618400, 500_000_000)))
		Expect(got[1].TS).To(BeTemporally("==", ts))
	})

	It("rejects a timestamp that is neither text nor a number", func() {
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "transcript_abc-8.jsonl"), []byte(`{"ts": true, "text": "x"}`+"\n"), 0o644)).To(Succeed())
		_, err := j.Replay("abc-8", func(journal.Record) error { return nil })
		Expect(err).To(MatchError(ContainSubstring("line 1")))
	})

	It("rejects ids that would escape the directory", func() {
		Expect(j.Append(journal.Record{MeetingID: "../etc"})).To(MatchError(journal.ErrInvalidMeetingID))
		_, err := j.Path("")
		Expect(err).To(MatchError(journal.ErrInvalidMeetingID))
	})

	It("serializes concurrent appends", func() {
		var wg sync.WaitGroup
		for range 25 {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				Expect(j.Append(journal.Record{MeetingID: "abc", Speaker: "Ana", Text: "concurrent"})).To(Succeed())
			}()
		}
		wg.Wait()

		n := 0
		_, err := j.Replay("abc", func(journal.Record) error { n++; return nil })
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(25))
	})

	Describe("List", func() {
		It("lists nothing when the directory is missing", func() {
			infos, err := j.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(infos).To(BeEmpty())
		})

		It("lists original transcripts newest first with utterance counts", func() {
			Expect(j.Append(journal.Record{MeetingID: "aaa-1", Text: "one"})).To(Succeed())
			Expect(j.Append(journal.Record{MeetingID: "bbb-2", Text: "one"})).To(Succeed())
			Expect(j.Append(journal.Record{MeetingID: "bbb-2", Text: "two"})).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dir, "transcript_bbb-2_es.jsonl"), []byte("{}\n"), 0o644)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)).To(Succeed())

			old := time.Now().Add(-time.Hour)
			Expect(os.Chtimes(filepath.Join(dir, "transcript_aaa-1.jsonl"), old, old)).To(Succeed())

			infos, err := j.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(infos).To(HaveLen(2))
			Expect(infos[0].MeetingID).To(Equal("bbb-2"))
			Expect(infos[0].Utterances).To(Equal(2))
			Expect(infos[1].MeetingID).To(Equal("aaa-1"))
			Expect(infos[1].Filename).To(Equal("transcript_aaa-1.jsonl"))
		})
	})
})
