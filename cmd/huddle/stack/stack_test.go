package stack_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/huddle/cmd/huddle/stack"
	"github.com/papercomputeco/huddle/pkg/config"
	"github.com/papercomputeco/huddle/pkg/inference"
	"github.com/papercomputeco/huddle/pkg/upstream"
)

var _ = Describe("Stack", func() {
	var (
		cfg       *config.Config
		configDir string
	)

	BeforeEach(func() {
		GinkgoT().Setenv("RECALL_API_KEY", "")
		GinkgoT().Setenv("OPENAI_API_KEY", "")
		GinkgoT().Setenv("LLM_API_KEY", "")
		cfg = config.NewDefaultConfig()
		configDir = GinkgoT().TempDir()
	})

	build := func(opts stack.Options) *stack.Stack {
		opts.ConfigDir = configDir
		s, err := stack.New(cfg, opts)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(s.Close)
		return s
	}

	Describe("ResolveJournalDir", func() {
		It("defaults to transcripts inside the config dir", func() {
			dir, err := stack.ResolveJournalDir(cfg, configDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(dir).To(Equal(filepath.Join(configDir, "transcripts")))
		})

		It("prefers the configured directory", func() {
			cfg.Transcript.JournalDir = "/var/lib/huddle"
			dir, err := stack.ResolveJournalDir(cfg, configDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(dir).To(Equal("/var/lib/huddle"))
		})
	})

	Describe("New", func() {
		It("builds without any credentials", func() {
			s := build(stack.Options{Live: true})
			Expect(s.LLM).To(BeNil())
			Expect(s.Provider).To(BeNil())
			Expect(s.Moderator).NotTo(BeNil())
		})

		It("reports missing inference as a configuration error", func() {
			s := build(stack.Options{})
			s.Store.Append("m1", "Ana", "we shipped the release", s.Store.Now())

			_, err := s.Moderator.Summarize(context.Background(), "m1")
			Expect(upstream.IsNotConfigured(err)).To(BeTrue())
		})

		It("wires a keyless ollama model", func() {
			cfg.LLM.Provider = inference.ProviderOllama
			s := build(stack.Options{})
			Expect(s.LLM).NotTo(BeNil())
		})

		It("builds the provider only for live stacks", func() {
			cfg.Provider.APIKey = "recall-key"

			Expect(build(stack.Options{}).Provider).To(BeNil())
			Expect(build(stack.Options{Live: true}).Provider).NotTo(BeNil())
		})

		It("falls back to RECALL_API_KEY", func() {
			GinkgoT().Setenv("RECALL_API_KEY", "from-env")
			Expect(build(stack.Options{Live: true}).Provider).NotTo(BeNil())
		})

		It("journals into the resolved directory", func() {
			s := build(stack.Options{})
			Expect(s.Journal.Dir()).To(Equal(filepath.Join(configDir, "transcripts")))
		})
	})
})
