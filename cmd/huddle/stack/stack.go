// Package stack assembles the moderator and its collaborators from a loaded
// config. Commands that need meeting state build one Stack and close it on
// exit.
package stack

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/papercomputeco/huddle/pkg/config"
	"github.com/papercomputeco/huddle/pkg/dotdir"
	"github.com/papercomputeco/huddle/pkg/eventstream"
	"github.com/papercomputeco/huddle/pkg/eventstream/kafka"
	"github.com/papercomputeco/huddle/pkg/eventstream/nop"
	"github.com/papercomputeco/huddle/pkg/inference"
	"github.com/papercomputeco/huddle/pkg/journal"
	"github.com/papercomputeco/huddle/pkg/moderator"
	"github.com/papercomputeco/huddle/pkg/recall"
	"github.com/papercomputeco/huddle/pkg/retrieval"
	"github.com/papercomputeco/huddle/pkg/tangent"
	"github.com/papercomputeco/huddle/pkg/textsim"
	"github.com/papercomputeco/huddle/pkg/topic"
	"github.com/papercomputeco/huddle/pkg/transcript"
	"github.com/papercomputeco/huddle/pkg/upstream"
)

// recallKeyEnv is read when provider.api_key is unset.
const recallKeyEnv = "RECALL_API_KEY"

// Options selects which collaborators are built.
type Options struct {
	// ConfigDir overrides .huddle/ resolution.
	ConfigDir string

	// Logger defaults to a nop logger.
	Logger *slog.Logger

	// Live builds the meeting provider, the event publisher and the
	// background topic and tangent engines. Offline commands only need the
	// journal and the model.
	Live bool
}

// Stack is a fully wired moderator.
type Stack struct {
	Config    *config.Config
	Store     *transcript.Store
	Journal   *journal.Journal
	Moderator *moderator.Moderator

	// LLM is nil when no inference credentials are configured.
	LLM *inference.LLM

	// Provider is nil when no provider key is configured or Live is off.
	Provider *recall.Client

	publisher eventstream.Publisher
	logger    *slog.Logger
}

// New builds a Stack from cfg. Missing credentials are not fatal: the
// affected features report a configuration error when used.
func New(cfg *config.Config, opts Options) (*Stack, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	journalDir, err := ResolveJournalDir(cfg, opts.ConfigDir)
	if err != nil {
		return nil, err
	}

	s := &Stack{
		Config: cfg,
		Store: transcript.NewStore(
			transcript.WithRecentCapacity(cfg.Transcript.RecentCapacity),
			transcript.WithMaxUtterances(cfg.Transcript.MaxUtterances),
		),
		Journal:   journal.New(journalDir),
		publisher: nop.NewPublisher(log.With("component", "eventstream")),
		logger:    log,
	}

	s.LLM, err = newLLM(cfg, log)
	if err != nil {
		return nil, err
	}

	modOpts := []moderator.Option{
		moderator.WithLogger(log),
		moderator.WithJournal(s.Journal),
		moderator.WithRetrieval(retrieval.New(retrieval.Config{
			MaxExcerpts: cfg.QA.MaxExcerpts,
			MinScore:    cfg.QA.MinScore,
			Blend:       textsim.Blend{Token: cfg.QA.TokenWeight, Sequence: cfg.QA.SequenceWeight},
		})),
	}
	if s.LLM != nil {
		modOpts = append(modOpts, moderator.WithInference(s.LLM))
	}

	if opts.Live {
		liveOpts, err := s.live(cfg)
		if err != nil {
			return nil, err
		}
		modOpts = append(modOpts, liveOpts...)
	}

	s.Moderator = moderator.New(moderatorConfig(cfg), s.Store, modOpts...)
	return s, nil
}

// live builds the provider, publisher and background engines.
func (s *Stack) live(cfg *config.Config) ([]moderator.Option, error) {
	var opts []moderator.Option

	provider, err := newProvider(cfg)
	switch {
	case upstream.IsNotConfigured(err):
		s.logger.Warn("meeting provider not configured, bots cannot be started", "error", err)
	case err != nil:
		return nil, err
	default:
		s.Provider = provider
		opts = append(opts, moderator.WithProvider(provider))
	}

	if len(cfg.EventStream.Brokers) > 0 {
		pub, err := kafka.NewPublisher(kafka.Config{
			Brokers:      cfg.EventStream.Brokers,
			Topic:        cfg.EventStream.Topic,
			WriteTimeout: cfg.EventStream.WriteTimeout.Std(),
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		s.publisher = pub
		s.logger.Info("publishing meeting events",
			"brokers", strings.Join(cfg.EventStream.Brokers, ","),
			"topic", cfg.EventStream.Topic,
		)
	}
	opts = append(opts, moderator.WithPublisher(s.publisher))

	if s.LLM == nil {
		s.logger.Warn("inference not configured, topic and tangent checks are off")
		return opts, nil
	}

	if cfg.Topic.Enabled {
		opts = append(opts, moderator.WithTopicTracker(topic.New(topicConfig(cfg), s.LLM)))
	}
	if cfg.Tangent.Enabled {
		opts = append(opts, moderator.WithTangentDetector(tangent.New(tangentConfig(cfg), s.LLM)))
	}
	return opts, nil
}

// Close drains background work and closes the publisher.
func (s *Stack) Close() error {
	s.Moderator.Close()
	return s.publisher.Close()
}

// ResolveJournalDir returns transcript.journal_dir, or transcripts/ inside the
// resolved .huddle directory.
func ResolveJournalDir(cfg *config.Config, configDir string) (string, error) {
	if dir := strings.TrimSpace(cfg.Transcript.JournalDir); dir != "" {
		return dir, nil
	}
	dir, err := dotdir.Resolve(configDir)
	if err != nil {
		return "", fmt.Errorf("resolving transcripts dir: %w", err)
	}
	return dir.Transcripts(), nil
}

func newLLM(cfg *config.Config, log *slog.Logger) (*inference.LLM, error) {
	callerCfg := inference.CallerConfig{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Timeout:     cfg.LLM.Timeout.Std(),
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}
	if !inference.HasCredentials(callerCfg) {
		log.Warn("no inference credentials found, questions and summaries are unavailable",
			"provider", cfg.LLM.Provider,
		)
		return nil, nil
	}

	call, err := inference.NewCaller(callerCfg)
	if err != nil {
		return nil, fmt.Errorf("creating inference caller: %w", err)
	}
	return inference.NewLLM(call,
		inference.WithLogger(log.With("component", "inference")),
		inference.WithChunkChars(cfg.LLM.SummaryChunkChars),
	), nil
}

func newProvider(cfg *config.Config) (*recall.Client, error) {
	key := cfg.Provider.APIKey
	if key == "" {
		key = os.Getenv(recallKeyEnv)
	}

	client, err := recall.New(recall.Config{
		APIKey:            key,
		BaseURL:           cfg.Provider.BaseURL,
		BotName:           cfg.Provider.BotName,
		JoinMessage:       cfg.Provider.JoinMessage,
		ChatRatePerSecond: cfg.Provider.ChatRate,
		ChatBurst:         cfg.Provider.ChatBurst,
	})
	if err != nil {
		if errors.Is(err, upstream.ErrNotConfigured) {
			return nil, err
		}
		return nil, fmt.Errorf("creating recall client: %w", err)
	}
	return client, nil
}

func moderatorConfig(cfg *config.Config) moderator.Config {
	mc := moderator.DefaultConfig()
	mc.BotName = cfg.Provider.BotName
	mc.MentionAliases = cfg.Provider.MentionAliases
	mc.PublicBaseURL = cfg.Webhook.PublicBaseURL
	mc.WebhookToken = cfg.Webhook.Token
	mc.QA = moderator.QAConfig{
		Enabled:         cfg.QA.Enabled,
		MinContextChars: cfg.QA.MinContextChars,
		MaxContextChars: cfg.QA.MaxContextChars,
	}
	mc.Echo = moderator.EchoConfig{
		Enabled:     cfg.Echo.Enabled,
		MinInterval: cfg.Echo.MinInterval.Std(),
		MaxMessages: cfg.Echo.MaxMessages,
	}
	if t := cfg.LLM.Timeout.Std(); t > 0 {
		mc.CheckTimeout = t
	}
	return mc
}

func topicConfig(cfg *config.Config) topic.Config {
	tc := topic.DefaultConfig()
	tc.Enabled = cfg.Topic.Enabled
	tc.Interval = cfg.Topic.Interval.Std()
	tc.Threshold = cfg.Topic.Threshold
	tc.MinConfidence = cfg.Topic.MinConfidence
	tc.MinContextChars = cfg.Topic.MinContextChars
	tc.MaxLabelLen = cfg.Topic.MaxLabelLen
	tc.Blend = textsim.Blend{Token: cfg.Topic.TokenWeight, Sequence: cfg.Topic.SequenceWeight}
	return tc
}

func tangentConfig(cfg *config.Config) tangent.Config {
	tc := tangent.DefaultConfig()
	tc.Enabled = cfg.Tangent.Enabled
	tc.Interval = cfg.Tangent.Interval.Std()
	tc.ConfidenceThreshold = cfg.Tangent.ConfidenceThreshold
	tc.StrikeWindow = cfg.Tangent.StrikeWindow.Std()
	tc.Strikes = cfg.Tangent.Strikes
	tc.Cooldown = cfg.Tangent.Cooldown.Std()
	return tc
}
