package config

import (
	"time"

	"github.com/papercomputeco/huddle/pkg/inference"
	"github.com/papercomputeco/huddle/pkg/moderator"
	"github.com/papercomputeco/huddle/pkg/recall"
	"github.com/papercomputeco/huddle/pkg/retrieval"
	"github.com/papercomputeco/huddle/pkg/tangent"
	"github.com/papercomputeco/huddle/pkg/topic"
)

const (
	defaultListen    = ":8080"
	defaultLogFormat = "pretty"

	defaultLLMProvider = inference.ProviderOpenAI
	defaultLLMModel    = "gpt-4o-mini"

	defaultChatRate  = 1.0
	defaultChatBurst = 3

	defaultRecentCapacity = 10

	defaultEventStreamTopic        = "huddle.meeting.events"
	defaultEventStreamWriteTimeout = 10 * time.Second
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	topicDefaults := topic.DefaultConfig()
	tangentDefaults := tangent.DefaultConfig()
	retrievalDefaults := retrieval.DefaultConfig()
	modDefaults := moderator.DefaultConfig()

	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			Listen:    defaultListen,
			LogFormat: defaultLogFormat,
		},
		Provider: ProviderConfig{
			BaseURL:   recall.DefaultBaseURL,
			BotName:   recall.DefaultBotName,
			ChatRate:  defaultChatRate,
			ChatBurst: defaultChatBurst,
		},
		LLM: LLMConfig{
			Provider:          defaultLLMProvider,
			Model:             defaultLLMModel,
			Timeout:           Duration(inference.DefaultTimeout),
			MaxTokens:         inference.DefaultMaxTokens,
			Temperature:       inference.DefaultTemperature,
			SummaryChunkChars: inference.DefaultChunkChars,
		},
		Transcript: TranscriptConfig{
			RecentCapacity: defaultRecentCapacity,
		},
		Topic: TopicConfig{
			Enabled:         topicDefaults.Enabled,
			Interval:        Duration(topicDefaults.Interval),
			Threshold:       topicDefaults.Threshold,
			MinConfidence:   topicDefaults.MinConfidence,
			MinContextChars: topicDefaults.MinContextChars,
			MaxLabelLen:     topicDefaults.MaxLabelLen,
			TokenWeight:     topicDefaults.Blend.Token,
			SequenceWeight:  topicDefaults.Blend.Sequence,
		},
		Tangent: TangentConfig{
			Enabled:             tangentDefaults.Enabled,
			Interval:            Duration(tangentDefaults.Interval),
			ConfidenceThreshold: tangentDefaults.ConfidenceThreshold,
			StrikeWindow:        Duration(tangentDefaults.StrikeWindow),
			Strikes:             tangentDefaults.Strikes,
			Cooldown:            Duration(tangentDefaults.Cooldown),
		},
		QA: QAConfig{
			Enabled:         modDefaults.QA.Enabled,
			MaxExcerpts:     retrievalDefaults.MaxExcerpts,
			MinScore:        retrievalDefaults.MinScore,
			MinContextChars: modDefaults.QA.MinContextChars,
			MaxContextChars: modDefaults.QA.MaxContextChars,
			TokenWeight:     retrievalDefaults.Blend.Token,
			SequenceWeight:  retrievalDefaults.Blend.Sequence,
		},
		Echo: EchoConfig{
			Enabled:     modDefaults.Echo.Enabled,
			MinInterval: Duration(modDefaults.Echo.MinInterval),
			MaxMessages: modDefaults.Echo.MaxMessages,
		},
		EventStream: EventStreamConfig{
			Topic:        defaultEventStreamTopic,
			WriteTimeout: Duration(defaultEventStreamWriteTimeout),
		},
		MCP: MCPConfig{
			Enabled: true,
		},
	}
}
