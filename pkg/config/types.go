package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent huddle configuration stored as config.toml
// in the .huddle/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Server      ServerConfig      `toml:"server"`
	Webhook     WebhookConfig     `toml:"webhook"`
	Provider    ProviderConfig    `toml:"provider"`
	LLM         LLMConfig         `toml:"llm"`
	Transcript  TranscriptConfig  `toml:"transcript"`
	Topic       TopicConfig       `toml:"topic"`
	Tangent     TangentConfig     `toml:"tangent"`
	QA          QAConfig          `toml:"qa"`
	Echo        EchoConfig        `toml:"echo"`
	EventStream EventStreamConfig `toml:"eventstream"`
	MCP         MCPConfig         `toml:"mcp"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`

	// LogFormat is the terminal log format: pretty, json or text.
	LogFormat string `toml:"log_format,omitempty"`

	// LogFile, when set, also receives every record as JSON.
	LogFile string `toml:"log_file,omitempty"`
}

// WebhookConfig describes how the meeting provider reaches huddle.
type WebhookConfig struct {
	// PublicBaseURL is the externally reachable base url (an ngrok url in dev).
	PublicBaseURL string `toml:"public_base_url,omitempty"`

	// Token, when set, must be passed as ?token= on every webhook call.
	Token string `toml:"token,omitempty"`
}

// ProviderConfig holds meeting provider (Recall.ai) settings.
type ProviderConfig struct {
	APIKey         string   `toml:"api_key,omitempty"`
	BaseURL        string   `toml:"base_url,omitempty"`
	BotName        string   `toml:"bot_name,omitempty"`
	MentionAliases []string `toml:"mention_aliases,omitempty"`
	JoinMessage    string   `toml:"join_message,omitempty"`
	ChatRate       float64  `toml:"chat_rate,omitempty"`
	ChatBurst      int      `toml:"chat_burst,omitempty"`
}

// LLMConfig holds inference provider settings.
type LLMConfig struct {
	Provider          string   `toml:"provider,omitempty"`
	Model             string   `toml:"model,omitempty"`
	APIKey            string   `toml:"api_key,omitempty"`
	BaseURL           string   `toml:"base_url,omitempty"`
	Timeout           Duration `toml:"timeout,omitempty"`
	MaxTokens         int      `toml:"max_tokens,omitempty"`
	Temperature       float64  `toml:"temperature"`
	SummaryChunkChars int      `toml:"summary_chunk_chars,omitempty"`
}

// TranscriptConfig holds transcript store and journal settings.
type TranscriptConfig struct {
	RecentCapacity int `toml:"recent_capacity,omitempty"`

	// MaxUtterances caps the in-memory log per meeting. Zero is unlimited.
	MaxUtterances int `toml:"max_utterances"`

	// JournalDir defaults to transcripts/ inside the .huddle directory.
	JournalDir string `toml:"journal_dir,omitempty"`
}

// TopicConfig holds topic tracking settings.
type TopicConfig struct {
	Enabled         bool     `toml:"enabled"`
	Interval        Duration `toml:"interval,omitempty"`
	Threshold       float64  `toml:"threshold,omitempty"`
	MinConfidence   float64  `toml:"min_confidence,omitempty"`
	MinContextChars int      `toml:"min_context_chars,omitempty"`
	MaxLabelLen     int      `toml:"max_label_len,omitempty"`
	TokenWeight     float64  `toml:"token_weight,omitempty"`
	SequenceWeight  float64  `toml:"sequence_weight,omitempty"`
}

// TangentConfig holds tangent detection settings.
type TangentConfig struct {
	Enabled             bool     `toml:"enabled"`
	Interval            Duration `toml:"interval,omitempty"`
	ConfidenceThreshold float64  `toml:"confidence_threshold,omitempty"`
	StrikeWindow        Duration `toml:"strike_window,omitempty"`
	Strikes             int      `toml:"strikes,omitempty"`
	Cooldown            Duration `toml:"cooldown,omitempty"`
}

// QAConfig holds question answering and retrieval settings.
type QAConfig struct {
	Enabled         bool    `toml:"enabled"`
	MaxExcerpts     int     `toml:"max_excerpts,omitempty"`
	MinScore        float64 `toml:"min_score,omitempty"`
	MinContextChars int     `toml:"min_context_chars,omitempty"`
	MaxContextChars int     `toml:"max_context_chars,omitempty"`
	TokenWeight     float64 `toml:"token_weight,omitempty"`
	SequenceWeight  float64 `toml:"sequence_weight,omitempty"`
}

// EchoConfig holds the debug chat echo settings.
type EchoConfig struct {
	Enabled     bool     `toml:"enabled"`
	MinInterval Duration `toml:"min_interval,omitempty"`
	MaxMessages int      `toml:"max_messages,omitempty"`
}

// EventStreamConfig holds meeting event publishing settings. Publishing is
// off while Brokers is empty.
type EventStreamConfig struct {
	Brokers      []string `toml:"brokers,omitempty"`
	Topic        string   `toml:"topic,omitempty"`
	WriteTimeout Duration `toml:"write_timeout,omitempty"`
}

// MCPConfig holds MCP endpoint settings.
type MCPConfig struct {
	Enabled bool `toml:"enabled"`
}

// Duration is a time.Duration written as a string ("30s") in config.toml.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error

	// list keys may arrive as TOML arrays as well as comma-separated text.
	list bool
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

// listKey stores comma-separated values.
func listKey(field func(c *Config) *[]string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strings.Join(*field(c), ",") },
		set: func(c *Config, v string) error {
			*field(c) = splitList(v)
			return nil
		},
		list: true,
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

func intKey(name string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			if n < 0 {
				return fmt.Errorf("invalid value for %s: must not be negative", name)
			}
			*field(c) = n
			return nil
		},
	}
}

func floatKey(name string, field func(c *Config) *float64) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatFloat(*field(c), 'g', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = f
			return nil
		},
	}
}

func durationKey(name string, field func(c *Config) *Duration) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return field(c).String() },
		set: func(c *Config, v string) error {
			if err := field(c).UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			return nil
		},
	}
}

// orderedKeys is every supported key in TOML section order.
var orderedKeys = []string{
	"server.listen",
	"server.log_format",
	"server.log_file",
	"webhook.public_base_url",
	"webhook.token",
	"provider.api_key",
	"provider.base_url",
	"provider.bot_name",
	"provider.mention_aliases",
	"provider.join_message",
	"provider.chat_rate",
	"provider.chat_burst",
	"llm.provider",
	"llm.model",
	"llm.api_key",
	"llm.base_url",
	"llm.timeout",
	"llm.max_tokens",
	"llm.temperature",
	"llm.summary_chunk_chars",
	"transcript.recent_capacity",
	"transcript.max_utterances",
	"transcript.journal_dir",
	"topic.enabled",
	"topic.interval",
	"topic.threshold",
	"topic.min_confidence",
	"topic.min_context_chars",
	"topic.max_label_len",
	"topic.token_weight",
	"topic.sequence_weight",
	"tangent.enabled",
	"tangent.interval",
	"tangent.confidence_threshold",
	"tangent.strike_window",
	"tangent.strikes",
	"tangent.cooldown",
	"qa.enabled",
	"qa.max_excerpts",
	"qa.min_score",
	"qa.min_context_chars",
	"qa.max_context_chars",
	"qa.token_weight",
	"qa.sequence_weight",
	"echo.enabled",
	"echo.min_interval",
	"echo.max_messages",
	"eventstream.brokers",
	"eventstream.topic",
	"eventstream.write_timeout",
	"mcp.enabled",
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"server.listen":     stringKey(func(c *Config) *string { return &c.Server.Listen }),
	"server.log_format": stringKey(func(c *Config) *string { return &c.Server.LogFormat }),
	"server.log_file":   stringKey(func(c *Config) *string { return &c.Server.LogFile }),

	"webhook.public_base_url": stringKey(func(c *Config) *string { return &c.Webhook.PublicBaseURL }),
	"webhook.token":           stringKey(func(c *Config) *string { return &c.Webhook.Token }),

	"provider.api_key":         stringKey(func(c *Config) *string { return &c.Provider.APIKey }),
	"provider.base_url":        stringKey(func(c *Config) *string { return &c.Provider.BaseURL }),
	"provider.bot_name":        stringKey(func(c *Config) *string { return &c.Provider.BotName }),
	"provider.mention_aliases": listKey(func(c *Config) *[]string { return &c.Provider.MentionAliases }),
	"provider.join_message":    stringKey(func(c *Config) *string { return &c.Provider.JoinMessage }),
	"provider.chat_rate":       floatKey("provider.chat_rate", func(c *Config) *float64 { return &c.Provider.ChatRate }),
	"provider.chat_burst":      intKey("provider.chat_burst", func(c *Config) *int { return &c.Provider.ChatBurst }),

	"llm.provider":            stringKey(func(c *Config) *string { return &c.LLM.Provider }),
	"llm.model":               stringKey(func(c *Config) *string { return &c.LLM.Model }),
	"llm.api_key":             stringKey(func(c *Config) *string { return &c.LLM.APIKey }),
	"llm.base_url":            stringKey(func(c *Config) *string { return &c.LLM.BaseURL }),
	"llm.timeout":             durationKey("llm.timeout", func(c *Config) *Duration { return &c.LLM.Timeout }),
	"llm.max_tokens":          intKey("llm.max_tokens", func(c *Config) *int { return &c.LLM.MaxTokens }),
	"llm.temperature":         floatKey("llm.temperature", func(c *Config) *float64 { return &c.LLM.Temperature }),
	"llm.summary_chunk_chars": intKey("llm.summary_chunk_chars", func(c *Config) *int { return &c.LLM.SummaryChunkChars }),

	"transcript.recent_capacity": intKey("transcript.recent_capacity", func(c *Config) *int { return &c.Transcript.RecentCapacity }),
	"transcript.max_utterances":  intKey("transcript.max_utterances", func(c *Config) *int { return &c.Transcript.MaxUtterances }),
	"transcript.journal_dir":     stringKey(func(c *Config) *string { return &c.Transcript.JournalDir }),

	"topic.enabled":           boolKey("topic.enabled", func(c *Config) *bool { return &c.Topic.Enabled }),
	"topic.interval":          durationKey("topic.interval", func(c *Config) *Duration { return &c.Topic.Interval }),
	"topic.threshold":         floatKey("topic.threshold", func(c *Config) *float64 { return &c.Topic.Threshold }),
	"topic.min_confidence":    floatKey("topic.min_confidence", func(c *Config) *float64 { return &c.Topic.MinConfidence }),
	"topic.min_context_chars": intKey("topic.min_context_chars", func(c *Config) *int { return &c.Topic.MinContextChars }),
	"topic.max_label_len":     intKey("topic.max_label_len", func(c *Config) *int { return &c.Topic.MaxLabelLen }),
	"topic.token_weight":      floatKey("topic.token_weight", func(c *Config) *float64 { return &c.Topic.TokenWeight }),
	"topic.sequence_weight":   floatKey("topic.sequence_weight", func(c *Config) *float64 { return &c.Topic.SequenceWeight }),

	"tangent.enabled":              boolKey("tangent.enabled", func(c *Config) *bool { return &c.Tangent.Enabled }),
	"tangent.interval":             durationKey("tangent.interval", func(c *Config) *Duration { return &c.Tangent.Interval }),
	"tangent.confidence_threshold": floatKey("tangent.confidence_threshold", func(c *Config) *float64 { return &c.Tangent.ConfidenceThreshold }),
	"tangent.strike_window":        durationKey("tangent.strike_window", func(c *Config) *Duration { return &c.Tangent.StrikeWindow }),
	"tangent.strikes":              intKey("tangent.strikes", func(c *Config) *int { return &c.Tangent.Strikes }),
	"tangent.cooldown":             durationKey("tangent.cooldown", func(c *Config) *Duration { return &c.Tangent.Cooldown }),

	"qa.enabled":           boolKey("qa.enabled", func(c *Config) *bool { return &c.QA.Enabled }),
	"qa.max_excerpts":      intKey("qa.max_excerpts", func(c *Config) *int { return &c.QA.MaxExcerpts }),
	"qa.min_score":         floatKey("qa.min_score", func(c *Config) *float64 { return &c.QA.MinScore }),
	"qa.min_context_chars": intKey("qa.min_context_chars", func(c *Config) *int { return &c.QA.MinContextChars }),
	"qa.max_context_chars": intKey("qa.max_context_chars", func(c *Config) *int { return &c.QA.MaxContextChars }),
	"qa.token_weight":      floatKey("qa.token_weight", func(c *Config) *float64 { return &c.QA.TokenWeight }),
	"qa.sequence_weight":   floatKey("qa.sequence_weight", func(c *Config) *float64 { return &c.QA.SequenceWeight }),

	"echo.enabled":      boolKey("echo.enabled", func(c *Config) *bool { return &c.Echo.Enabled }),
	"echo.min_interval": durationKey("echo.min_interval", func(c *Config) *Duration { return &c.Echo.MinInterval }),
	"echo.max_messages": intKey("echo.max_messages", func(c *Config) *int { return &c.Echo.MaxMessages }),

	"eventstream.brokers":       listKey(func(c *Config) *[]string { return &c.EventStream.Brokers }),
	"eventstream.topic":         stringKey(func(c *Config) *string { return &c.EventStream.Topic }),
	"eventstream.write_timeout": durationKey("eventstream.write_timeout", func(c *Config) *Duration { return &c.EventStream.WriteTimeout }),

	"mcp.enabled": boolKey("mcp.enabled", func(c *Config) *bool { return &c.MCP.Enabled }),
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
