package config

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag ties a command-line flag to the config key it overrides. Its default
// is read from NewDefaultConfig so "--help" and "config list" agree.
type Flag struct {
	Name      string
	Shorthand string
	Key       string
	Usage     string

	// Bool registers a boolean flag; everything else is a string and goes
	// through the key's parser when the config is loaded.
	Bool bool
}

// Serve flag names.
const (
	FlagListen       = "listen"
	FlagLogFile      = "log-file"
	FlagPublicURL    = "public-url"
	FlagWebhookToken = "webhook-token"
	FlagBotName      = "bot-name"
	FlagLLMProvider  = "llm-provider"
	FlagLLMModel     = "llm-model"
	FlagJournalDir   = "journal-dir"
	FlagKafkaBrokers = "kafka-brokers"
	FlagEcho         = "echo"
	FlagMCP          = "mcp"
)

// ServeFlags are the flags of "huddle serve", in help order.
var ServeFlags = []Flag{
	{Name: FlagListen, Shorthand: "l", Key: "server.listen", Usage: "Address for the HTTP server to listen on"},
	{Name: FlagLogFile, Key: "server.log_file", Usage: "Also write JSON logs to this file"},
	{Name: FlagPublicURL, Key: "webhook.public_base_url", Usage: "Public base URL the meeting provider can reach"},
	{Name: FlagWebhookToken, Key: "webhook.token", Usage: "Token required on webhook calls"},
	{Name: FlagBotName, Key: "provider.bot_name", Usage: "Display name of the meeting bot"},
	{Name: FlagLLMProvider, Key: "llm.provider", Usage: "Inference provider (openai, anthropic, ollama, gemini)"},
	{Name: FlagLLMModel, Key: "llm.model", Usage: "Inference model"},
	{Name: FlagJournalDir, Key: "transcript.journal_dir", Usage: "Directory for transcript journals (default: .huddle/transcripts)"},
	{Name: FlagKafkaBrokers, Key: "eventstream.brokers", Usage: "Comma-separated Kafka brokers for meeting events"},
	{Name: FlagEcho, Key: "echo.enabled", Usage: "Echo finalized utterances to the meeting chat", Bool: true},
	{Name: FlagMCP, Key: "mcp.enabled", Usage: "Serve MCP tools under /mcp", Bool: true},
}

// RegisterFlags adds flags to cmd. Values are read back through viper once
// BindFlags has run, so no destination variables are needed.
func RegisterFlags(cmd *cobra.Command, flags []Flag) {
	fs := cmd.Flags()
	for _, f := range flags {
		def := defaultString(f.Key)
		if f.Bool {
			on, _ := strconv.ParseBool(def)
			fs.BoolP(f.Name, f.Shorthand, on, f.Usage)
			continue
		}
		fs.StringP(f.Name, f.Shorthand, def, f.Usage)
	}
}

// BindFlags puts the registered flags at the top of v's precedence chain
// (flag > env > config file > default). Unset flags fall through.
func BindFlags(v *viper.Viper, cmd *cobra.Command, flags []Flag) error {
	for _, f := range flags {
		pf := cmd.Flags().Lookup(f.Name)
		if pf == nil {
			return fmt.Errorf("flag --%s is not registered", f.Name)
		}
		if err := v.BindPFlag(f.Key, pf); err != nil {
			return fmt.Errorf("binding --%s: %w", f.Name, err)
		}
	}
	return nil
}

func defaultString(key string) string {
	info, ok := configKeys[key]
	if !ok {
		return ""
	}
	return info.get(NewDefaultConfig())
}
