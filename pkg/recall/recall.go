// Package recall is a client for the Recall.ai bot API: it sends a bot into a
// meeting, posts chat messages through it, fetches the recording when the
// meeting ends and makes the bot leave.
package recall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/papercomputeco/huddle/pkg/upstream"
	"github.com/papercomputeco/huddle/pkg/utils"
)

const (
	DefaultBaseURL     = "https://us-west-2.recall.ai"
	DefaultBotName     = "Meeting Moderator"
	DefaultJoinMessage = "👋 I'm here. I'll take notes and I'm happy to answer questions, just mention me in chat."

	serviceName    = "recall"
	defaultTimeout = 30 * time.Second
)

// Events the bot's realtime webhook subscribes to.
var RealtimeEvents = []string{
	"transcript.partial_data",
	"transcript.data",
	"participant_events.chat_message",
	"participant_events.join",
}

// Config holds configuration for creating a Client.
type Config struct {
	APIKey      string
	BaseURL     string
	BotName     string
	JoinMessage string

	// ChatRatePerSecond and ChatBurst pace SendChatMessage.
	ChatRatePerSecond float64
	ChatBurst         int

	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the Recall.ai REST API.
type Client struct {
	cfg     Config
	auth    string
	limiter *rate.Limiter
}

// New creates a Client. A missing API key is a configuration error.
func New(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, upstream.NotConfigured(serviceName, "missing API key (set provider.api_key or RECALL_API_KEY)")
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(cfg.BotName) == "" {
		cfg.BotName = DefaultBotName
	}
	if cfg.JoinMessage == "" {
		cfg.JoinMessage = DefaultJoinMessage
	}
	if cfg.ChatRatePerSecond <= 0 {
		cfg.ChatRatePerSecond = 1
	}
	if cfg.ChatBurst <= 0 {
		cfg.ChatBurst = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}

	auth := key
	if !strings.HasPrefix(auth, "Token ") {
		auth = "Token " + auth
	}

	return &Client{
		cfg:     cfg,
		auth:    auth,
		limiter: rate.NewLimiter(rate.Limit(cfg.ChatRatePerSecond), cfg.ChatBurst),
	}, nil
}

// BotName returns the display name bots join with.
func (c *Client) BotName() string {
	return c.cfg.BotName
}

// Bot is the subset of a bot resource huddle reads.
type Bot struct {
	ID         string      `json:"id"`
	MeetingURL any         `json:"meeting_url,omitempty"`
	Recordings []recording `json:"recordings,omitempty"`
}

type recording struct {
	MediaShortcuts struct {
		VideoMixed *struct {
			Data struct {
				DownloadURL string `json:"download_url"`
			} `json:"data"`
		} `json:"video_mixed"`
	} `json:"media_shortcuts"`
}

type createBotRequest struct {
	MeetingURL      string          `json:"meeting_url"`
	BotName         string          `json:"bot_name"`
	RecordingConfig recordingConfig `json:"recording_config"`
	Chat            chatConfig      `json:"chat"`
}

type recordingConfig struct {
	Transcript        transcriptConfig   `json:"transcript"`
	VideoMixedMP4     struct{}           `json:"video_mixed_mp4"`
	RealtimeEndpoints []realtimeEndpoint `json:"realtime_endpoints"`
}

type transcriptConfig struct {
	Provider struct {
		RecallAIStreaming struct {
			Mode         string `json:"mode"`
			LanguageCode string `json:"language_code"`
		} `json:"recallai_streaming"`
	} `json:"provider"`
}

type realtimeEndpoint struct {
	Type   string   `json:"type"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

type chatConfig struct {
	OnBotJoin struct {
		SendTo  string `json:"send_to"`
		Message string `json:"message"`
	} `json:"on_bot_join"`
}

// CreateBot sends a bot into meetingURL that streams transcript and chat
// events to webhookURL.
func (c *Client) CreateBot(ctx context.Context, meetingURL, webhookURL string) (*Bot, error) {
	body := createBotRequest{
		MeetingURL: meetingURL,
		BotName:    c.cfg.BotName,
		RecordingConfig: recordingConfig{
			RealtimeEndpoints: []realtimeEndpoint{{
				Type:   "webhook",
				URL:    webhookURL,
				Events: RealtimeEvents,
			}},
		},
	}
	body.RecordingConfig.Transcript.Provider.RecallAIStreaming.Mode = "prioritize_low_latency"
	body.RecordingConfig.Transcript.Provider.RecallAIStreaming.LanguageCode = "en"
	body.Chat.OnBotJoin.SendTo = "everyone"
	body.Chat.OnBotJoin.Message = c.cfg.JoinMessage

	var bot Bot
	if err := c.do(ctx, http.MethodPost, "/api/v1/bot/", body, &bot); err != nil {
		return nil, err
	}
	if bot.ID == "" {
		return nil, &upstream.ContentError{Service: serviceName, Op: "create_bot", Err: fmt.Errorf("response has no bot id")}
	}
	return &bot, nil
}

// SendChatMessage posts message to the meeting chat through botID. Calls are
// paced by the client's rate limiter.
func (c *Client) SendChatMessage(ctx context.Context, botID, message string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("chat rate limit: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/api/v1/bot/"+url.PathEscape(botID)+"/send_chat_message/",
		map[string]string{"message": message}, nil)
}

// FetchRecordingURL returns the mixed video download url of the bot's first
// recording, or "" when it is not ready.
func (c *Client) FetchRecordingURL(ctx context.Context, botID string) (string, error) {
	var bot Bot
	if err := c.do(ctx, http.MethodGet, "/api/v1/bot/"+url.PathEscape(botID)+"/", nil, &bot); err != nil {
		return "", err
	}
	if len(bot.Recordings) == 0 || bot.Recordings[0].MediaShortcuts.VideoMixed == nil {
		return "", nil
	}
	return bot.Recordings[0].MediaShortcuts.VideoMixed.Data.DownloadURL, nil
}

// LeaveCall makes the bot leave its meeting.
func (c *Client) LeaveCall(ctx context.Context, botID string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/bot/"+url.PathEscape(botID)+"/leave_call/", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", utils.UserAgent())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("recall request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return upstream.NewStatusError(serviceName, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &upstream.ContentError{Service: serviceName, Op: method + " " + path, Err: err}
	}
	return nil
}
