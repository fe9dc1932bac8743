package inference

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/papercomputeco/huddle/pkg/utils"
)

var codeFence = regexp.MustCompile("(?is)^```(?:json)?\\s*(.*?)\\s*```$")

// extractObject finds the JSON object in a model reply. Bare objects, fenced
// blocks, objects embedded in prose and arrays whose first element is an
// object are all accepted.
func extractObject(reply string) ([]byte, error) {
	text := strings.TrimSpace(reply)
	if m := codeFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	if obj, ok := asObject([]byte(text)); ok {
		return obj, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if obj, ok := asObject([]byte(text[start : end+1])); ok {
			return obj, nil
		}
	}

	return nil, fmt.Errorf("no JSON object in reply: %q", utils.Truncate(text, 400))
}

func asObject(b []byte) ([]byte, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || !json.Valid(b) {
		return nil, false
	}

	switch b[0] {
	case '{':
		return b, true
	case '[':
		var arr []json.RawMessage
		if err := json.Unmarshal(b, &arr); err != nil || len(arr) == 0 {
			return nil, false
		}
		first := bytes.TrimSpace(arr[0])
		if len(first) > 0 && first[0] == '{' {
			return first, true
		}
	}
	return nil, false
}

// score is a confidence as models actually send it: a number, a numeric
// string or garbage. Anything unreadable is zero.
type score float64

func (s *score) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*s = score(f)
		return nil
	}

	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
			*s = score(f)
			return nil
		}
	}

	*s = 0
	return nil
}

func (s *score) clamped(fallback float64) float64 {
	if s == nil {
		return fallback
	}
	v := float64(*s)
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// text is a string field that may also be null.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("expected a string")
	}
	*t = text(s)
	return nil
}

func (t *text) trimmed() string {
	if t == nil {
		return ""
	}
	return strings.TrimSpace(string(*t))
}

type tangentReply struct {
	OnTopic    *bool  `json:"on_topic"`
	Confidence *score `json:"confidence"`
	Reason     *text  `json:"reason"`
	Message    *text  `json:"message"`
}

func (r *tangentReply) validate(map[string]json.RawMessage) error {
	if r.OnTopic == nil {
		return errors.New(`"on_topic" must be a boolean`)
	}
	return nil
}

type topicReply struct {
	Topic      *text  `json:"topic"`
	Confidence *score `json:"confidence"`
	Reason     *text  `json:"reason"`
}

func (r *topicReply) validate(fields map[string]json.RawMessage) error {
	return require(fields, "topic")
}

type answerReply struct {
	Answer     *text  `json:"answer"`
	Confidence *score `json:"confidence"`
}

func (r *answerReply) validate(fields map[string]json.RawMessage) error {
	return require(fields, "answer")
}

type summaryReply struct {
	Markdown   *text  `json:"markdown"`
	Confidence *score `json:"confidence"`
}

func (r *summaryReply) validate(fields map[string]json.RawMessage) error {
	return require(fields, "markdown")
}

// validator checks a decoded reply against the raw fields it came from.
type validator interface {
	validate(fields map[string]json.RawMessage) error
}

func require(fields map[string]json.RawMessage, keys ...string) error {
	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			return fmt.Errorf("missing %q", k)
		}
	}
	return nil
}
