// Package journal persists finalized utterances as one JSON object per line,
// one file per meeting, and replays them to rehydrate meetings that are no
// longer resident in memory.
package journal

import (
	"bufio"
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"
)

const (
	filePrefix = "transcript_"
	fileSuffix = ".jsonl"
)

// Only original transcripts match; derived files such as
// transcript_<id>_<lang>.jsonl are skipped.
var transcriptFile = regexp.MustCompile(`^transcript_([a-f0-9\-]+)\.jsonl$`)

// ErrInvalidMeetingID is returned for ids that cannot name a journal file.
var ErrInvalidMeetingID = errors.New("invalid meeting id")

// Record is one persisted utterance.
type Record struct {
	TS          time.Time      `json:"ts"`
	MeetingID   string         `json:"meeting_id"`
	Speaker     string         `json:"speaker"`
	Participant map[string]any `json:"participant,omitempty"`
	Text        string         `json:"text"`
	Event       string         `json:"event"`
}

// UnmarshalJSON also reads the older layout, which named the meeting bot_id
// and the event raw_event and stored ts as float seconds since the epoch.
func (r *Record) UnmarshalJSON(data []byte) error {
	var wire struct {
		TS          json.RawMessage `json:"ts"`
		MeetingID   string          `json:"meeting_id"`
		BotID       string          `json:"bot_id"`
		Speaker     string          `json:"speaker"`
		Participant map[string]any  `json:"participant"`
		Text        string          `json:"text"`
		Event       string          `json:"event"`
		RawEvent    string          `json:"raw_event"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	ts, err := parseTS(wire.TS)
	if err != nil {
		return err
	}
	*r = Record{
		TS:          ts,
		MeetingID:   cmp.Or(wire.MeetingID, wire.BotID),
		Speaker:     wire.Speaker,
		Participant: wire.Participant,
		Text:        wire.Text,
		Event:       cmp.Or(wire.Event, wire.RawEvent),
	}
	return nil
}

func parseTS(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, nil
	}
	if raw[0] == '"' {
		var t time.Time
		if err := json.Unmarshal(raw, &t); err != nil {
			return time.Time{}, fmt.Errorf("ts: %w", err)
		}
		return t, nil
	}

	var secs float64
	if err := json.Unmarshal(raw, &secs); err != nil {
		return time.Time{}, fmt.Errorf("ts: %w", err)
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(math.Round(frac*1e9))).UTC(), nil
}

// Info describes one journal file.
type Info struct {
	MeetingID  string    `json:"meeting_id"`
	Filename   string    `json:"filename"`
	ModTime    time.Time `json:"modified_at"`
	Utterances int       `json:"utterance_count"`
}

// Journal reads and writes meeting files under a directory.
type Journal struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns a Journal rooted at dir. The directory is created on first write.
func New(dir string) *Journal {
	return &Journal{dir: dir, locks: make(map[string]*sync.Mutex)}
}

// Dir returns the journal directory.
func (j *Journal) Dir() string {
	return j.dir
}

// Path returns the file that holds meetingID's records.
func (j *Journal) Path(meetingID string) (string, error) {
	if meetingID == "" || meetingID == "." || meetingID == ".." ||
		strings.ContainsAny(meetingID, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidMeetingID, meetingID)
	}
	return filepath.Join(j.dir, filePrefix+meetingID+fileSuffix), nil
}

func (j *Journal) lock(meetingID string) *sync.Mutex {
	j.mu.Lock()
	defer j.mu.Unlock()
	l, ok := j.locks[meetingID]
	if !ok {
		l = &sync.Mutex{}
		j.locks[meetingID] = l
	}
	return l
}

// Append writes rec as one line of its meeting's file.
func (j *Journal) Append(rec Record) error {
	path, err := j.Path(rec.MeetingID)
	if err != nil {
		return err
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	line = append(line, '\n')

	l := j.lock(rec.MeetingID)
	l.Lock()
	defer l.Unlock()

	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

// Replay calls fn for every record of meetingID in file order. Blank lines
// are skipped. found is false when the meeting has no journal file.
func (j *Journal) Replay(meetingID string, fn func(Record) error) (found bool, err error) {
	path, err := j.Path(meetingID)
	if err != nil {
		return false, err
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return true, fmt.Errorf("journal %s line %d: %w", filepath.Base(path), lineNo, err)
		}
		if err := fn(rec); err != nil {
			return true, err
		}
	}
	if err := scanner.Err(); err != nil {
		return true, fmt.Errorf("read journal: %w", err)
	}
	return true, nil
}

// List describes every meeting journal, newest first. A missing directory
// lists nothing.
func (j *Journal) List() ([]Info, error) {
	entries, err := os.ReadDir(j.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read journal dir: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := transcriptFile.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			continue
		}
		count, err := countLines(filepath.Join(j.dir, entry.Name()))
		if err != nil {
			continue
		}

		infos = append(infos, Info{
			MeetingID:  match[1],
			Filename:   entry.Name(),
			ModTime:    fi.ModTime(),
			Utterances: count,
		})
	}

	slices.SortStableFunc(infos, func(a, b Info) int {
		return b.ModTime.Compare(a.ModTime)
	})
	return infos, nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) > 0 {
			n++
		}
	}
	return n, scanner.Err()
}
