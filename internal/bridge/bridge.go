package bridge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/msp-agents/msp/internal/errors"
	"github.com/msp-agents/msp/internal/logging"
)

// seq provides per-process uniqueness for message filenames. Two senders in
// different processes racing at the same microsecond are distinguished by
// their PID component instead.
var seq atomic.Uint64

// Bridge is one named channel backed by a single directory.
type Bridge struct {
	id     string
	dir    string
	logger *logging.Logger
	now    func() time.Time

	// Serializes sends from goroutines inside this process. There is no
	// cross-process exclusivity: correctness rests on each message
	// occupying its own uniquely-named file.
	mu sync.Mutex
}

// New creates a Bridge with the given id, backed by sharedDir/id. The
// backing directory is created if it does not exist.
func New(id string, sharedDir string, opts ...Option) (*Bridge, error) {
	if id == "" {
		return nil, errors.NewBridgeError("bridge id must not be empty", errors.ErrInvalidInput)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	dir := filepath.Join(sharedDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewBridgeError(fmt.Sprintf("create directory: %v", err),
			errors.ErrBridgeIO).WithBridgeID(id)
	}

	return &Bridge{
		id:     id,
		dir:    dir,
		logger: cfg.logger,
		now:    cfg.now,
	}, nil
}

// ID returns the bridge id.
func (b *Bridge) ID() string {
	return b.id
}

// Dir returns the backing directory.
func (b *Bridge) Dir() string {
	return b.dir
}

// Send writes one message file to the bridge directory. Sender and message
// type must be non-empty. Failures carry the bridge id in the error.
func (b *Bridge) Send(sender, msgType string, data any) error {
	if sender == "" {
		return errors.NewBridgeError("sender must not be empty", errors.ErrInvalidInput).WithBridgeID(b.id)
	}
	if msgType == "" {
		return errors.NewBridgeError("message type must not be empty", errors.ErrInvalidInput).WithBridgeID(b.id)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ts := b.now()
	msg := Message{
		Sender:    sender,
		Type:      msgType,
		Timestamp: float64(ts.UnixMicro()) / 1e6,
		Data:      data,
	}

	payload, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return errors.NewBridgeError("marshal message", err).WithBridgeID(b.id)
	}

	name := fmt.Sprintf("%s_%s_%d_%d-%d.json",
		sender, msgType, ts.UnixMicro(), os.Getpid(), seq.Add(1))
	if err := os.WriteFile(filepath.Join(b.dir, name), payload, 0o644); err != nil {
		return errors.NewBridgeError(fmt.Sprintf("write message: %v", err),
			errors.ErrBridgeIO).WithBridgeID(b.id)
	}
	return nil
}

// Messages returns all messages with timestamp strictly greater than since,
// optionally filtered to one message type (empty string means all types),
// sorted ascending by timestamp. Unreadable or malformed message files are
// skipped with a logged warning rather than failing the whole call.
func (b *Bridge) Messages(msgType string, since float64) ([]Message, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewBridgeError(fmt.Sprintf("list messages: %v", err),
			errors.ErrBridgeIO).WithBridgeID(b.id)
	}

	var messages []Message
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(b.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			b.logger.Warn("skipping unreadable bridge message",
				"bridge", b.id, "file", entry.Name(),
				"error", errors.Wrapf(errors.ErrBridgeIO, "read message: %v", err))
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			b.logger.Warn("skipping malformed bridge message",
				"bridge", b.id, "file", entry.Name(),
				"error", errors.Wrapf(errors.ErrBridgeMalformedMessage, "decode message: %v", err))
			continue
		}

		if msg.Timestamp <= since {
			continue
		}
		if msgType != "" && msg.Type != msgType {
			continue
		}
		messages = append(messages, msg)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp < messages[j].Timestamp
	})
	return messages, nil
}

// Latest returns the most recent message of the given type, or nil if none
// exists.
func (b *Bridge) Latest(msgType string) (*Message, error) {
	messages, err := b.Messages(msgType, 0)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, nil
	}
	return &messages[len(messages)-1], nil
}
