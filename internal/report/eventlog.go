package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/comalice/creepstack/stacking"
)

// EventLog appends every outcome and stage change as one JSON line to a
// zstd-compressed file, <dir>/<session>.jsonl.zst. Write errors are logged
// and the entry is lost; the tick loop never sees them.
type EventLog struct {
	mu     sync.Mutex
	now    func() time.Time
	logger *log.Logger

	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// OpenEventLog creates the log file for session, truncating an old one.
func OpenEventLog(dir, session string, logger *log.Logger) (*EventLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.Create(EventLogPath(dir, session))
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &EventLog{
		now:    time.Now,
		logger: logger,
		f:      f,
		enc:    enc,
		w:      bufio.NewWriter(enc),
	}, nil
}

func EventLogPath(dir, session string) string {
	return filepath.Join(dir, session+".jsonl.zst")
}

func (l *EventLog) PublishOutcome(o stacking.Outcome) {
	l.write(Entry{Outcome: &o})
}

func (l *EventLog) StageChanged(from, to string) {
	l.write(Entry{Stage: &Stage{From: from, To: to, At: l.now()}})
}

func (l *EventLog) write(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return
	}
	b, err := json.Marshal(e)
	if err == nil {
		_, err = l.w.Write(append(b, '\n'))
	}
	if err == nil {
		err = l.w.Flush()
	}
	if err == nil {
		err = l.enc.Flush()
	}
	if err != nil {
		l.logger.Printf("event log: %v", err)
	}
}

// Close flushes the compressed stream and closes the file.
func (l *EventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return nil
	}
	err := l.w.Flush()
	if cerr := l.enc.Close(); err == nil {
		err = cerr
	}
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.w, l.enc, l.f = nil, nil, nil
	return err
}

// ReadEventLog decodes a log written by EventLog.
func ReadEventLog(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []Entry
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return out, fmt.Errorf("line %d: %w", len(out)+1, err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}
