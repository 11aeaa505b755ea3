package journal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/N1nj4lxl/Modly/pkg/modly/logging"
)

var logger = logging.Get("journal")

// Journal is the journal file of one mods root. Appends and truncation are
// serialised within the process; RootLock serialises processes.
type Journal struct {
	fs   afero.Fs
	path string
	now  func() time.Time

	mu sync.Mutex
}

// Option configures a Journal.
type Option func(*Journal)

// WithClock sets the time source for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) {
		j.now = now
	}
}

// Open returns the journal stored at path. The file is created on the
// first append.
func Open(fs afero.Fs, path string, opts ...Option) (*Journal, error) {
	if path == "" {
		return nil, errors.New("journal path cannot be empty")
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	j := &Journal{fs: fs, path: path, now: time.Now}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

// Read parses the whole journal. Lines that cannot be parsed are returned
// as suspects, never dropped silently.
func (j *Journal) Read() (*Log, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.read()
}

func (j *Journal) read() (*Log, error) {
	f, err := j.fs.Open(j.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Log{}, nil
		}
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	log := &Log{}
	r := bufio.NewReader(f)
	var offset int64
	for lineNo := 1; ; lineNo++ {
		raw, err := r.ReadBytes('\n')
		if len(raw) > 0 {
			log.parseLine(raw, offset, lineNo)
			offset += int64(len(raw))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading journal: %w", err)
		}
	}
	log.Size = offset

	if len(log.Suspects) > 0 {
		logger.Warn("journal has suspect lines", "path", j.path, "count", len(log.Suspects))
	}
	return log, nil
}

// MarkSuffix is appended to the journal path to name the file holding the
// highest batch id ever issued.
const MarkSuffix = ".last"

// MarkPath returns the batch mark file for the journal at path.
func MarkPath(path string) string {
	return path + MarkSuffix
}

// readMark returns the highest batch id ever issued. A missing or
// unreadable mark counts as zero.
func (j *Journal) readMark() int64 {
	data, err := afero.ReadFile(j.fs, MarkPath(j.path))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("reading batch mark", "path", MarkPath(j.path), "error", err)
		}
		return 0
	}
	id, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil || id < 0 {
		logger.Warn("ignoring bad batch mark", "path", MarkPath(j.path), "content", string(data))
		return 0
	}
	return id
}

// writeMark records id as the highest batch issued, via temp file and
// rename.
func (j *Journal) writeMark(id int64) error {
	path := MarkPath(j.path)
	tmp := path + ".tmp"
	if err := afero.WriteFile(j.fs, tmp, []byte(strconv.FormatInt(id, 10)+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing batch mark: %w", err)
	}
	if err := j.fs.Rename(tmp, path); err != nil {
		_ = j.fs.Remove(tmp)
		return fmt.Errorf("writing batch mark: %w", err)
	}
	return nil
}

// Begin starts a new batch. Ids never repeat: the new batch is numbered
// one past both the highest batch present and the highest batch ever
// issued, so a batch removed by undo does not hand its id to the next.
func (j *Journal) Begin() (*BatchWriter, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	log, err := j.read()
	if err != nil {
		return nil, err
	}

	id := max(log.MaxBatch(), j.readMark()) + 1
	if err := j.writeMark(id); err != nil {
		return nil, err
	}

	f, err := j.fs.OpenFile(j.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening journal for append: %w", err)
	}

	// A torn last line must stay on its own line.
	if log.Size > 0 && !log.endsWithNewline {
		if _, err := f.Write([]byte("\n")); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing journal: %w", err)
		}
	}

	logger.Debug("batch started", "batch", id, "path", j.path)
	return &BatchWriter{j: j, file: f, batch: id}, nil
}

// Truncate cuts the journal file to offset bytes.
func (j *Journal) Truncate(offset int64) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := j.fs.OpenFile(j.path, os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	if err := f.Truncate(offset); err != nil {
		f.Close()
		return fmt.Errorf("truncating journal: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing journal: %w", err)
	}
	logger.Debug("journal truncated", "path", j.path, "offset", offset)
	return f.Close()
}

// Batches summarises every batch in the journal, oldest first.
func (j *Journal) Batches() ([]Summary, error) {
	log, err := j.Read()
	if err != nil {
		return nil, err
	}
	return log.Summaries(), nil
}

// BatchWriter appends the entries of one batch.
type BatchWriter struct {
	j     *Journal
	file  afero.File
	batch int64
	seq   int
}

// Batch returns the batch id.
func (w *BatchWriter) Batch() int64 {
	return w.batch
}

// Len returns the number of entries appended so far.
func (w *BatchWriter) Len() int {
	return w.seq
}

// Append writes one entry and syncs the file before returning.
func (w *BatchWriter) Append(kind Kind, original, final, detail string) (Entry, error) {
	w.j.mu.Lock()
	defer w.j.mu.Unlock()

	if w.file == nil {
		return Entry{}, os.ErrClosed
	}
	e := Entry{
		Version:  FormatVersion,
		ID:       uuid.NewString(),
		Batch:    w.batch,
		Seq:      w.seq,
		Kind:     kind,
		Original: original,
		Final:    final,
		Time:     w.j.now().UTC(),
		Detail:   detail,
	}
	data, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("encoding journal entry: %w", err)
	}
	if _, err := w.file.Write(append(data, '\n')); err != nil {
		return Entry{}, fmt.Errorf("writing journal: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return Entry{}, fmt.Errorf("syncing journal: %w", err)
	}
	w.seq++
	return e, nil
}

// Close releases the file.
func (w *BatchWriter) Close() error {
	w.j.mu.Lock()
	defer w.j.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Log is a parsed journal.
type Log struct {
	Entries  []Entry
	Suspects []Suspect

	// Size is the journal length in bytes.
	Size int64

	endsWithNewline bool
}

func (l *Log) parseLine(raw []byte, offset int64, lineNo int) {
	l.endsWithNewline = raw[len(raw)-1] == '\n'
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return
	}

	suspect := func(reason string) {
		l.Suspects = append(l.Suspects, Suspect{
			Line:   lineNo,
			Offset: offset,
			Raw:    string(trimmed),
			Reason: reason,
		})
	}

	if !l.endsWithNewline {
		suspect("incomplete line")
		return
	}

	var e Entry
	if err := json.Unmarshal(trimmed, &e); err != nil {
		suspect(fmt.Sprintf("unparsable: %v", err))
		return
	}
	if e.Batch <= 0 || e.Seq < 0 || e.Original == "" {
		suspect("missing batch, sequence or path")
		return
	}
	e.Offset, e.Line = offset, lineNo
	l.Entries = append(l.Entries, e)
}

// MaxBatch returns the highest batch id, or 0 for an empty journal.
func (l *Log) MaxBatch() int64 {
	var id int64
	for _, e := range l.Entries {
		id = max(id, e.Batch)
	}
	return id
}

// Batch is the entries of one batch in sequence order.
type Batch struct {
	ID      int64
	Entries []Entry

	// Offset is where the batch starts in the journal file.
	Offset int64
}

// LastBatch returns the highest-numbered batch after checking that it is
// the contiguous tail of the file with sequence numbers 0..n-1. Any doubt
// is reported as a CorruptionError naming the suspect lines.
func (l *Log) LastBatch() (*Batch, error) {
	id := l.MaxBatch()
	if id == 0 {
		if len(l.Suspects) > 0 {
			return nil, &CorruptionError{Suspects: slices.Clone(l.Suspects)}
		}
		return nil, ErrEmpty
	}

	b := &Batch{ID: id, Offset: -1}
	for _, e := range l.Entries {
		if e.Batch == id {
			b.Entries = append(b.Entries, e)
			if b.Offset < 0 || e.Offset < b.Offset {
				b.Offset = e.Offset
			}
		}
	}

	var suspects []Suspect
	for _, s := range l.Suspects {
		if s.Offset >= b.Offset {
			suspects = append(suspects, s)
		}
	}
	for _, e := range l.Entries {
		switch {
		case e.Offset < b.Offset:
		case e.Batch != id:
			suspects = append(suspects, entrySuspect(e, fmt.Sprintf("entry of batch %d inside batch %d", e.Batch, id)))
		case !e.Kind.Known():
			suspects = append(suspects, entrySuspect(e, fmt.Sprintf("unsupported kind %q", e.Kind)))
		}
	}

	// Entries are appended in sequence order, so file order must match.
	for i, e := range b.Entries {
		if e.Seq != i {
			suspects = append(suspects, entrySuspect(e, fmt.Sprintf("sequence %d, expected %d", e.Seq, i)))
		}
	}

	if len(suspects) > 0 {
		slices.SortFunc(suspects, func(a, b Suspect) int { return a.Line - b.Line })
		return nil, &CorruptionError{Batch: id, Suspects: suspects}
	}
	return b, nil
}

func entrySuspect(e Entry, reason string) Suspect {
	raw, _ := json.Marshal(e)
	return Suspect{Line: e.Line, Offset: e.Offset, Raw: string(raw), Reason: reason}
}

// Summary describes one batch for history listings.
type Summary struct {
	ID       int64        `json:"id" yaml:"id"`
	Started  time.Time    `json:"started" yaml:"started"`
	Finished time.Time    `json:"finished" yaml:"finished"`
	Ops      int          `json:"ops" yaml:"ops"`
	Counts   map[Kind]int `json:"counts" yaml:"counts"`
}

// Summaries groups the entries by batch, oldest batch first.
func (l *Log) Summaries() []Summary {
	byID := make(map[int64]*Summary)
	for _, e := range l.Entries {
		s, ok := byID[e.Batch]
		if !ok {
			s = &Summary{ID: e.Batch, Started: e.Time, Finished: e.Time, Counts: make(map[Kind]int)}
			byID[e.Batch] = s
		}
		if e.Time.Before(s.Started) {
			s.Started = e.Time
		}
		if e.Time.After(s.Finished) {
			s.Finished = e.Time
		}
		s.Ops++
		s.Counts[e.Kind]++
	}

	out := make([]Summary, 0, len(byID))
	for _, s := range byID {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b Summary) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}
