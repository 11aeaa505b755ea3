// Package dbpf reads the header and resource index of a Sims 4 .package
// file (the DBPF 2.x container) and groups its resources by content kind.
// It never reads resource payloads.
package dbpf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Magic is the four-byte signature at offset 0.
const Magic = "DBPF"

// HeaderSize is the fixed size of a DBPF 2.x header.
const HeaderSize = 96

// Header offsets.
const (
	offMajor       = 4
	offIndexCount  = 36
	offIndexPos32  = 40
	offIndexSize   = 44
	offIndexPos64  = 64
	supportedMajor = 2
)

// Index flag bits marking fields that are constant for every entry.
const (
	flagConstType   = 1 << 0
	flagConstGroup  = 1 << 1
	flagConstInstHi = 1 << 2
)

// maxEntries bounds the index so a corrupt count cannot exhaust memory.
const maxEntries = 1 << 20

var (
	// ErrBadMagic is returned when the file does not start with "DBPF".
	ErrBadMagic = errors.New("dbpf: bad magic")

	// ErrTruncated is returned when the header or index is cut short.
	ErrTruncated = errors.New("dbpf: truncated")

	// ErrUnsupportedVersion is returned for major versions other than 2.
	ErrUnsupportedVersion = errors.New("dbpf: unsupported version")
)

// Group is a family of resource types.
type Group string

// Resource groups. GroupOther covers types with no mapping.
const (
	GroupCAS       Group = "cas"
	GroupBuildBuy  Group = "buildbuy"
	GroupTuning    Group = "tuning"
	GroupAnimation Group = "animation"
	GroupOther     Group = "other"
)

var groupByType = map[uint32]Group{
	// CAS parts and thumbnails.
	0x034AEECB: GroupCAS,
	0x015A1849: GroupCAS,

	// Objects, catalog entries, models and their LODs.
	0xC0DB5AE7: GroupBuildBuy,
	0x319E4F1D: GroupBuildBuy,
	0x01661233: GroupBuildBuy,
	0x01D10F34: GroupBuildBuy,
	0xD382BF57: GroupBuildBuy,

	// XML tuning and simdata.
	0x545AC67A: GroupTuning,
	0x0C772E27: GroupTuning,
	0x6017E896: GroupTuning,
	0xCB5FDDC7: GroupTuning,
	0xE882D22F: GroupTuning,
	0x7DF2169C: GroupTuning,
	0x03B33DDF: GroupTuning,
	0xB61DE6B4: GroupTuning,
	0x73996BEB: GroupTuning,
	0x28B64675: GroupTuning,

	// Clips and animation state machines.
	0x6B20C4F3: GroupAnimation,
	0x02D5DF13: GroupAnimation,
	0xBC4A5044: GroupAnimation,
}

// GroupOf returns the group a resource type belongs to.
func GroupOf(resourceType uint32) Group {
	if g, ok := groupByType[resourceType]; ok {
		return g
	}
	return GroupOther
}

// Header is the decoded subset of a DBPF header.
type Header struct {
	Major       uint32
	Minor       uint32
	IndexCount  uint32
	IndexOffset uint64
	IndexSize   uint32
}

// Entry is one resource in the index.
type Entry struct {
	Type     uint32
	Group    uint32
	Instance uint64
	Offset   uint32
	Size     uint32
}

// Summary counts index entries per group.
type Summary struct {
	Header Header
	Counts map[Group]int
	Total  int
}

// Dominant returns the group with the most resources, ignoring GroupOther,
// and its share of the known resources. Ties go to the group that sorts
// first so the result is deterministic. ok is false when no entry maps to
// a known group.
func (s Summary) Dominant() (g Group, share float64, ok bool) {
	known := 0
	best := 0
	for _, cand := range []Group{GroupAnimation, GroupBuildBuy, GroupCAS, GroupTuning} {
		n := s.Counts[cand]
		known += n
		if n > best {
			best, g = n, cand
		}
	}
	if best == 0 {
		return "", 0, false
	}
	return g, float64(best) / float64(known), true
}

// ReadHeader decodes the header from r.
func ReadHeader(r io.ReaderAt) (Header, error) {
	buf := make([]byte, HeaderSize)
	if n, err := r.ReadAt(buf, 0); n < HeaderSize {
		if err == nil || errors.Is(err, io.EOF) {
			return Header{}, fmt.Errorf("%w: header is %d bytes", ErrTruncated, n)
		}
		return Header{}, err
	}
	if string(buf[:4]) != Magic {
		return Header{}, ErrBadMagic
	}

	le := binary.LittleEndian
	h := Header{
		Major:      le.Uint32(buf[offMajor:]),
		Minor:      le.Uint32(buf[offMajor+4:]),
		IndexCount: le.Uint32(buf[offIndexCount:]),
		IndexSize:  le.Uint32(buf[offIndexSize:]),
	}
	if h.Major != supportedMajor {
		return Header{}, fmt.Errorf("%w: %d.%d", ErrUnsupportedVersion, h.Major, h.Minor)
	}

	h.IndexOffset = le.Uint64(buf[offIndexPos64:])
	if h.IndexOffset == 0 {
		h.IndexOffset = uint64(le.Uint32(buf[offIndexPos32:]))
	}
	return h, nil
}

// ReadIndex decodes every index entry described by h. When r reports its
// length, an index reaching past the end of r is ErrTruncated and nothing
// larger than the remaining bytes is read.
func ReadIndex(r io.ReaderAt, h Header) ([]Entry, error) {
	if h.IndexCount == 0 {
		return nil, nil
	}
	if h.IndexCount > maxEntries {
		return nil, fmt.Errorf("%w: index claims %d entries", ErrTruncated, h.IndexCount)
	}

	// Flags plus nine words per entry is the most an index can need.
	bound := 4 + int64(h.IndexCount)*36
	size := int64(h.IndexSize)
	if size <= 0 || size > bound {
		size = bound
	}
	if total := sizeOf(r); total >= 0 {
		remaining := total - int64(min(h.IndexOffset, uint64(total)))
		if int64(h.IndexSize) > remaining {
			return nil, fmt.Errorf("%w: index claims %d bytes, %d remain", ErrTruncated, h.IndexSize, remaining)
		}
		size = min(size, remaining)
	}
	if size < 4 {
		return nil, fmt.Errorf("%w: index flags", ErrTruncated)
	}

	buf := make([]byte, size)
	n, err := r.ReadAt(buf, int64(h.IndexOffset))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	d := &decoder{buf: buf[:n]}

	flags, ok := d.u32()
	if !ok {
		return nil, fmt.Errorf("%w: index flags", ErrTruncated)
	}

	var constType, constGroup, constInstHi uint32
	if flags&flagConstType != 0 {
		if constType, ok = d.u32(); !ok {
			return nil, fmt.Errorf("%w: index constants", ErrTruncated)
		}
	}
	if flags&flagConstGroup != 0 {
		if constGroup, ok = d.u32(); !ok {
			return nil, fmt.Errorf("%w: index constants", ErrTruncated)
		}
	}
	if flags&flagConstInstHi != 0 {
		if constInstHi, ok = d.u32(); !ok {
			return nil, fmt.Errorf("%w: index constants", ErrTruncated)
		}
	}

	entries := make([]Entry, 0, min(int(h.IndexCount), n/4))
	for i := uint32(0); i < h.IndexCount; i++ {
		e, err := d.entry(flags, constType, constGroup, constInstHi)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d of %d", err, i, h.IndexCount)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// sizeOf returns the length of r, or -1 when r cannot report it.
func sizeOf(r io.ReaderAt) int64 {
	switch v := r.(type) {
	case interface{ Size() int64 }:
		return v.Size()
	case interface{ Stat() (os.FileInfo, error) }:
		if info, err := v.Stat(); err == nil && info.Mode().IsRegular() {
			return info.Size()
		}
	}
	return -1
}

// Probe opens path and summarises its index.
func Probe(path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, err
	}
	defer f.Close()
	return Summarize(f)
}

// Summarize reads the header and index from r and counts groups.
func Summarize(r io.ReaderAt) (Summary, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return Summary{}, err
	}
	entries, err := ReadIndex(r, h)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{Header: h, Counts: make(map[Group]int), Total: len(entries)}
	for _, e := range entries {
		s.Counts[GroupOf(e.Type)]++
	}
	return s, nil
}

type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) u32() (uint32, bool) {
	if d.pos+4 > len(d.buf) {
		return 0, false
	}
	v := binary.LittleEndian.Uint32(d.buf[d.pos:])
	d.pos += 4
	return v, true
}

func (d *decoder) entry(flags, constType, constGroup, constInstHi uint32) (Entry, error) {
	e := Entry{Type: constType, Group: constGroup}
	instHi := constInstHi
	var ok bool

	if flags&flagConstType == 0 {
		if e.Type, ok = d.u32(); !ok {
			return Entry{}, ErrTruncated
		}
	}
	if flags&flagConstGroup == 0 {
		if e.Group, ok = d.u32(); !ok {
			return Entry{}, ErrTruncated
		}
	}
	if flags&flagConstInstHi == 0 {
		if instHi, ok = d.u32(); !ok {
			return Entry{}, ErrTruncated
		}
	}

	// Instance low, offset, size (bit 31 marks extended compression info),
	// then the uncompressed size.
	var fields [4]uint32
	for i := range fields {
		if fields[i], ok = d.u32(); !ok {
			return Entry{}, ErrTruncated
		}
	}
	e.Instance = uint64(instHi)<<32 | uint64(fields[0])
	e.Offset = fields[1]
	e.Size = fields[2] &^ (1 << 31)

	if fields[2]&(1<<31) != 0 {
		// Compression type and committed flag.
		if d.pos+4 > len(d.buf) {
			return Entry{}, ErrTruncated
		}
		d.pos += 4
	}
	return e, nil
}
