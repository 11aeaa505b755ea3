// Package planner turns a classification table into an ordered list of
// filesystem operations. It only reads the destination tree; nothing is
// changed until the plan is executed.
package planner

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/N1nj4lxl/Modly/pkg/modly/classify"
	"github.com/N1nj4lxl/Modly/pkg/modly/collision"
	"github.com/N1nj4lxl/Modly/pkg/modly/config"
	"github.com/N1nj4lxl/Modly/pkg/modly/dates"
	"github.com/N1nj4lxl/Modly/pkg/modly/logging"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
)

var logger = logging.Get("planner")

// CollisionResolver decides between two files competing for one slot.
type CollisionResolver interface {
	Resolve(incoming, existing collision.Subject) collision.Decision
}

// Planner builds plans for one mods root.
type Planner struct {
	root      string
	resolver  CollisionResolver
	probe     Probe
	holding   string
	matchDate bool
	foldCase  bool
	now       func() time.Time
}

// Option configures a Planner.
type Option func(*Planner)

// WithHoldingFolder sets the folder, relative to the root, that receives
// relocated files.
func WithHoldingFolder(dir string) Option {
	return func(p *Planner) {
		p.holding = dir
	}
}

// WithMatchDatedNames makes names that differ only by embedded dates
// compete for the same slot.
func WithMatchDatedNames(match bool) Option {
	return func(p *Planner) {
		p.matchDate = match
	}
}

// WithCaseSensitive reports whether the destination filesystem tells
// names apart by case. When it does not, "ModA.package" and
// "moda.package" compete for one slot.
func WithCaseSensitive(sensitive bool) Option {
	return func(p *Planner) {
		p.foldCase = !sensitive
	}
}

// WithClock sets the clock bounding the dates recognised in file names.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		p.now = now
	}
}

// New creates a Planner. Slots are case-insensitive unless
// WithCaseSensitive says otherwise.
func New(root string, resolver CollisionResolver, probe Probe, opts ...Option) *Planner {
	p := &Planner{
		root:      filepath.Clean(root),
		resolver:  resolver,
		probe:     probe,
		holding:   config.DefaultHoldingFolder,
		matchDate: true,
		foldCase:  true,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// HoldingDir returns the absolute holding folder.
func (p *Planner) HoldingDir() string {
	return filepath.Join(p.root, p.holding)
}

// occupant is the file currently holding a destination slot.
type occupant struct {
	subject collision.Subject

	// path is where the file will be once the plan so far has run.
	path string

	// op is the index of the move that brings the file here, or -1 when
	// the file is already on disk.
	op int
}

// planState is the bookkeeping of one Plan call.
type planState struct {
	plan     *Plan
	now      time.Time
	rows     map[string]classify.Result
	moving   map[string]bool
	slots    map[string]*occupant
	listed   map[string]bool
	created  map[string]bool
	reserved map[string]bool
}

// Plan builds the operations for t. Rows are processed in table order.
func (p *Planner) Plan(t *classify.Table) (*Plan, error) {
	st := &planState{
		plan:     &Plan{Root: p.root},
		now:      p.now(),
		rows:     make(map[string]classify.Result),
		moving:   make(map[string]bool),
		slots:    make(map[string]*occupant),
		listed:   make(map[string]bool),
		created:  make(map[string]bool),
		reserved: make(map[string]bool),
	}

	for _, row := range t.All() {
		st.rows[row.Record.Path] = row
		if !row.Excluded && row.Record.Path != p.destination(row) {
			st.moving[row.Record.Path] = true
		}
	}

	for _, row := range t.All() {
		if row.Excluded {
			st.plan.Excluded++
			continue
		}
		if err := p.planRow(st, row); err != nil {
			return nil, err
		}
	}

	logger.Info("plan built",
		"ops", len(st.plan.Ops),
		"collisions", len(st.plan.Decisions),
		"deletions", len(st.plan.Deletions()))
	return st.plan, nil
}

func (p *Planner) destination(row classify.Result) string {
	return filepath.Join(p.root, row.Target, row.Record.BaseName())
}

func (p *Planner) planRow(st *planState, row classify.Result) error {
	src := row.Record.Path
	dst := p.destination(row)
	if src == dst {
		st.plan.InPlace++
		return nil
	}

	dir := filepath.Dir(dst)
	if err := p.loadDir(st, dir); err != nil {
		return err
	}

	res := row
	incoming := collision.Subject{Record: row.Record, Protected: row.Protected}
	key := p.slotKey(st, dir, row.Record)
	occ := st.slots[key]
	if occ == nil {
		op, err := p.emitMove(st, src, dst, &res, nil)
		if err != nil {
			return err
		}
		st.slots[key] = &occupant{subject: incoming, path: dst, op: op}
		return nil
	}

	d := p.resolver.Resolve(incoming, occ.subject)
	st.plan.Decisions = append(st.plan.Decisions, d)
	dec := &d
	logger.Debug("collision", "slot", key, "decision", d.String())

	if d.Loser == collision.SideIncoming {
		op, err := p.displace(st, src, d.Disposition, &res, dec)
		if err != nil {
			return err
		}
		st.plan.Ops = append(st.plan.Ops, op)
		return nil
	}

	if occ.op >= 0 {
		// The occupant arrived earlier in this plan: displace it from its
		// source instead of moving it first.
		prev := st.plan.Ops[occ.op]
		op, err := p.displace(st, prev.Source, d.Disposition, prev.Result, dec)
		if err != nil {
			return err
		}
		st.plan.Ops[occ.op] = op
	} else {
		op, err := p.displace(st, occ.path, d.Disposition, nil, dec)
		if err != nil {
			return err
		}
		st.plan.Ops = append(st.plan.Ops, op)
	}

	op, err := p.emitMove(st, src, dst, &res, dec)
	if err != nil {
		return err
	}
	st.slots[key] = &occupant{subject: incoming, path: dst, op: op}
	return nil
}

// insert places ops before index at and shifts the recorded positions of
// later moves.
func (st *planState) insert(at int, ops []Operation) {
	if len(ops) == 0 {
		return
	}
	st.plan.Ops = slices.Insert(st.plan.Ops, at, ops...)
	for _, occ := range st.slots {
		if occ.op >= at {
			occ.op += len(ops)
		}
	}
}

// loadDir registers the files already in dir as slot occupants. Files that
// are themselves about to move elsewhere do not occupy anything.
func (p *Planner) loadDir(st *planState, dir string) error {
	if st.listed[dir] {
		return nil
	}
	st.listed[dir] = true

	recs, err := p.probe.List(dir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", dir, err)
	}
	for _, rec := range recs {
		if st.moving[rec.Path] {
			continue
		}
		subject := collision.Subject{Record: rec}
		if row, ok := st.rows[rec.Path]; ok {
			subject = collision.Subject{Record: row.Record, Protected: row.Protected}
		}
		key := p.slotKey(st, dir, rec)
		if _, taken := st.slots[key]; taken {
			continue
		}
		st.slots[key] = &occupant{subject: subject, path: rec.Path, op: -1}
	}
	return nil
}

// slotKey identifies a destination slot. With dated-name matching,
// "ModA_2023-01-01.package" and "ModA.package" share a slot.
func (p *Planner) slotKey(st *planState, dir string, rec types.FileRecord) string {
	stem, ext := rec.Stem(), filepath.Ext(rec.BaseName())
	if p.matchDate {
		stem = dates.StripDates(stem, st.now)
	}
	key := filepath.Join(dir, stem+ext)
	if p.foldCase {
		key = strings.ToLower(key)
	}
	return key
}

// emitMove appends a move, preceded by any folders it needs, and returns
// the index of the move.
func (p *Planner) emitMove(st *planState, src, dst string, res *classify.Result, dec *collision.Decision) (int, error) {
	mkdirs, err := p.ensureDir(st, filepath.Dir(dst))
	if err != nil {
		return 0, err
	}
	st.plan.Ops = append(st.plan.Ops, mkdirs...)
	st.plan.Ops = append(st.plan.Ops, Operation{Kind: KindMove, Source: src, Dest: dst, Result: res, Decision: dec})
	return len(st.plan.Ops) - 1, nil
}

// displace returns the operation that takes path out of its slot: a
// delete or a relocation. Holding folders are created at the start of the
// plan so a relocation may sit anywhere in it.
func (p *Planner) displace(st *planState, path string, disp collision.Disposition, res *classify.Result, dec *collision.Decision) (Operation, error) {
	if disp == collision.DeleteOlder {
		return Operation{Kind: KindDelete, Source: path, Result: res, Decision: dec}, nil
	}

	holding := p.HoldingDir()
	mkdirs, err := p.ensureDir(st, holding)
	if err != nil {
		return Operation{}, err
	}
	st.insert(0, mkdirs)

	dst, err := p.holdingName(st, holding, filepath.Base(path))
	if err != nil {
		return Operation{}, err
	}
	return Operation{Kind: KindRelocate, Source: path, Dest: dst, Result: res, Decision: dec}, nil
}

// ensureDir returns mkdir operations for every missing directory between
// the root and dir, outermost first. Each directory is created at most
// once per plan.
func (p *Planner) ensureDir(st *planState, dir string) ([]Operation, error) {
	var missing []string
	for d := dir; d != p.root && strings.HasPrefix(d, p.root); d = filepath.Dir(d) {
		if st.created[d] {
			break
		}
		ok, err := p.probe.Exists(d)
		if err != nil {
			return nil, fmt.Errorf("probing %s: %w", d, err)
		}
		if ok {
			break
		}
		missing = append(missing, d)
	}
	ops := make([]Operation, 0, len(missing))
	for i := len(missing) - 1; i >= 0; i-- {
		st.created[missing[i]] = true
		ops = append(ops, Operation{Kind: KindMkdir, Dest: missing[i]})
	}
	return ops, nil
}

// holdingName picks a free name in the holding folder: "name.ext", then
// "name (1).ext", "name (2).ext" and so on.
func (p *Planner) holdingName(st *planState, dir, base string) (string, error) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for n := 0; ; n++ {
		name := base
		if n > 0 {
			name = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		candidate := filepath.Join(dir, name)
		if st.reserved[strings.ToLower(candidate)] {
			continue
		}
		exists, err := p.probe.Exists(candidate)
		if err != nil {
			return "", fmt.Errorf("probing %s: %w", candidate, err)
		}
		if !exists {
			st.reserved[strings.ToLower(candidate)] = true
			return candidate, nil
		}
	}
}
