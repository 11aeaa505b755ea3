// Package collision decides what happens when two files compete for the
// same destination slot. The older file gives way: it is deleted, or
// relocated to the holding folder when it is protected. Ambiguous pairs
// (equal or missing dates) never delete anything.
package collision

import (
	"fmt"

	"github.com/N1nj4lxl/Modly/pkg/modly/dates"
	"github.com/N1nj4lxl/Modly/pkg/modly/logging"
	"github.com/N1nj4lxl/Modly/pkg/modly/types"
)

var logger = logging.Get("collision")

// DateSource resolves the date of a file.
type DateSource interface {
	Resolve(rec types.FileRecord) dates.Info
}

// Subject is one side of a collision.
type Subject struct {
	Record    types.FileRecord `json:"record" yaml:"record"`
	Protected bool             `json:"protected,omitempty" yaml:"protected,omitempty"`
}

// Disposition is what happens to the side that gives way.
type Disposition string

// Dispositions.
const (
	// DeleteOlder removes the older file.
	DeleteOlder Disposition = "delete-older"

	// ProtectAndRelocate moves the losing file to the holding folder.
	ProtectAndRelocate Disposition = "protect-and-relocate"
)

// Side identifies one side of a collision.
type Side string

// Sides.
const (
	SideIncoming Side = "incoming"
	SideExisting Side = "existing"
)

// Decision is the outcome of one collision.
type Decision struct {
	Incoming     Subject    `json:"incoming" yaml:"incoming"`
	Existing     Subject    `json:"existing" yaml:"existing"`
	IncomingDate dates.Info `json:"incoming_date" yaml:"incoming_date"`
	ExistingDate dates.Info `json:"existing_date" yaml:"existing_date"`

	Disposition Disposition `json:"disposition" yaml:"disposition"`

	// Loser is the side that leaves the destination slot.
	Loser Side `json:"loser" yaml:"loser"`

	// RequiresConfirmation is set when the dates tie or one is missing.
	RequiresConfirmation bool `json:"requires_confirmation,omitempty" yaml:"requires_confirmation,omitempty"`

	Reason string `json:"reason" yaml:"reason"`
}

// LoserSubject returns the side that leaves the slot.
func (d Decision) LoserSubject() Subject {
	if d.Loser == SideExisting {
		return d.Existing
	}
	return d.Incoming
}

// WinnerSubject returns the side that keeps the slot.
func (d Decision) WinnerSubject() Subject {
	if d.Loser == SideExisting {
		return d.Incoming
	}
	return d.Existing
}

// Deletes reports whether the decision removes a file.
func (d Decision) Deletes() bool {
	return d.Disposition == DeleteOlder
}

// String describes the decision on one line.
func (d Decision) String() string {
	loser := d.LoserSubject().Record.BaseName()
	winner := d.WinnerSubject().Record.BaseName()
	verb := "delete"
	if d.Disposition == ProtectAndRelocate {
		verb = "relocate"
	}
	s := fmt.Sprintf("%s %s, keep %s (%s)", verb, loser, winner, d.Reason)
	if d.RequiresConfirmation {
		s += " [needs confirmation]"
	}
	return s
}

// Resolver applies the collision policy.
type Resolver struct {
	dates       DateSource
	allowDelete bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithAllowDelete controls whether the older file may be deleted. When
// false every deletion becomes a relocation.
func WithAllowDelete(allow bool) Option {
	return func(r *Resolver) {
		r.allowDelete = allow
	}
}

// New creates a Resolver. Deletion is allowed by default.
func New(src DateSource, opts ...Option) *Resolver {
	r := &Resolver{dates: src, allowDelete: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve decides between a file arriving at a slot and the file already
// holding it.
func (r *Resolver) Resolve(incoming, existing Subject) Decision {
	d := Decision{
		Incoming:     incoming,
		Existing:     existing,
		IncomingDate: r.dates.Resolve(incoming.Record),
		ExistingDate: r.dates.Resolve(existing.Record),
	}

	switch {
	case !d.IncomingDate.Known() || !d.ExistingDate.Known():
		d.ambiguous("date unknown")
		return d
	case d.IncomingDate.Date.Equal(d.ExistingDate.Date):
		d.ambiguous("dates equal")
		return d
	case d.IncomingDate.Date.Before(d.ExistingDate.Date):
		d.Loser = SideIncoming
	default:
		d.Loser = SideExisting
	}

	older := d.LoserSubject()
	d.Reason = fmt.Sprintf("older: %s %s vs %s", older.Record.BaseName(), d.loserDate(), d.winnerDate())
	switch {
	case older.Protected:
		d.Disposition = ProtectAndRelocate
		d.Reason += ", protected"
	case !r.allowDelete:
		d.Disposition = ProtectAndRelocate
		d.Reason += ", deletion disabled"
	default:
		d.Disposition = DeleteOlder
	}
	return d
}

// ambiguous marks d as needing confirmation and picks the safe default:
// the incoming file is relocated and nothing is deleted.
func (d *Decision) ambiguous(why string) {
	d.Loser = SideIncoming
	d.Disposition = ProtectAndRelocate
	d.RequiresConfirmation = true
	d.Reason = fmt.Sprintf("%s: %s vs %s", why, d.IncomingDate, d.ExistingDate)
	logger.Warn("collision needs confirmation",
		"incoming", d.Incoming.Record.Path,
		"existing", d.Existing.Record.Path,
		"reason", why)
}

func (d Decision) loserDate() dates.Info {
	if d.Loser == SideExisting {
		return d.ExistingDate
	}
	return d.IncomingDate
}

func (d Decision) winnerDate() dates.Info {
	if d.Loser == SideExisting {
		return d.IncomingDate
	}
	return d.ExistingDate
}
