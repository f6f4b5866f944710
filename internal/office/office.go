// Package office is the fixed catalog of organizational offices. The table is
// immutable and ordered; an Office is its index into it.
package office

import (
	"fmt"

	"github.com/dmitrijs2005/orgvote/internal/common"
)

// Office is one of the catalog kinds.
type Office int

const (
	Founder Office = iota
	President
	VicePresident
	Secretary
	Treasurer
	Steward
	Trustee
)

var kinds = [...]struct {
	name  string
	title string
}{
	Founder:       {"founder", "Founder"},
	President:     {"president", "President"},
	VicePresident: {"vice_president", "Vice President"},
	Secretary:     {"secretary", "Secretary"},
	Treasurer:     {"treasurer", "Treasurer"},
	Steward:       {"steward", "Steward"},
	Trustee:       {"trustee", "Trustee"},
}

// Kinds returns every office in catalog order.
func Kinds() []Office {
	out := make([]Office, len(kinds))
	for i := range kinds {
		out[i] = Office(i)
	}
	return out
}

// ByIndex returns the office at catalog position i.
func ByIndex(i int) (Office, error) {
	if i < 0 || i >= len(kinds) {
		return 0, fmt.Errorf("office index %d: %w", i, common.ErrUnknownOffice)
	}
	return Office(i), nil
}

// Parse maps a kind string such as "vice_president" to its Office.
func Parse(s string) (Office, error) {
	for i, k := range kinds {
		if k.name == s {
			return Office(i), nil
		}
	}
	return 0, fmt.Errorf("office %q: %w", s, common.ErrUnknownOffice)
}

// Valid reports whether o is a catalog entry.
func (o Office) Valid() bool {
	return o >= 0 && int(o) < len(kinds)
}

func (o Office) String() string {
	if !o.Valid() {
		return fmt.Sprintf("office(%d)", int(o))
	}
	return kinds[o].name
}

// Title is the display name.
func (o Office) Title() string {
	if !o.Valid() {
		return ""
	}
	return kinds[o].title
}

// MultiSeat reports whether the office tolerates simultaneous holders. Only
// stewards do; they are exempt from the cooldown and overlap rules and may
// be elected several at a time.
func (o Office) MultiSeat() bool {
	return o == Steward
}

// MarshalText encodes o as its kind string.
func (o Office) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("office %d: %w", int(o), common.ErrUnknownOffice)
	}
	return []byte(kinds[o].name), nil
}

// UnmarshalText parses a kind string.
func (o *Office) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}
