package domain

import (
	"fmt"
	"strings"
)

// Kind identifies one catalog table.
type Kind string

const (
	// KindCategory is the category table. Parts and sets reference it by id.
	KindCategory Kind = "categories"

	// KindPart is the parts table. It keeps history across imports.
	KindPart Kind = "parts"

	// KindSet is the sets table.
	KindSet Kind = "sets"

	// KindColor is the colour table.
	KindColor Kind = "colors"
)

// Protocol names the upsert protocol used to synchronise a table.
type Protocol int

const (
	// ReplaceAll marks every row stale, upserts the feed inside one
	// transaction and aborts when the feed yields nothing.
	ReplaceAll Protocol = iota

	// ReplaceWholesale drops and recreates the table, then inserts the feed.
	ReplaceWholesale
)

// String returns the protocol name.
func (p Protocol) String() string {
	switch p {
	case ReplaceAll:
		return "replace-all"
	case ReplaceWholesale:
		return "replace-wholesale"
	default:
		return "unknown"
	}
}

// Kinds returns every kind in dependency order: categories first, since
// parts and sets resolve their category names at write time.
func Kinds() []Kind {
	return []Kind{KindCategory, KindColor, KindPart, KindSet}
}

// ParseKind converts user input into a Kind.
// Singular forms are accepted ("part", "set").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "categories", "category":
		return KindCategory, nil
	case "parts", "part":
		return KindPart, nil
	case "sets", "set":
		return KindSet, nil
	case "colors", "color", "colours", "colour":
		return KindColor, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
}

// Protocol returns the upsert protocol used for this kind.
func (k Kind) Protocol() Protocol {
	if k == KindPart {
		return ReplaceAll
	}
	return ReplaceWholesale
}

// HasSearchIndex reports whether the kind has a derived full-text index.
func (k Kind) HasSearchIndex() bool {
	return k == KindPart || k == KindSet
}

// DefaultFile is the conventional dump filename for this kind.
func (k Kind) DefaultFile() string {
	return string(k) + ".xml"
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindCategory, KindPart, KindSet, KindColor:
		return true
	}
	return false
}
