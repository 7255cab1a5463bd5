package domain

import (
	"strconv"
	"strings"
	"time"
)

// Record is one catalog entry. Every variant carries a natural key that is
// distinct from any surrogate id the store may assign.
type Record interface {
	// Kind returns the table the record belongs to.
	Kind() Kind

	// Key returns the natural key in string form.
	Key() string
}

var (
	_ Record = (*Category)(nil)
	_ Record = (*Part)(nil)
	_ Record = (*Set)(nil)
	_ Record = (*Color)(nil)
)

// Category is a catalog category.
type Category struct {
	// ID is the vendor category number.
	ID int

	// Name is the display name.
	Name string
}

// Kind implements Record.
func (c *Category) Kind() Kind { return KindCategory }

// Key implements Record.
func (c *Category) Key() string { return strconv.Itoa(c.ID) }

// Part is a single catalog part.
type Part struct {
	// ID is the vendor part number, e.g. "3001".
	ID string

	// Name is the part description.
	Name string

	// CategoryID references a Category by natural key.
	CategoryID int

	// CategoryName is resolved from the category table when the part is written.
	CategoryName string

	// Weight in grams.
	Weight float64

	// DimX, DimY, DimZ are the stud dimensions.
	DimX float64
	DimY float64
	DimZ float64

	// Stale is set on rows that did not reappear in the latest feed.
	Stale bool

	// CreatedAt is when the part first appeared in a feed. Updates keep it.
	CreatedAt time.Time

	// UpdatedAt is when the part was last written.
	UpdatedAt time.Time
}

// Kind implements Record.
func (p *Part) Kind() Kind { return KindPart }

// Key implements Record.
func (p *Part) Key() string { return p.ID }

// Set is a catalog set.
type Set struct {
	// ID is the vendor set number, e.g. "6080-1".
	ID string

	Name         string
	CategoryID   int
	CategoryName string

	// Year of release.
	Year int

	Weight float64
	DimX   float64
	DimY   float64
	DimZ   float64

	CreatedAt time.Time
}

// Kind implements Record.
func (s *Set) Kind() Kind { return KindSet }

// Key implements Record.
func (s *Set) Key() string { return s.ID }

// NoColor is the id of the "not applicable" colour used as a lookup fallback.
const NoColor = 0

// Color is a vendor colour.
type Color struct {
	ID   int
	Name string

	// RGB is a "#RRGGBB" string.
	RGB string

	// Type is the colour family, e.g. "Solid" or "Transparent".
	Type string

	// Parts is the number of parts known in this colour.
	Parts int

	// Sets is the number of sets containing this colour.
	Sets int

	// Wanted is the number of wanted-list entries.
	Wanted int

	// ForSale is the number of inventory lots for sale.
	ForSale int

	// YearFrom and YearTo bound the production years.
	YearFrom int
	YearTo   int
}

// Kind implements Record.
func (c *Color) Kind() Kind { return KindColor }

// Key implements Record.
func (c *Color) Key() string { return strconv.Itoa(c.ID) }

// NormalizeRGB turns a raw vendor RGB value into "#RRGGBB".
// An empty value becomes black.
func NormalizeRGB(rgb string) string {
	rgb = strings.TrimSpace(rgb)
	if rgb == "" {
		return "#000000"
	}
	if strings.HasPrefix(rgb, "#") {
		return rgb
	}
	return "#" + rgb
}

// NewRecord returns an empty record of the given kind.
func NewRecord(kind Kind) (Record, error) {
	switch kind {
	case KindCategory:
		return &Category{}, nil
	case KindPart:
		return &Part{}, nil
	case KindSet:
		return &Set{}, nil
	case KindColor:
		return &Color{}, nil
	}
	return nil, ErrUnsupportedKind
}
