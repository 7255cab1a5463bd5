package catalogxml

import (
	"math"
	"strconv"
	"strings"

	"github.com/custodia-labs/blcat/internal/core/domain"
)

// RejectReason explains why an item was skipped. It is not an error.
type RejectReason string

const (
	// Accepted means the item produced a record.
	Accepted RejectReason = ""

	// RejectTypeMismatch means the item's type code belongs to another kind.
	RejectTypeMismatch RejectReason = "item type mismatch"
)

// Rejected reports whether the item was skipped.
func (r RejectReason) Rejected() bool {
	return r != Accepted
}

// Build applies schema to one raw item.
//
// Only a discriminator mismatch rejects an item. Missing or malformed fields
// degrade to the zero value. Unknown tags are ignored.
func Build(raw RawItem, schema *Schema) (domain.Record, RejectReason) {
	if tag, ok := schema.discriminatorTag(); ok {
		if strings.TrimSpace(raw[tag]) != schema.TypeCode {
			return nil, RejectTypeMismatch
		}
	}

	rec := schema.newRecord()
	for tag, value := range raw {
		f, ok := schema.fields[tag]
		if !ok {
			continue
		}
		switch f.Coercion {
		case String:
			f.setString(rec, RepairEntities(strings.TrimSpace(value)))
		case Int:
			f.setInt(rec, parseInt(value))
		case Float:
			f.setFloat(rec, parseFloat(value))
		case Discriminator:
			// checked above
		}
	}

	if schema.finish != nil {
		schema.finish(rec)
	}
	return rec, Accepted
}

func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
