// Package relation defines the Relation handle shared by heap access,
// the buffer pool, and the catalog: a relation's physical identity plus
// its lazily-populated schema.
package relation

import "github.com/tinypgdb/tinypg/internal/oid"

// AttrType enumerates the datum kinds a PgAttribute can describe.
type AttrType int

const (
	// TypeBool is a 1-byte boolean.
	TypeBool AttrType = iota
	// TypeInt32 is a 4-byte little-endian signed integer.
	TypeInt32
	// TypeInt64 is an 8-byte little-endian signed integer.
	TypeInt64
	// TypeText is a length-prefixed UTF-8 string.
	TypeText
)

// String renders the attribute type the way pg_attribute.atttypid would
// be rendered by a catalog dump.
func (t AttrType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt32:
		return "int"
	case TypeInt64:
		return "bigint"
	case TypeText:
		return "text"
	default:
		return "unknown"
	}
}

// Attribute describes one column of a relation, mirroring a pg_attribute
// tuple.
type Attribute struct {
	Name    string
	Type    AttrType
	NotNull bool
	AttNum  int // 1-based ordinal position, matching pg_attribute.attnum
}

// TupleDesc is the ordered schema of a relation.
type TupleDesc struct {
	Attrs []Attribute
}

// Relation is the handle higher layers obtain to operate on a table: its
// physical locator, its name, and (once resolved) its schema. A Relation
// is shared by reference between heap operations and the buffer pool and
// is immutable after construction except for the lazily populated
// TupleDesc.
type Relation struct {
	Locator oid.Locator
	RelName string
	desc    *TupleDesc
}

// New constructs a Relation handle for an already-known locator and name.
// The schema is left unresolved; call SetTupleDesc or resolve it via the
// catalog.
func New(locator oid.Locator, relName string) *Relation {
	return &Relation{Locator: locator, RelName: relName}
}

// TupleDesc returns the relation's schema, or nil if it has not been
// resolved yet.
func (r *Relation) TupleDesc() *TupleDesc { return r.desc }

// SetTupleDesc populates the relation's schema. Safe to call more than
// once; later schemas may add trailing attributes (see heap tuple decode
// semantics in the access package).
func (r *Relation) SetTupleDesc(desc *TupleDesc) { r.desc = desc }
