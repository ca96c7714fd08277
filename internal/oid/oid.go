// Package oid defines the object identifier type used to name relations,
// tablespaces, and databases, plus the well-known OIDs the core must
// preserve bit-exactly to interoperate with prior data directories.
package oid

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Oid is a 32-bit object identifier, unique within a tablespace+database
// scope.
type Oid uint32

// String renders the OID in decimal, matching how relation directory
// components are named on disk.
func (o Oid) String() string { return fmt.Sprintf("%d", uint32(o)) }

// Well-known OIDs. These are reference values; implementers documenting
// different constants must do so prominently, since on-disk data
// directories depend on them.
const (
	// InvalidOid is the distinguished "no object" identifier.
	InvalidOid Oid = 0

	// DefaultTablespaceOid is the tablespace every relation in this core
	// lives in.
	DefaultTablespaceOid Oid = 1663

	// TinypgDatabaseOid is the single database this core bootstraps.
	TinypgDatabaseOid Oid = 16384

	// PgClassRelationOid is the fixed OID of the pg_class catalog relation.
	PgClassRelationOid Oid = 1259

	// PgAttributeRelationOid is the fixed OID of the pg_attribute catalog
	// relation.
	PgAttributeRelationOid Oid = 1249
)

// Locator uniquely identifies a physical relation file by tablespace,
// database, and relation OID.
type Locator struct {
	Tablespace Oid
	Database   Oid
	Relation   Oid
}

// Path returns the on-disk path for the relation this locator identifies,
// rooted at dataRoot.
func (l Locator) Path(dataRoot string) string {
	return filepath.Join(dataRoot, l.Tablespace.String(), l.Database.String(), l.Relation.String())
}

// Allocator generates relation OIDs that are unique within a given
// tablespace+database scope, by sampling random candidates and checking
// for a filesystem collision. It draws randomness from a UUID generator
// rather than a seeded PRNG so callers never need to manage allocator
// state beyond the data directory itself.
type Allocator struct {
	DataRoot string
}

// NewAllocator returns an Allocator rooted at dataRoot.
func NewAllocator(dataRoot string) *Allocator {
	return &Allocator{DataRoot: dataRoot}
}

// New samples OIDs until the candidate's relation file does not already
// exist under the given tablespace and database, then returns it.
func (a *Allocator) New(tablespace, database Oid) Oid {
	for {
		candidate := a.candidate()
		if candidate == InvalidOid {
			continue
		}
		loc := Locator{Tablespace: tablespace, Database: database, Relation: candidate}
		if _, err := os.Stat(loc.Path(a.DataRoot)); os.IsNotExist(err) {
			return candidate
		}
	}
}

// candidate draws 32 bits of randomness from a fresh UUID.
func (a *Allocator) candidate() Oid {
	u := uuid.New()
	return Oid(binary.BigEndian.Uint32(u[:4]))
}
