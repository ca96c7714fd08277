// Package catalog implements the self-describing pg_class / pg_attribute
// heaps used to record relation schemas and resolve relation names to
// physical files, plus the bootstrap that writes their first pages
// before either relation has ever been inserted into.
package catalog

import (
	"sort"

	"github.com/tinypgdb/tinypg/internal/access"
	"github.com/tinypgdb/tinypg/internal/dberr"
	"github.com/tinypgdb/tinypg/internal/oid"
	"github.com/tinypgdb/tinypg/internal/relation"
	"github.com/tinypgdb/tinypg/internal/storage/pager"
)

// pgClassTupleDesc is the fixed schema of pg_class: one tuple per relation
// known to the database.
var pgClassTupleDesc = &relation.TupleDesc{Attrs: []relation.Attribute{
	{Name: "oid", Type: relation.TypeInt64, NotNull: true, AttNum: 1},
	{Name: "relname", Type: relation.TypeText, NotNull: true, AttNum: 2},
	{Name: "reltablespace", Type: relation.TypeInt64, NotNull: true, AttNum: 3},
}}

// pgAttributeTupleDesc is the fixed schema of pg_attribute: one tuple per
// attribute of every cataloged relation, including pg_class and
// pg_attribute themselves.
var pgAttributeTupleDesc = &relation.TupleDesc{Attrs: []relation.Attribute{
	{Name: "attrelid", Type: relation.TypeInt64, NotNull: true, AttNum: 1},
	{Name: "attname", Type: relation.TypeText, NotNull: true, AttNum: 2},
	{Name: "atttypid", Type: relation.TypeInt32, NotNull: true, AttNum: 3},
	{Name: "attlen", Type: relation.TypeInt32, NotNull: true, AttNum: 4},
	{Name: "attnum", Type: relation.TypeInt32, NotNull: true, AttNum: 5},
	{Name: "attnotnull", Type: relation.TypeBool, NotNull: true, AttNum: 6},
}}

// PgClass is a decoded pg_class tuple.
type PgClass struct {
	Oid           oid.Oid
	RelName       string
	RelTablespace oid.Oid
}

// PgAttribute is a decoded pg_attribute tuple.
type PgAttribute struct {
	AttRelID   oid.Oid
	AttName    string
	AttTypeID  relation.AttrType
	AttLen     int32
	AttNum     int
	AttNotNull bool
}

// PgClassRelation returns the well-known handle for the pg_class heap.
func PgClassRelation() *relation.Relation {
	r := relation.New(oid.Locator{
		Tablespace: oid.DefaultTablespaceOid,
		Database:   oid.TinypgDatabaseOid,
		Relation:   oid.PgClassRelationOid,
	}, "pg_class")
	r.SetTupleDesc(pgClassTupleDesc)
	return r
}

// PgAttributeRelation returns the well-known handle for the pg_attribute
// heap.
func PgAttributeRelation() *relation.Relation {
	r := relation.New(oid.Locator{
		Tablespace: oid.DefaultTablespaceOid,
		Database:   oid.TinypgDatabaseOid,
		Relation:   oid.PgAttributeRelationOid,
	}, "pg_attribute")
	r.SetTupleDesc(pgAttributeTupleDesc)
	return r
}

// attrLen returns the pg_attribute.attlen convention for t: a fixed byte
// width for fixed-size types, or -1 for the variable-length text type.
func attrLen(t relation.AttrType) int32 {
	switch t {
	case relation.TypeBool:
		return 1
	case relation.TypeInt32:
		return 4
	case relation.TypeInt64:
		return 8
	default:
		return -1
	}
}

// Initdb writes the first, empty page of both catalog relations and
// registers their own schemas in pg_attribute and their own entries in
// pg_class. It must run exactly once per data directory before any other
// catalog or heap operation.
func Initdb(pool *pager.BufferPool) error {
	pgClass := PgClassRelation()
	pgAttribute := PgAttributeRelation()

	if err := initializePage(pool, pgClass); err != nil {
		return err
	}
	if err := initializePage(pool, pgAttribute); err != nil {
		return err
	}
	if err := addAttributeTuples(pool, oid.PgClassRelationOid, pgClassTupleDesc); err != nil {
		return err
	}
	if err := addAttributeTuples(pool, oid.PgAttributeRelationOid, pgAttributeTupleDesc); err != nil {
		return err
	}
	if err := insertPgClassTuple(pool, oid.PgClassRelationOid, "pg_class"); err != nil {
		return err
	}
	if err := insertPgClassTuple(pool, oid.PgAttributeRelationOid, "pg_attribute"); err != nil {
		return err
	}
	return nil
}

// initializePage allocates rel's first page and writes a well-formed
// empty header into it, then flushes it to disk, so the page on disk
// carries an explicit header rather than the all-zero bytes extend
// leaves (which pager.ReadPageHeader also reads as an empty page).
func initializePage(pool *pager.BufferPool, rel *relation.Relation) error {
	bufID, err := pool.AllocBuffer(rel)
	if err != nil {
		return err
	}
	pager.WriteHeader(pool.GetPage(bufID), pager.NewPageHeader())
	if err := pool.FlushBuffer(bufID); err != nil {
		pool.UnpinBuffer(bufID, true)
		return err
	}
	pool.UnpinBuffer(bufID, true)
	return nil
}

// addAttributeTuples inserts one pg_attribute tuple per attribute of
// tupledesc, tagged with relOid.
func addAttributeTuples(pool *pager.BufferPool, relOid oid.Oid, tupledesc *relation.TupleDesc) error {
	pgAttribute := PgAttributeRelation()
	for _, attr := range tupledesc.Attrs {
		values := []any{
			int64(relOid),
			attr.Name,
			int32(attr.Type),
			attrLen(attr.Type),
			int32(attr.AttNum),
			attr.NotNull,
		}
		encoded, err := access.EncodeTuple(pgAttributeTupleDesc, values)
		if err != nil {
			return err
		}
		if err := access.HeapInsert(pool, pgAttribute, encoded); err != nil {
			return err
		}
	}
	return nil
}

func insertPgClassTuple(pool *pager.BufferPool, relOid oid.Oid, relName string) error {
	pgClass := PgClassRelation()
	values := []any{int64(relOid), relName, int64(oid.DefaultTablespaceOid)}
	encoded, err := access.EncodeTuple(pgClassTupleDesc, values)
	if err != nil {
		return err
	}
	return access.HeapInsert(pool, pgClass, encoded)
}

// HeapCreate registers a new relation in the catalog and creates its
// first page: it records new_oid's attributes in pg_attribute,
// initializes pg_class's first page if pg_class has no pages yet,
// records new_oid itself in pg_class, and finally
// initializes the new relation's own first page.
func HeapCreate(pool *pager.BufferPool, relName string, newOid oid.Oid, tupledesc *relation.TupleDesc) error {
	newRel := relation.New(oid.Locator{
		Tablespace: oid.DefaultTablespaceOid,
		Database:   oid.TinypgDatabaseOid,
		Relation:   newOid,
	}, relName)
	newRel.SetTupleDesc(tupledesc)

	if err := addAttributeTuples(pool, newOid, tupledesc); err != nil {
		return err
	}

	pgClass := PgClassRelation()
	size, err := pool.StorageManager().Size(pgClass.Locator)
	if err != nil {
		return err
	}
	if size == 0 {
		if err := initializePage(pool, pgClass); err != nil {
			return err
		}
	}

	if err := insertPgClassTuple(pool, newOid, relName); err != nil {
		return err
	}

	return initializePage(pool, newRel)
}

// GetPgClassRelation scans pg_class for the first tuple named relName.
func GetPgClassRelation(pool *pager.BufferPool, relName string) (*PgClass, error) {
	scanner, err := access.NewHeapScanner(pool, PgClassRelation())
	if err != nil {
		return nil, err
	}
	defer scanner.Close()

	for scanner.Next() {
		values, err := access.DecodeTuple(pgClassTupleDesc, scanner.Tuple())
		if err != nil {
			return nil, err
		}
		pc := decodePgClass(values)
		if pc.RelName == relName {
			return &pc, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, dberr.RelationNotFound(relName)
}

// TupleDescFromRelation resolves relName's oid via pg_class, then
// collects its attributes from pg_attribute sorted by attnum ascending.
func TupleDescFromRelation(pool *pager.BufferPool, relName string) (*relation.TupleDesc, error) {
	pc, err := GetPgClassRelation(pool, relName)
	if err != nil {
		return nil, err
	}

	scanner, err := access.NewHeapScanner(pool, PgAttributeRelation())
	if err != nil {
		return nil, err
	}
	defer scanner.Close()

	var attrs []relation.Attribute
	for scanner.Next() {
		values, err := access.DecodeTuple(pgAttributeTupleDesc, scanner.Tuple())
		if err != nil {
			return nil, err
		}
		pa := decodePgAttribute(values)
		if pa.AttRelID == pc.Oid {
			attrs = append(attrs, relation.Attribute{
				Name:    pa.AttName,
				Type:    pa.AttTypeID,
				NotNull: pa.AttNotNull,
				AttNum:  pa.AttNum,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.Slice(attrs, func(i, j int) bool { return attrs[i].AttNum < attrs[j].AttNum })
	return &relation.TupleDesc{Attrs: attrs}, nil
}

// OpenRelation resolves relName through the catalog and returns a
// Relation handle with its schema already populated, ready for
// access.HeapInsert / access.NewHeapScanner.
func OpenRelation(pool *pager.BufferPool, relName string) (*relation.Relation, error) {
	pc, err := GetPgClassRelation(pool, relName)
	if err != nil {
		return nil, err
	}
	desc, err := TupleDescFromRelation(pool, relName)
	if err != nil {
		return nil, err
	}
	rel := relation.New(oid.Locator{
		Tablespace: pc.RelTablespace,
		Database:   oid.TinypgDatabaseOid,
		Relation:   pc.Oid,
	}, relName)
	rel.SetTupleDesc(desc)
	return rel, nil
}

// NewRelationOid samples a relation oid unique within the database
// rooted at dataRoot.
func NewRelationOid(dataRoot string) oid.Oid {
	return oid.NewAllocator(dataRoot).New(oid.DefaultTablespaceOid, oid.TinypgDatabaseOid)
}

func decodePgClass(values []any) PgClass {
	return PgClass{
		Oid:           oid.Oid(values[0].(int64)),
		RelName:       values[1].(string),
		RelTablespace: oid.Oid(values[2].(int64)),
	}
}

func decodePgAttribute(values []any) PgAttribute {
	return PgAttribute{
		AttRelID:   oid.Oid(values[0].(int64)),
		AttName:    values[1].(string),
		AttTypeID:  relation.AttrType(values[2].(int32)),
		AttLen:     values[3].(int32),
		AttNum:     int(values[4].(int32)),
		AttNotNull: values[5].(bool),
	}
}
