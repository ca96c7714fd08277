package catalog

import (
	"testing"

	"github.com/tinypgdb/tinypg/internal/oid"
	"github.com/tinypgdb/tinypg/internal/relation"
	"github.com/tinypgdb/tinypg/internal/storage/pager"
)

func newTestPool(t *testing.T) *pager.BufferPool {
	t.Helper()
	smgr := pager.NewStorageManager(t.TempDir())
	pool := pager.NewBufferPool(smgr, pager.Config{Capacity: 32})
	if err := Initdb(pool); err != nil {
		t.Fatalf("Initdb: %v", err)
	}
	return pool
}

func TestInitdbRegistersItself(t *testing.T) {
	pool := newTestPool(t)

	pgClass, err := GetPgClassRelation(pool, "pg_class")
	if err != nil {
		t.Fatalf("GetPgClassRelation(pg_class): %v", err)
	}
	if pgClass.Oid != oid.PgClassRelationOid {
		t.Fatalf("pg_class oid = %v, want %v", pgClass.Oid, oid.PgClassRelationOid)
	}

	desc, err := TupleDescFromRelation(pool, "pg_attribute")
	if err != nil {
		t.Fatalf("TupleDescFromRelation(pg_attribute): %v", err)
	}
	if len(desc.Attrs) != len(pgAttributeTupleDesc.Attrs) {
		t.Fatalf("pg_attribute has %d attributes, want %d", len(desc.Attrs), len(pgAttributeTupleDesc.Attrs))
	}
}

func TestHeapCreateThenTupleDescRoundTrip(t *testing.T) {
	pool := newTestPool(t)

	tupledesc := &relation.TupleDesc{Attrs: []relation.Attribute{
		{Name: "a", Type: relation.TypeInt32, NotNull: true, AttNum: 1},
		{Name: "b", Type: relation.TypeText, AttNum: 2},
	}}
	newOid := oid.Oid(50000)
	if err := HeapCreate(pool, "t", newOid, tupledesc); err != nil {
		t.Fatalf("HeapCreate: %v", err)
	}

	got, err := TupleDescFromRelation(pool, "t")
	if err != nil {
		t.Fatalf("TupleDescFromRelation: %v", err)
	}
	if len(got.Attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(got.Attrs))
	}
	if got.Attrs[0].Name != "a" || got.Attrs[0].Type != relation.TypeInt32 {
		t.Fatalf("attribute 0 = %+v, want a:int32", got.Attrs[0])
	}
	if got.Attrs[1].Name != "b" || got.Attrs[1].Type != relation.TypeText {
		t.Fatalf("attribute 1 = %+v, want b:text", got.Attrs[1])
	}
}

func TestGetPgClassRelationNotFound(t *testing.T) {
	pool := newTestPool(t)
	if _, err := GetPgClassRelation(pool, "does_not_exist"); err == nil {
		t.Fatalf("expected RelationNotFound for an unregistered relation")
	}
}

func TestOpenRelationPopulatesSchema(t *testing.T) {
	pool := newTestPool(t)

	tupledesc := &relation.TupleDesc{Attrs: []relation.Attribute{
		{Name: "a", Type: relation.TypeInt32, NotNull: true, AttNum: 1},
	}}
	if err := HeapCreate(pool, "t", oid.Oid(50000), tupledesc); err != nil {
		t.Fatalf("HeapCreate: %v", err)
	}

	rel, err := OpenRelation(pool, "t")
	if err != nil {
		t.Fatalf("OpenRelation: %v", err)
	}
	if rel.TupleDesc() == nil || len(rel.TupleDesc().Attrs) != 1 {
		t.Fatalf("OpenRelation did not populate the schema")
	}
}
