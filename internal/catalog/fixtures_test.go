package catalog

import (
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/tinypgdb/tinypg/internal/relation"
)

// schemaFixture mirrors the shape of the teacher's tests/examples.yml
// table fixtures: a literal list of columns by name and type, used here
// to drive HeapCreate/TupleDescFromRelation round trips without hand
// building relation.TupleDesc struct literals per case.
type schemaFixture struct {
	Relation string `yaml:"relation"`
	Columns  []struct {
		Name string `yaml:"name"`
		Type string `yaml:"type"`
	} `yaml:"columns"`
}

const schemaFixtureYAML = `
relation: accounts
columns:
  - name: id
    type: int32
  - name: owner
    type: text
  - name: active
    type: bool
`

func attrTypeFromFixture(name string) relation.AttrType {
	switch name {
	case "bool":
		return relation.TypeBool
	case "int32":
		return relation.TypeInt32
	case "int64":
		return relation.TypeInt64
	case "text":
		return relation.TypeText
	default:
		panic("unknown fixture type " + name)
	}
}

func TestHeapCreateFromYAMLFixture(t *testing.T) {
	var fixture schemaFixture
	if err := yaml.Unmarshal([]byte(schemaFixtureYAML), &fixture); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}

	tupledesc := &relation.TupleDesc{}
	for i, col := range fixture.Columns {
		tupledesc.Attrs = append(tupledesc.Attrs, relation.Attribute{
			Name:   col.Name,
			Type:   attrTypeFromFixture(col.Type),
			AttNum: i + 1,
		})
	}

	pool := newTestPool(t)
	if err := HeapCreate(pool, fixture.Relation, 60000, tupledesc); err != nil {
		t.Fatalf("HeapCreate: %v", err)
	}

	got, err := TupleDescFromRelation(pool, fixture.Relation)
	if err != nil {
		t.Fatalf("TupleDescFromRelation: %v", err)
	}
	if len(got.Attrs) != len(fixture.Columns) {
		t.Fatalf("got %d attributes, want %d", len(got.Attrs), len(fixture.Columns))
	}
	for i, col := range fixture.Columns {
		if got.Attrs[i].Name != col.Name {
			t.Fatalf("attribute %d name = %q, want %q", i, got.Attrs[i].Name, col.Name)
		}
		if got.Attrs[i].Type != attrTypeFromFixture(col.Type) {
			t.Fatalf("attribute %d type = %v, want %v", i, got.Attrs[i].Type, attrTypeFromFixture(col.Type))
		}
	}
}
