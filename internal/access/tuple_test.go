package access

import (
	"testing"

	"github.com/tinypgdb/tinypg/internal/relation"
)

func twoColDesc() *relation.TupleDesc {
	return &relation.TupleDesc{Attrs: []relation.Attribute{
		{Name: "a", Type: relation.TypeInt32, AttNum: 1},
		{Name: "b", Type: relation.TypeText, AttNum: 2},
	}}
}

func TestEncodeDecodeTupleRoundTrip(t *testing.T) {
	desc := twoColDesc()
	cases := [][]any{
		{int32(1), "hi"},
		{int32(-42), ""},
		{nil, "only b"},
		{int32(7), nil},
		{nil, nil},
	}

	for _, values := range cases {
		encoded, err := EncodeTuple(desc, values)
		if err != nil {
			t.Fatalf("EncodeTuple(%v): %v", values, err)
		}
		decoded, err := DecodeTuple(desc, encoded)
		if err != nil {
			t.Fatalf("DecodeTuple(%v): %v", values, err)
		}
		for i := range values {
			if values[i] != decoded[i] {
				t.Fatalf("round trip mismatch at %d: got %v, want %v", i, decoded[i], values[i])
			}
		}
	}
}

func TestEncodeTupleNullDataRegionIsExactlyPresentBytes(t *testing.T) {
	desc := &relation.TupleDesc{Attrs: []relation.Attribute{
		{Name: "a", Type: relation.TypeInt32, AttNum: 1},
		{Name: "b", Type: relation.TypeInt32, AttNum: 2},
	}}
	encoded, err := EncodeTuple(desc, []any{nil, int32(7)})
	if err != nil {
		t.Fatalf("EncodeTuple: %v", err)
	}

	// header: 2-byte attr count + 1-byte bitmap (ceil(2/8)) = 3 bytes, then
	// exactly 4 bytes of int32 data for the one present attribute.
	wantLen := tupleHeaderPrefixSize + 1 + 4
	if len(encoded) != wantLen {
		t.Fatalf("encoded length = %d, want %d", len(encoded), wantLen)
	}

	values, err := DecodeTuple(desc, encoded)
	if err != nil {
		t.Fatalf("DecodeTuple: %v", err)
	}
	if values[0] != nil {
		t.Fatalf("attribute a = %v, want nil", values[0])
	}
	if values[1] != int32(7) {
		t.Fatalf("attribute b = %v, want 7", values[1])
	}
}

func TestDecodeTupleAgainstGrownSchemaTreatsExtraAttrsAsNull(t *testing.T) {
	oldDesc := &relation.TupleDesc{Attrs: []relation.Attribute{
		{Name: "a", Type: relation.TypeInt32, AttNum: 1},
	}}
	encoded, err := EncodeTuple(oldDesc, []any{int32(5)})
	if err != nil {
		t.Fatalf("EncodeTuple: %v", err)
	}

	newDesc := &relation.TupleDesc{Attrs: []relation.Attribute{
		{Name: "a", Type: relation.TypeInt32, AttNum: 1},
		{Name: "b", Type: relation.TypeText, AttNum: 2},
	}}
	values, err := DecodeTuple(newDesc, encoded)
	if err != nil {
		t.Fatalf("DecodeTuple against grown schema: %v", err)
	}
	if values[0] != int32(5) {
		t.Fatalf("attribute a = %v, want 5", values[0])
	}
	if values[1] != nil {
		t.Fatalf("attribute b = %v, want nil (not present when tuple was written)", values[1])
	}
}

func TestEncodeTupleWrongValueCount(t *testing.T) {
	desc := twoColDesc()
	if _, err := EncodeTuple(desc, []any{int32(1)}); err == nil {
		t.Fatalf("expected error for mismatched value count")
	}
}

func TestEncodeDatumTypeMismatch(t *testing.T) {
	desc := twoColDesc()
	if _, err := EncodeTuple(desc, []any{"not an int", "hi"}); err == nil {
		t.Fatalf("expected CodecError for wrong Go type")
	}
}
