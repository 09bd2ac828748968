package pipelines

import (
	"context"
	"math"

	jsoniter "github.com/json-iterator/go"

	"github.com/AHartTN/hypersphere/errkind"
	"github.com/AHartTN/hypersphere/internal/addr"
	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/AHartTN/hypersphere/store"
)

// jsonValue is a parsed JSON document retaining object key order, so the
// composition tree JSONPipeline builds can reconstruct it faithfully.
type jsonValue struct {
	kind string // "object", "array", "string", "number", "bool", "null"
	str  string
	num  float64
	flag bool
	arr  []jsonValue
	obj  []jsonEntry
}

type jsonEntry struct {
	key string
	val jsonValue
}

func parseJSONValue(iter *jsoniter.Iterator) jsonValue {
	switch iter.WhatIsNext() {
	case jsoniter.NumberValue:
		return jsonValue{kind: "number", num: iter.ReadFloat64()}
	case jsoniter.StringValue:
		return jsonValue{kind: "string", str: iter.ReadString()}
	case jsoniter.BoolValue:
		return jsonValue{kind: "bool", flag: iter.ReadBool()}
	case jsoniter.NilValue:
		iter.ReadNil()
		return jsonValue{kind: "null"}
	case jsoniter.ArrayValue:
		var arr []jsonValue
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			arr = append(arr, parseJSONValue(it))
			return true
		})
		return jsonValue{kind: "array", arr: arr}
	case jsoniter.ObjectValue:
		var obj []jsonEntry
		iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
			obj = append(obj, jsonEntry{key: key, val: parseJSONValue(it)})
			return true
		})
		return jsonValue{kind: "object", obj: obj}
	default:
		iter.Skip()
		return jsonValue{kind: "null"}
	}
}

// JSONPipeline ingests a JSON document: each scalar becomes a constant of
// an appropriate seed type, arrays and objects become compositions, and
// object keys are themselves compositions of codepoints (spec.md §4.5).
// Every node carries a "kind" type atom so the reconstructor can rebuild
// the original document shape from pure constants and compositions.
func JSONPipeline(ctx context.Context, st store.NodeStore, data []byte) (int64, error) {
	if len(data) == 0 {
		return 0, errkind.Wrap(errkind.PreconditionViolation, "json input is empty")
	}

	iter := jsoniter.ParseBytes(jsoniter.ConfigDefault, data)
	v := parseJSONValue(iter)
	if iter.Error != nil {
		return 0, errkind.Wrap(errkind.InvalidInput, "malformed json: %v", iter.Error)
	}

	r, err := insertJSONValue(ctx, st, v)
	if err != nil {
		return 0, err
	}
	return addr.IDOf(r.Child), nil
}

func insertJSONValue(ctx context.Context, st store.NodeStore, v jsonValue) (addr.Resolved, error) {
	switch v.kind {
	case "number":
		n, err := addr.InsertConstant(ctx, st, model.Seed{Type: model.SeedFloat64Bits, Value: math.Float64bits(v.num)})
		if err != nil {
			return addr.Resolved{}, err
		}
		return wrapTyped(ctx, st, []addr.Resolved{n}, map[string]string{"kind": "number"})

	case "bool":
		val := uint64(0)
		if v.flag {
			val = 1
		}
		n, err := addr.InsertConstant(ctx, st, model.Seed{Type: model.SeedInteger64, Value: val})
		if err != nil {
			return addr.Resolved{}, err
		}
		return wrapTyped(ctx, st, []addr.Resolved{n}, map[string]string{"kind": "bool"})

	case "null":
		n, err := addr.InsertConstant(ctx, st, model.Seed{Type: model.SeedInteger64, Value: 0})
		if err != nil {
			return addr.Resolved{}, err
		}
		return wrapTyped(ctx, st, []addr.Resolved{n}, map[string]string{"kind": "null"})

	case "string":
		children, err := addr.InsertScalarSequence(ctx, st, addr.CodepointSeeds(v.str))
		if err != nil {
			return addr.Resolved{}, err
		}
		if len(children) == 0 {
			// Empty string: a single sentinel codepoint constant (U+0000)
			// stands in for the otherwise-disallowed empty composition; the
			// "string" type atom combined with str_len=0 tells the
			// reconstructor to discard it.
			n, err := addr.InsertConstant(ctx, st, model.Seed{Type: model.SeedUnicodeCodepoint, Value: 0})
			if err != nil {
				return addr.Resolved{}, err
			}
			return wrapTyped(ctx, st, []addr.Resolved{n}, map[string]string{"kind": "string", "str_len": "0"})
		}
		return wrapTyped(ctx, st, children, map[string]string{"kind": "string"})

	case "array":
		children := make([]addr.Resolved, len(v.arr))
		for i, elem := range v.arr {
			r, err := insertJSONValue(ctx, st, elem)
			if err != nil {
				return addr.Resolved{}, err
			}
			children[i] = r
		}
		if len(children) == 0 {
			return addr.Resolved{}, errkind.Wrap(errkind.PreconditionViolation, "empty json arrays are not representable")
		}
		return wrapTyped(ctx, st, children, map[string]string{"kind": "array"})

	case "object":
		entries := make([]addr.Resolved, len(v.obj))
		for i, e := range v.obj {
			keyChildren, err := addr.InsertScalarSequence(ctx, st, addr.CodepointSeeds(e.key))
			if err != nil {
				return addr.Resolved{}, err
			}
			var keyNode addr.Resolved
			if len(keyChildren) == 0 {
				n, err := addr.InsertConstant(ctx, st, model.Seed{Type: model.SeedUnicodeCodepoint, Value: 0})
				if err != nil {
					return addr.Resolved{}, err
				}
				keyNode, err = wrapTyped(ctx, st, []addr.Resolved{n}, map[string]string{"kind": "string", "str_len": "0"})
				if err != nil {
					return addr.Resolved{}, err
				}
			} else {
				keyNode, err = wrapTyped(ctx, st, keyChildren, map[string]string{"kind": "string"})
				if err != nil {
					return addr.Resolved{}, err
				}
			}

			valNode, err := insertJSONValue(ctx, st, e.val)
			if err != nil {
				return addr.Resolved{}, err
			}

			entry, err := wrapTyped(ctx, st, []addr.Resolved{keyNode, valNode}, map[string]string{"kind": "entry"})
			if err != nil {
				return addr.Resolved{}, err
			}
			entries[i] = entry
		}
		if len(entries) == 0 {
			return addr.Resolved{}, errkind.Wrap(errkind.PreconditionViolation, "empty json objects are not representable")
		}
		return wrapTyped(ctx, st, entries, map[string]string{"kind": "object"})
	}
	return addr.Resolved{}, errkind.Wrap(errkind.InvalidInput, "unrecognized json value kind %q", v.kind)
}

func wrapTyped(ctx context.Context, st store.NodeStore, children []addr.Resolved, meta map[string]string) (addr.Resolved, error) {
	typeID, err := addr.BuildTypeAtom(ctx, st, meta)
	if err != nil {
		return addr.Resolved{}, err
	}
	return addr.InsertComposition(ctx, st, children, &typeID, model.GeometryNone)
}
