package reconstruct

import (
	"bytes"
	"context"
	"math"

	jsoniter "github.com/json-iterator/go"

	"github.com/AHartTN/hypersphere/errkind"
	"github.com/AHartTN/hypersphere/store"
)

// orderedObject re-marshals a JSON object preserving the key order it was
// ingested with, since Go's map type does not.
type orderedObject struct {
	keys []string
	vals []any
}

// MarshalJSON implements json.Marshaler.
func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(o.vals[i])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// JSON reconstructs a JSONPipeline root into the document's original JSON
// text. Object key order is preserved from ingestion.
func JSON(ctx context.Context, st store.NodeStore, id int64) ([]byte, error) {
	v, err := decodeJSONNode(ctx, st, id)
	if err != nil {
		return nil, err
	}
	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
}

func decodeJSONNode(ctx context.Context, st store.NodeStore, id int64) (any, error) {
	meta, err := st.TypeRefMetadata(ctx, id)
	if err != nil {
		return nil, err
	}
	kind := meta["kind"]

	switch kind {
	case "number":
		seeds, err := st.ReconstructSeeds(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(seeds) != 1 {
			return nil, errkind.Wrap(errkind.InvariantViolation, "json number node %d does not wrap exactly one leaf", id)
		}
		return math.Float64frombits(seeds[0].Value), nil

	case "bool":
		seeds, err := st.ReconstructSeeds(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(seeds) != 1 {
			return nil, errkind.Wrap(errkind.InvariantViolation, "json bool node %d does not wrap exactly one leaf", id)
		}
		return seeds[0].Value != 0, nil

	case "null":
		return nil, nil

	case "string":
		if meta["str_len"] == "0" {
			return "", nil
		}
		seeds, err := st.ReconstructSeeds(ctx, id)
		if err != nil {
			return nil, err
		}
		runes := make([]rune, len(seeds))
		for i, s := range seeds {
			runes[i] = rune(s.Value)
		}
		return string(runes), nil

	case "array":
		info, err := st.Inspect(ctx, id)
		if err != nil {
			return nil, err
		}
		arr := make([]any, 0, len(info.Children))
		for _, c := range info.Children {
			for m := int32(0); m < c.Multiplicity; m++ {
				val, err := decodeJSONNode(ctx, st, childID(c.Child))
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
		}
		return arr, nil

	case "object":
		info, err := st.Inspect(ctx, id)
		if err != nil {
			return nil, err
		}
		obj := orderedObject{}
		for _, c := range info.Children {
			for m := int32(0); m < c.Multiplicity; m++ {
				key, val, err := decodeJSONEntry(ctx, st, childID(c.Child))
				if err != nil {
					return nil, err
				}
				obj.keys = append(obj.keys, key)
				obj.vals = append(obj.vals, val)
			}
		}
		return obj, nil

	default:
		return nil, errkind.Wrap(errkind.InvariantViolation, "json node %d has unrecognized kind %q", id, kind)
	}
}

func decodeJSONEntry(ctx context.Context, st store.NodeStore, id int64) (string, any, error) {
	info, err := st.Inspect(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if len(info.Children) != 2 {
		return "", nil, errkind.Wrap(errkind.InvariantViolation, "json object entry %d does not have exactly 2 children", id)
	}
	keyVal, err := decodeJSONNode(ctx, st, childID(info.Children[0].Child))
	if err != nil {
		return "", nil, err
	}
	key, ok := keyVal.(string)
	if !ok {
		return "", nil, errkind.Wrap(errkind.InvariantViolation, "json object entry %d key is not a string", id)
	}
	val, err := decodeJSONNode(ctx, st, childID(info.Children[1].Child))
	if err != nil {
		return "", nil, err
	}
	return key, val, nil
}
