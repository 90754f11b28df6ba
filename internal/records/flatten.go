package records

import "sort"

type keyValue struct {
	key   string
	value any
}

// flatten turns nested objects into sep-joined keys. Arrays and scalars are leaves;
// an empty nested object contributes no column. Keys at each level are visited in
// sorted order so column order is stable across runs.
func flatten(record map[string]any, sep string) []keyValue {
	var out []keyValue
	flattenInto(&out, "", record, sep)
	return out
}

func flattenInto(out *[]keyValue, prefix string, obj map[string]any, sep string) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name := k
		if prefix != "" {
			name = prefix + sep + k
		}
		if nested, ok := obj[k].(map[string]any); ok {
			flattenInto(out, name, nested, sep)
			continue
		}
		*out = append(*out, keyValue{key: name, value: obj[k]})
	}
}
