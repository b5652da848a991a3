package qdrant

import "strings"

type filter struct {
	Must    []any
	MustNot []any
}

func (f filter) asMap() map[string]any {
	out := map[string]any{}
	if len(f.Must) > 0 {
		out["must"] = f.Must
	}
	if len(f.MustNot) > 0 {
		out["must_not"] = f.MustNot
	}
	return out
}

func matchValue(key string, value any) map[string]any {
	return map[string]any{
		"key":   key,
		"match": map[string]any{"value": value},
	}
}

func matchAny(key string, values []string) map[string]any {
	vals := make([]any, 0, len(values))
	for _, v := range values {
		vals = append(vals, v)
	}
	return map[string]any{
		"key":   key,
		"match": map[string]any{"any": vals},
	}
}

// contentFilter scopes a search to one namespace and drops excluded vector ids.
func contentFilter(qualifiedNS string, excludeIDs []string) map[string]any {
	f := filter{Must: []any{matchValue(payloadNamespaceKey, qualifiedNS)}}
	ids := make([]string, 0, len(excludeIDs))
	seen := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) > 0 {
		f.MustNot = append(f.MustNot, matchAny(payloadVectorIDKey, ids))
	}
	return f.asMap()
}
