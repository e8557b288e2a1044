package schema

import "math"

// largest integer a float64 holds exactly
const maxExactInt = 1 << 53

// shallowRoot returns a copy of the document with every item list emptied so
// the envelope can be checked without its item trees. Integral floats in int
// fields are rewritten in place; coerced reports whether any were.
func shallowRoot(root any, kind nodeKind) (shell any, coerced bool) {
	if kind != kindRequest {
		return shallowWork(root)
	}

	req, ok := root.(map[string]any)
	if !ok {
		return root, false
	}
	out := copyMap(req)
	if payload, ok := req["payload"]; ok {
		out["payload"], coerced = shallowWork(payload)
	}
	return out, coerced
}

func shallowWork(v any) (any, bool) {
	work, ok := v.(map[string]any)
	if !ok {
		return v, false
	}

	coerced := coerceIntegral(work, "version")
	if gallery, ok := work["gallery"].([]any); ok {
		for _, g := range gallery {
			img, ok := g.(map[string]any)
			if !ok {
				continue
			}
			if coerceIntegral(img, "width") {
				coerced = true
			}
			if coerceIntegral(img, "height") {
				coerced = true
			}
		}
	}

	out := copyMap(work)
	if byResolution, ok := work["itemsByResolution"].(map[string]any); ok {
		lists := make(map[string]any, len(byResolution))
		for key, list := range byResolution {
			if _, ok := list.([]any); ok {
				lists[key] = []any{}
				continue
			}
			lists[key] = list
		}
		out["itemsByResolution"] = lists
	}
	return out, coerced
}

// shallowItem drops the subtree under children; each child is checked as an
// item node of its own.
func shallowItem(v any) any {
	item, ok := v.(map[string]any)
	if !ok {
		return v
	}
	children, ok := item["children"].([]any)
	if !ok || len(children) == 0 {
		return item
	}
	out := copyMap(item)
	out["children"] = []any{}
	return out
}

func coerceIntegral(m map[string]any, key string) bool {
	f, ok := m[key].(float64)
	if !ok || f != math.Trunc(f) || math.Abs(f) > maxExactInt {
		return false
	}
	m[key] = int64(f)
	return true
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
