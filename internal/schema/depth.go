package schema

import (
	"fmt"

	"pageCraftNN/internal/transform"
)

type nodeKind int

const (
	kindValue nodeKind = iota
	kindRequest
	kindWork
	kindResolutions
	kindItems
	kindItem
)

type frame struct {
	value any
	path  string
	kind  nodeKind
	nest  int
	depth int
}

// itemNode is one value found in an item position, with its document path.
type itemNode struct {
	path  string
	value any
}

// spare JSON levels allowed beyond the deepest legal item, for extra fields.
const nestSlack = 32

// walkDocument visits a generic JSON value without recursion. It rejects item
// trees deeper than maxDepth before anything recursive touches them and
// returns every value sitting in an item position. Any other nesting is
// capped so unknown fields cannot be used to go deeper.
func walkDocument(root any, rootKind nodeKind, maxDepth int) ([]itemNode, error) {
	nestLimit := 2*maxDepth + nestSlack
	stack := []frame{{value: root, kind: rootKind, nest: 1}}
	var items []itemNode

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if (f.kind == kindItem && f.depth > maxDepth) || f.nest > nestLimit {
			return nil, &transform.DepthExceededError{Limit: maxDepth, Path: f.path}
		}
		if f.kind == kindItem {
			items = append(items, itemNode{path: f.path, value: f.value})
		}

		switch v := f.value.(type) {
		case map[string]any:
			for key, child := range v {
				next := frame{value: child, path: childPath(f, key), nest: f.nest + 1}
				switch {
				case f.kind == kindRequest && key == "payload":
					next.kind = kindWork
				case f.kind == kindWork && key == "itemsByResolution":
					next.kind = kindResolutions
				case f.kind == kindResolutions:
					next.kind, next.depth = kindItems, 1
				case f.kind == kindItem && key == "children":
					next.kind, next.depth = kindItems, f.depth+1
				}
				stack = append(stack, next)
			}
		case []any:
			for i, child := range v {
				next := frame{value: child, path: fmt.Sprintf("%s[%d]", f.path, i), nest: f.nest + 1}
				if f.kind == kindItems {
					next.kind, next.depth = kindItem, f.depth
				}
				stack = append(stack, next)
			}
		}
	}
	return items, nil
}

func childPath(parent frame, key string) string {
	switch {
	case parent.kind == kindResolutions:
		return fmt.Sprintf("%s[%q]", parent.path, key)
	case parent.path == "":
		return key
	default:
		return parent.path + "." + key
	}
}
