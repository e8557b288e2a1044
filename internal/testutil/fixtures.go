// Package testutil builds canvas documents for tests.
package testutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"pageCraftNN/internal/types/canvas"
)

// Item returns a fully populated leaf item with no children field.
func Item(id, color string) canvas.Item {
	return canvas.Item{
		ID:                      id,
		X:                       10,
		Y:                       20,
		Width:                   300,
		Height:                  150.5,
		BorderRadius:            4,
		Color:                   color,
		Opacity:                 1,
		Padding:                 8,
		PaddingTop:              8,
		PaddingRight:            8,
		PaddingBottom:           8,
		PaddingLeft:             8,
		BoxShadowOffsetY:        2,
		BoxShadowBlur:           6,
		BoxShadowBaseColor:      "#000000",
		BoxShadowOpacity:        0.25,
		BoxShadowUsesBoxOpacity: true,
		BorderWidth:             1,
		BorderColor:             "#333333",
		BorderStyle:             "solid",
		BackgroundGradientStart: "#ffffff",
		BackgroundGradientEnd:   "#000000",
		BackgroundGradientAngle: 90,
		FilterBrightness:        100,
		FilterContrast:          100,
		ZIndex:                  1,
	}
}

// WithChildren sets the children field, keeping it present even when no
// children are given.
func WithChildren(item canvas.Item, children ...canvas.Item) canvas.Item {
	list := make([]canvas.Item, 0, len(children))
	list = append(list, children...)
	item.Children = &list
	return item
}

// Nested returns a chain of depth items, each the only child of the one above.
func Nested(depth int) canvas.Item {
	item := Item("leaf", "red")
	for i := 1; i < depth; i++ {
		item = WithChildren(Item("node", "red"), item)
	}
	return item
}

func Work(itemsByResolution map[string][]canvas.Item) canvas.SavedWork {
	if itemsByResolution == nil {
		itemsByResolution = map[string][]canvas.Item{}
	}
	return canvas.SavedWork{
		Version:           canvas.CurrentVersion,
		SavedAt:           "2025-01-01T12:00:00.000Z",
		ItemsByResolution: itemsByResolution,
		Gallery:           []canvas.GalleryImage{},
	}
}

func Ptr[T any](v T) *T {
	return &v
}

// RequestJSON marshals work inside a {"payload": ...} envelope.
func RequestJSON(t testing.TB, work canvas.SavedWork) []byte {
	t.Helper()
	data, err := json.Marshal(canvas.ProcessRequest{Payload: work})
	require.NoError(t, err, "marshal request")
	return data
}

// ItemMap marshals item and decodes it again as a generic object, so tests
// can drop or retype single fields.
func ItemMap(t testing.TB, item canvas.Item) map[string]any {
	t.Helper()
	data, err := json.Marshal(item)
	require.NoError(t, err, "marshal item")
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m), "unmarshal item")
	return m
}

// RawRequest wraps generic items for one resolution into a request body.
func RawRequest(t testing.TB, resolution string, items ...map[string]any) []byte {
	t.Helper()
	list := make([]any, 0, len(items))
	for _, item := range items {
		list = append(list, item)
	}
	data, err := json.Marshal(map[string]any{
		"payload": map[string]any{
			"version":           1,
			"savedAt":           "2025-01-01T12:00:00.000Z",
			"itemsByResolution": map[string]any{resolution: list},
			"gallery":           []any{},
		},
	})
	require.NoError(t, err, "marshal raw request")
	return data
}
