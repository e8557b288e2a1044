// Package transform rewrites canvas item trees. The only rewrite today
// forces every item's color to a fixed value at every depth; it stands in
// for the suggestion engine the editor will eventually call.
package transform

import (
	"fmt"
	"maps"
	"slices"

	"pageCraftNN/internal/types/canvas"
)

const (
	DefaultColor    = "green"
	DefaultMaxDepth = 256
)

type Options struct {
	Color    string
	MaxDepth int
}

// Stats counts root-level items only. Nested children are not summed.
type Stats struct {
	TotalItems  int
	Resolutions int
}

// Transformer is immutable once built and safe for concurrent use.
type Transformer struct {
	color    string
	maxDepth int
}

func New(opts Options) *Transformer {
	if opts.Color == "" {
		opts.Color = DefaultColor
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Transformer{color: opts.Color, maxDepth: opts.MaxDepth}
}

func (t *Transformer) Color() string { return t.color }

func (t *Transformer) MaxDepth() int { return t.maxDepth }

// Items returns a fresh copy of items with the override applied to every
// node. The input is never modified and shares no memory with the output.
func (t *Transformer) Items(items []canvas.Item) ([]canvas.Item, error) {
	return t.items(items, 1, "")
}

func (t *Transformer) items(items []canvas.Item, depth int, path string) ([]canvas.Item, error) {
	out := make([]canvas.Item, 0, len(items))
	if len(items) > 0 && depth > t.maxDepth {
		return nil, &DepthExceededError{Limit: t.maxDepth, Path: fmt.Sprintf("%s[0]", path)}
	}

	for i, item := range items {
		next, err := t.item(item, depth, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, next)
	}
	return out, nil
}

func (t *Transformer) item(in canvas.Item, depth int, path string) (canvas.Item, error) {
	out := in
	out.Color = t.color

	out.BackgroundImageEnabled = clonePtr(in.BackgroundImageEnabled)
	out.BackgroundImageSrc = clonePtr(in.BackgroundImageSrc)
	out.BackgroundImageSourceType = clonePtr(in.BackgroundImageSourceType)
	out.BackgroundImageGalleryID = clonePtr(in.BackgroundImageGalleryID)
	out.BackgroundImageFit = clonePtr(in.BackgroundImageFit)
	out.BackgroundImagePosition = clonePtr(in.BackgroundImagePosition)
	out.BackgroundImageRepeat = clonePtr(in.BackgroundImageRepeat)

	if in.Children == nil {
		out.Children = nil
		return out, nil
	}

	children, err := t.items(*in.Children, depth+1, path+".children")
	if err != nil {
		return canvas.Item{}, err
	}
	out.Children = &children
	return out, nil
}

// Work applies Items to every resolution list of w. Version, SavedAt and
// the gallery pass through unchanged.
func (t *Transformer) Work(w canvas.SavedWork) (canvas.SavedWork, Stats, error) {
	out := canvas.SavedWork{
		Version: w.Version,
		SavedAt: w.SavedAt,
		Gallery: cloneGallery(w.Gallery),
	}

	var stats Stats
	if w.ItemsByResolution == nil {
		return out, stats, nil
	}

	out.ItemsByResolution = make(map[string][]canvas.Item, len(w.ItemsByResolution))

	// Sorted so the reported depth path is stable across runs.
	for _, resolution := range slices.Sorted(maps.Keys(w.ItemsByResolution)) {
		items, err := t.items(w.ItemsByResolution[resolution], 1, fmt.Sprintf("itemsByResolution[%q]", resolution))
		if err != nil {
			return canvas.SavedWork{}, Stats{}, err
		}
		out.ItemsByResolution[resolution] = items
		stats.TotalItems += len(items)
	}
	stats.Resolutions = len(out.ItemsByResolution)

	return out, stats, nil
}

func cloneGallery(in []canvas.GalleryImage) []canvas.GalleryImage {
	if in == nil {
		return nil
	}
	out := make([]canvas.GalleryImage, len(in))
	for i, img := range in {
		img.Width = clonePtr(img.Width)
		img.Height = clonePtr(img.Height)
		out[i] = img
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
