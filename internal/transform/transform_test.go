package transform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pageCraftNN/internal/testutil"
	"pageCraftNN/internal/types/canvas"
)

func TestNewDefaults(t *testing.T) {
	tr := New(Options{})
	assert.Equal(t, DefaultColor, tr.Color())
	assert.Equal(t, DefaultMaxDepth, tr.MaxDepth())

	tr = New(Options{Color: "purple", MaxDepth: 3})
	assert.Equal(t, "purple", tr.Color())
	assert.Equal(t, 3, tr.MaxDepth())
}

func TestItemsEmpty(t *testing.T) {
	tr := New(Options{})

	out, err := tr.Items([]canvas.Item{})
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)

	out, err = tr.Items(nil)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestItemsLeafKeepsChildrenAbsent(t *testing.T) {
	tr := New(Options{})
	in := []canvas.Item{testutil.Item("a", "red")}

	out, err := tr.Items(in)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "green", out[0].Color)
	assert.Nil(t, out[0].Children)
	assert.False(t, out[0].HasChildren())
}

func TestItemsEmptyChildrenStayPresent(t *testing.T) {
	tr := New(Options{})
	in := []canvas.Item{testutil.WithChildren(testutil.Item("a", "blue"))}

	out, err := tr.Items(in)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "green", out[0].Color)
	require.NotNil(t, out[0].Children)
	assert.Empty(t, *out[0].Children)
	assert.NotSame(t, in[0].Children, out[0].Children)
}

func TestItemsNestedChildren(t *testing.T) {
	tr := New(Options{})
	child := testutil.Item("b", "blue")
	child.BackgroundImageGalleryID = testutil.Ptr("img-1")
	in := []canvas.Item{testutil.WithChildren(testutil.Item("a", "red"), child)}

	out, err := tr.Items(in)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "green", out[0].Color)
	require.NotNil(t, out[0].Children)
	require.Len(t, *out[0].Children, 1)

	gotChild := (*out[0].Children)[0]
	assert.Equal(t, "green", gotChild.Color)

	// Every other field is untouched.
	wantParent := in[0]
	wantParent.Color = "green"
	wantParent.Children = out[0].Children
	assert.Equal(t, wantParent, out[0])

	wantChild := child
	wantChild.Color = "green"
	assert.Equal(t, wantChild, gotChild)
}

func TestItemsPreservesOrder(t *testing.T) {
	tr := New(Options{})
	in := []canvas.Item{
		testutil.Item("first", "red"),
		testutil.WithChildren(testutil.Item("second", "red"),
			testutil.Item("c1", "x"), testutil.Item("c2", "y"), testutil.Item("c3", "z")),
		testutil.Item("third", "red"),
	}

	out, err := tr.Items(in)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{out[0].ID, out[1].ID, out[2].ID})

	children := *out[1].Children
	require.Len(t, children, 3)
	assert.Equal(t, []string{"c1", "c2", "c3"}, []string{children[0].ID, children[1].ID, children[2].ID})
}

func TestItemsDoesNotMutateInput(t *testing.T) {
	tr := New(Options{})
	child := testutil.Item("b", "blue")
	child.BackgroundImageSrc = testutil.Ptr("https://example.com/a.png")
	in := []canvas.Item{testutil.WithChildren(testutil.Item("a", "red"), child)}

	out, err := tr.Items(in)
	require.NoError(t, err)

	assert.Equal(t, "red", in[0].Color)
	assert.Equal(t, "blue", (*in[0].Children)[0].Color)

	// Writing through the output must not reach the input.
	(*out[0].Children)[0].ID = "changed"
	*(*out[0].Children)[0].BackgroundImageSrc = "changed"
	assert.Equal(t, "b", (*in[0].Children)[0].ID)
	assert.Equal(t, "https://example.com/a.png", *(*in[0].Children)[0].BackgroundImageSrc)
}

func TestItemsIdempotent(t *testing.T) {
	tr := New(Options{})
	in := []canvas.Item{
		testutil.WithChildren(testutil.Item("a", "red"),
			testutil.WithChildren(testutil.Item("b", "blue")),
			testutil.Item("c", "pink")),
		testutil.Item("d", "black"),
	}

	once, err := tr.Items(in)
	require.NoError(t, err)
	twice, err := tr.Items(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestItemsCustomColor(t *testing.T) {
	tr := New(Options{Color: "#00ff00"})
	out, err := tr.Items([]canvas.Item{testutil.WithChildren(testutil.Item("a", "red"), testutil.Item("b", "blue"))})
	require.NoError(t, err)
	assert.Equal(t, "#00ff00", out[0].Color)
	assert.Equal(t, "#00ff00", (*out[0].Children)[0].Color)
}

func TestItemsDepthLimit(t *testing.T) {
	tr := New(Options{MaxDepth: 3})

	_, err := tr.Items([]canvas.Item{testutil.Nested(3)})
	require.NoError(t, err)

	_, err = tr.Items([]canvas.Item{testutil.Nested(4)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDepthExceeded))

	var derr *DepthExceededError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 3, derr.Limit)
	assert.Equal(t, "[0].children[0].children[0].children[0]", derr.Path)
	assert.Contains(t, err.Error(), "document too deeply nested")
}

func TestItemsDepthLimitIgnoresEmptyChildrenAtLimit(t *testing.T) {
	tr := New(Options{MaxDepth: 1})

	out, err := tr.Items([]canvas.Item{testutil.WithChildren(testutil.Item("a", "red"))})
	require.NoError(t, err)
	require.NotNil(t, out[0].Children)
	assert.Empty(t, *out[0].Children)
}

func TestWorkPassesThroughMetadataAndGallery(t *testing.T) {
	tr := New(Options{})
	work := testutil.Work(map[string][]canvas.Item{
		"100x100": {testutil.Item("a", "red")},
	})
	work.Version = 7
	work.Gallery = []canvas.GalleryImage{{
		ID: "img-1", Name: "logo.png", MimeType: "image/png", DataBase64: "iVBORw0KGgo=",
		Width: testutil.Ptr(64), Height: testutil.Ptr(32),
	}}

	out, stats, err := tr.Work(work)
	require.NoError(t, err)
	assert.Equal(t, 7, out.Version)
	assert.Equal(t, work.SavedAt, out.SavedAt)
	assert.Equal(t, work.Gallery, out.Gallery)
	assert.NotSame(t, work.Gallery[0].Width, out.Gallery[0].Width)
	assert.Equal(t, "green", out.ItemsByResolution["100x100"][0].Color)
	assert.Equal(t, "red", work.ItemsByResolution["100x100"][0].Color)
	assert.Equal(t, Stats{TotalItems: 1, Resolutions: 1}, stats)
}

func TestWorkEmptyResolutions(t *testing.T) {
	tr := New(Options{})
	work := testutil.Work(nil)
	work.Gallery = []canvas.GalleryImage{{ID: "img-1", Name: "a", MimeType: "image/png", DataBase64: "AA=="}}

	out, stats, err := tr.Work(work)
	require.NoError(t, err)
	assert.NotNil(t, out.ItemsByResolution)
	assert.Empty(t, out.ItemsByResolution)
	assert.Equal(t, work.Gallery, out.Gallery)
	assert.Equal(t, Stats{}, stats)
}

func TestWorkCountsRootItemsOnly(t *testing.T) {
	tr := New(Options{})
	work := testutil.Work(map[string][]canvas.Item{
		"1920x1080": {
			testutil.WithChildren(testutil.Item("a", "red"), testutil.Item("a1", "red"), testutil.Item("a2", "red")),
			testutil.Item("b", "red"),
		},
		"390x844": {
			testutil.Item("c", "red"),
			testutil.Item("d", "red"),
			testutil.WithChildren(testutil.Item("e", "red")),
		},
	})

	out, stats, err := tr.Work(work)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalItems)
	assert.Equal(t, 2, stats.Resolutions)
	assert.Len(t, out.ItemsByResolution["1920x1080"], 2)
	assert.Len(t, out.ItemsByResolution["390x844"], 3)
}

func TestWorkEmptyListStaysEmptyList(t *testing.T) {
	tr := New(Options{})
	out, stats, err := tr.Work(testutil.Work(map[string][]canvas.Item{"100x100": {}}))
	require.NoError(t, err)

	items, ok := out.ItemsByResolution["100x100"]
	require.True(t, ok)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Equal(t, Stats{TotalItems: 0, Resolutions: 1}, stats)
}

func TestWorkDepthErrorNamesResolution(t *testing.T) {
	tr := New(Options{MaxDepth: 2})
	work := testutil.Work(map[string][]canvas.Item{
		"100x100": {testutil.Item("ok", "red")},
		"200x200": {testutil.Nested(3)},
	})

	_, _, err := tr.Work(work)
	var derr *DepthExceededError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, `itemsByResolution["200x200"][0].children[0].children[0]`, derr.Path)
}
