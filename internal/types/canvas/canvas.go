package canvas

// CurrentVersion is the SavedWork format version written by the editor.
// No migration between versions exists yet.
const CurrentVersion = 1

// Item is one visual element on the canvas. Children holds nested items;
// a nil Children means the field was absent, a non-nil pointer to an empty
// slice means it was sent as [].
type Item struct {
	ID string `json:"id"`

	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Rotation     float64 `json:"rotation"`
	BorderRadius float64 `json:"borderRadius"`
	Color        string  `json:"color"`
	Opacity      float64 `json:"opacity"`

	Padding       float64 `json:"padding"`
	PaddingTop    float64 `json:"paddingTop"`
	PaddingRight  float64 `json:"paddingRight"`
	PaddingBottom float64 `json:"paddingBottom"`
	PaddingLeft   float64 `json:"paddingLeft"`
	Margin        float64 `json:"margin"`
	MarginTop     float64 `json:"marginTop"`
	MarginRight   float64 `json:"marginRight"`
	MarginBottom  float64 `json:"marginBottom"`
	MarginLeft    float64 `json:"marginLeft"`

	BoxShadowOffsetX        float64 `json:"boxShadowOffsetX"`
	BoxShadowOffsetY        float64 `json:"boxShadowOffsetY"`
	BoxShadowBlur           float64 `json:"boxShadowBlur"`
	BoxShadowSpread         float64 `json:"boxShadowSpread"`
	BoxShadowBaseColor      string  `json:"boxShadowBaseColor"`
	BoxShadowOpacity        float64 `json:"boxShadowOpacity"`
	BoxShadowUsesBoxOpacity bool    `json:"boxShadowUsesBoxOpacity"`

	BorderWidth float64 `json:"borderWidth"`
	BorderColor string  `json:"borderColor"`
	BorderStyle string  `json:"borderStyle"`

	BackgroundGradientEnabled bool    `json:"backgroundGradientEnabled"`
	BackgroundGradientStart   string  `json:"backgroundGradientStart"`
	BackgroundGradientEnd     string  `json:"backgroundGradientEnd"`
	BackgroundGradientAngle   float64 `json:"backgroundGradientAngle"`

	FilterBlur       float64 `json:"filterBlur"`
	FilterBrightness float64 `json:"filterBrightness"`
	FilterContrast   float64 `json:"filterContrast"`
	ZIndex           float64 `json:"zIndex"`

	// Free-form strings. The editor sends url|gallery, cover|contain and
	// css position/repeat keywords but nothing here enforces that.
	BackgroundImageEnabled    *bool   `json:"backgroundImageEnabled,omitempty"`
	BackgroundImageSrc        *string `json:"backgroundImageSrc,omitempty"`
	BackgroundImageSourceType *string `json:"backgroundImageSourceType,omitempty"`
	BackgroundImageGalleryID  *string `json:"backgroundImageGalleryId,omitempty"`
	BackgroundImageFit        *string `json:"backgroundImageFit,omitempty"`
	BackgroundImagePosition   *string `json:"backgroundImagePosition,omitempty"`
	BackgroundImageRepeat     *string `json:"backgroundImageRepeat,omitempty"`

	Children *[]Item `json:"children,omitempty"`
}

// HasChildren reports whether the children field is present, even if empty.
func (i Item) HasChildren() bool {
	return i.Children != nil
}

type GalleryImage struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MimeType   string `json:"mimeType"`
	DataBase64 string `json:"dataBase64"`
	Width      *int   `json:"width,omitempty"`
	Height     *int   `json:"height,omitempty"`
}

// SavedWork is the document root exchanged with the editor.
type SavedWork struct {
	Version           int               `json:"version"`
	SavedAt           string            `json:"savedAt"`
	ItemsByResolution map[string][]Item `json:"itemsByResolution"`
	Gallery           []GalleryImage    `json:"gallery"`
}

type ProcessRequest struct {
	Payload SavedWork `json:"payload"`
}

type ProcessResponse struct {
	ProcessedPayload SavedWork `json:"processedPayload"`
}
