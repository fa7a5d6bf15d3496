package domain

// Artwork is the projection of a corpus row the engine reasons about: an
// embedding for retrieval and a small set of opaque display fields that
// pass through to the response untouched.
type Artwork struct {
	ID               int64
	ObjectID         string
	Title            string
	Artist           string
	Embedding        []float32
	LocalImageURL    string
	SmallImageURL    string
	OriginalImageURL string
}

// Displayable reports whether the artwork carries a usable image, the
// eligibility predicate's non-embedding half.
func (a *Artwork) Displayable() bool {
	return a.LocalImageURL != ""
}

// ImageSource identifies which image tier ImageURL resolved to.
type ImageSource string

const (
	ImageSourceS3          ImageSource = "s3"
	ImageSourceMetSmall    ImageSource = "met_small"
	ImageSourceMetOriginal ImageSource = "met_original"
)

// ImageURL resolves the artwork's display image by priority: local, then
// small, then original. ok is false when none are set.
func (a *Artwork) ImageURL() (url string, source ImageSource, ok bool) {
	switch {
	case a.LocalImageURL != "":
		return a.LocalImageURL, ImageSourceS3, true
	case a.SmallImageURL != "":
		return a.SmallImageURL, ImageSourceMetSmall, true
	case a.OriginalImageURL != "":
		return a.OriginalImageURL, ImageSourceMetOriginal, true
	default:
		return "", "", false
	}
}

func NewArtwork(id int64, objectID, title, artist string, embedding []float32, localURL, smallURL, originalURL string) *Artwork {
	return &Artwork{
		ID:               id,
		ObjectID:         objectID,
		Title:            title,
		Artist:           artist,
		Embedding:        embedding,
		LocalImageURL:    localURL,
		SmallImageURL:    smallURL,
		OriginalImageURL: originalURL,
	}
}
