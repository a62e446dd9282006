package entities

import (
	"encoding/json"
	"strings"

	apperrors "holdthatthought-backend/pkg/errors"
)

// PageContentType values for merged document pages
const (
	PageTypeImage = "image"
	PageTypeText  = "text"
	PageTypeBlob  = "blob"
)

// Page is a single page of a merged document
type Page struct {
	Number      int    `json:"number"`
	ContentType string `json:"contentType"` // image, text, blob
	MediaType   string `json:"mediaType"`   // original MIME type
	SourceKey   string `json:"sourceKey"`   // staging object the page came from
	Content     []byte `json:"content"`
}

// Document is a merged, paginated representation of one letter's uploads,
// ready for the extraction service
type Document struct {
	Pages []Page `json:"pages"`
}

// StagedFile is one downloaded upload from the staging area
type StagedFile struct {
	Key       string
	MediaType string
	Size      int64
	Content   []byte
}

// PagesMediaType marks a source that is already a paginated document
// (a previously merged Document serialized as JSON)
const PagesMediaType = "application/x-letter-pages+json"

// IsPaginated reports whether the staged file already carries pages
func (f *StagedFile) IsPaginated() bool {
	return f.MediaType == PagesMediaType
}

// EncodeDocument serializes a merged document for archival under the staging
// prefix; a later run treats it as an already-paginated source
func EncodeDocument(d *Document) ([]byte, error) {
	return json.Marshal(d)
}

// MergeFiles merges staged uploads into a single paginated document. Images
// become full-page embeds; sources that already carry pages are concatenated
// in order; anything else becomes one page holding the raw content.
func MergeFiles(files []StagedFile) (*Document, error) {
	if len(files) == 0 {
		return nil, apperrors.NewValidationError("no files to merge")
	}

	doc := &Document{}
	for _, f := range files {
		switch {
		case f.IsPaginated():
			var prior Document
			if err := json.Unmarshal(f.Content, &prior); err != nil {
				return nil, apperrors.NewValidationError("paginated source is not a valid page document").WithCause(err)
			}
			for _, p := range prior.Pages {
				doc.appendPage(p)
			}

		case strings.HasPrefix(f.MediaType, "image/"):
			doc.appendPage(Page{
				ContentType: PageTypeImage,
				MediaType:   f.MediaType,
				SourceKey:   f.Key,
				Content:     f.Content,
			})

		case strings.HasPrefix(f.MediaType, "text/"):
			doc.appendPage(Page{
				ContentType: PageTypeText,
				MediaType:   f.MediaType,
				SourceKey:   f.Key,
				Content:     f.Content,
			})

		default:
			doc.appendPage(Page{
				ContentType: PageTypeBlob,
				MediaType:   f.MediaType,
				SourceKey:   f.Key,
				Content:     f.Content,
			})
		}
	}

	return doc, nil
}

func (d *Document) appendPage(p Page) {
	p.Number = len(d.Pages) + 1
	d.Pages = append(d.Pages, p)
}

// Text concatenates the text pages, used to build the extraction prompt
func (d *Document) Text() string {
	var b strings.Builder
	for _, p := range d.Pages {
		if p.ContentType == PageTypeText {
			b.Write(p.Content)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// ImagePages returns the image pages in order
func (d *Document) ImagePages() []Page {
	var out []Page
	for _, p := range d.Pages {
		if p.ContentType == PageTypeImage {
			out = append(out, p)
		}
	}
	return out
}
