// Package snapshot provides a goquery-based element reader over served
// HTML. It is a degraded fallback for environments without script
// execution: attribute data only, no layout or decode information, and no
// media-query evaluation (every source child of a picture is listed).
package snapshot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"imgaudit/internal/audit"
	"imgaudit/internal/domain"
	"imgaudit/internal/urlutil"
)

// StaticReader parses image-bearing elements out of raw HTML. It
// implements audit.SnapshotReader.
type StaticReader struct {
	BaseURL string
	HTML    string
}

func (r *StaticReader) ReadElements(ctx context.Context) ([]domain.ElementDescriptor, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(r.HTML))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", audit.ErrSnapshotUnavailable, err)
	}

	var elements []domain.ElementDescriptor
	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		el := r.describe(s, domain.TagImg)
		parent := s.Parent()
		if goquery.NodeName(parent) == "picture" {
			el.IsPicture = true
			parent.ChildrenFiltered("source").Each(func(j int, src *goquery.Selection) {
				el.Alternatives = append(el.Alternatives, r.describe(src, domain.TagSource))
			})
			el.Alternatives = append(el.Alternatives, r.describe(s, domain.TagImg))
		}
		elements = append(elements, el)
	})
	return elements, nil
}

func (r *StaticReader) describe(s *goquery.Selection, tagName string) domain.ElementDescriptor {
	src, _ := s.Attr("src")
	srcset, _ := s.Attr("srcset")
	sizes, _ := s.Attr("sizes")
	media, _ := s.Attr("media")

	effective := ""
	if src != "" {
		effective = urlutil.Normalize(src, r.BaseURL)
	}

	return domain.ElementDescriptor{
		TagName:             tagName,
		EffectiveSrc:        effective,
		SrcsetRaw:           srcset,
		SrcsetCandidateURLs: urlutil.ParseSrcsetCandidates(srcset, r.BaseURL),
		SizesRaw:            sizes,
		MediaRaw:            media,
		// Declared dimensions are the closest static stand-in for layout.
		RenderedWidth:  intAttr(s, "width"),
		RenderedHeight: intAttr(s, "height"),
	}
}

func intAttr(s *goquery.Selection, name string) int {
	v, ok := s.Attr(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
