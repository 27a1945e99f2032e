// Package netindex reduces a raw network transfer capture to a lookup
// table of image transfers keyed by absolute resource URL.
package netindex

import (
	"strings"

	"imgaudit/internal/domain"
	"imgaudit/internal/urlutil"
)

// IsImageMime reports whether a mime/content-type string belongs to the
// image family.
func IsImageMime(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "image/")
}

// Build filters transfers to image-typed ones and maps each to its reduced
// record under the transfer URL normalized against baseURL. Input order is
// irrelevant; on duplicate URLs the last transfer wins, since only one of
// them can be serving the currently rendered element. An empty capture is
// valid and yields an empty index.
func Build(transfers []domain.RawTransfer, baseURL string) map[string]domain.NetworkRecord {
	index := make(map[string]domain.NetworkRecord, len(transfers))
	for _, t := range transfers {
		if !IsImageMime(t.MimeType) {
			continue
		}
		key := urlutil.Normalize(t.URL, baseURL)
		index[key] = domain.NetworkRecord{
			URL:                  key,
			ResourceSize:         t.ResourceSize,
			StartTime:            t.StartTime,
			EndTime:              t.EndTime,
			ResponseReceivedTime: t.ResponseReceivedTime,
		}
	}
	return index
}
