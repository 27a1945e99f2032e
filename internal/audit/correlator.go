package audit

import (
	"imgaudit/internal/domain"
	"imgaudit/internal/netindex"
	"imgaudit/internal/urlutil"
)

// Correlate joins element descriptors to network records by normalized
// effective source URL. Output order and length always match the input:
// an element with no matching transfer (empty src, cached without a fetch,
// data URL) is still emitted, with NetworkRecord nil.
//
// Grouped-element alternative selection is already resolved by the
// snapshot; media queries are not re-evaluated here. NeedsSizeResolution
// is set only for grouped elements with a matched transfer, since the
// intrinsic-size quirk only manifests for those and re-measurement needs
// a reachable URL.
func Correlate(elements []domain.ElementDescriptor, index map[string]domain.NetworkRecord, documentURL string) []domain.ImageUsageRecord {
	records := make([]domain.ImageUsageRecord, len(elements))
	for i, el := range elements {
		rec := domain.ImageUsageRecord{ElementDescriptor: el}
		if el.EffectiveSrc != "" {
			key := urlutil.Normalize(el.EffectiveSrc, documentURL)
			if nr, ok := index[key]; ok {
				nr := nr
				rec.NetworkRecord = &nr
			}
		}
		rec.NeedsSizeResolution = el.IsPicture && rec.NetworkRecord != nil
		records[i] = rec
	}
	return records
}

// CorrelateTransfers is Correlate over a raw capture, building the index
// inline. Convenience for callers that do not reuse the index.
func CorrelateTransfers(elements []domain.ElementDescriptor, transfers []domain.RawTransfer, documentURL string) []domain.ImageUsageRecord {
	return Correlate(elements, netindex.Build(transfers, documentURL), documentURL)
}
