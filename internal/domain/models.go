package domain

import "time"

// Element kind identifiers as reported by the page snapshot.
const (
	TagImg    = "IMG"
	TagSource = "SOURCE"
)

// Audit pass states persisted alongside results.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// AuditRequest is the payload for the API
type AuditRequest struct {
	URLs       []string `json:"urls"`
	ForceAudit bool     `json:"force_audit"` // Bypass the recently-audited window
}

// AuditTask represents a single page URL to be processed by a worker
type AuditTask struct {
	URL        string
	ForceAudit bool
}

// ElementDescriptor is one image-bearing element as the page rendered it.
// For grouped (picture) elements, Alternatives holds the source elements
// whose media condition currently matches, in document order, with the
// chosen element appended last.
type ElementDescriptor struct {
	TagName                 string              `json:"tagName"`
	EffectiveSrc            string              `json:"effectiveSrc"`
	SrcsetRaw               string              `json:"srcsetRaw"`
	SrcsetCandidateURLs     []string            `json:"srcsetCandidateUrls"`
	SizesRaw                string              `json:"sizesRaw"`
	MediaRaw                string              `json:"mediaRaw"`
	RenderedWidth           int                 `json:"renderedWidth"`
	RenderedHeight          int                 `json:"renderedHeight"`
	ReportedIntrinsicWidth  int                 `json:"reportedIntrinsicWidth"`
	ReportedIntrinsicHeight int                 `json:"reportedIntrinsicHeight"`
	IsPicture               bool                `json:"isPicture"`
	Alternatives            []ElementDescriptor `json:"alternatives,omitempty"`
}

// RawTransfer is one observed network fetch event as captured from the
// browser, before any filtering. Timestamps are monotonic seconds.
type RawTransfer struct {
	URL                  string  `json:"url"`
	MimeType             string  `json:"mimeType"`
	ResourceSize         int64   `json:"resourceSize"`
	StartTime            float64 `json:"startTime"`
	EndTime              float64 `json:"endTime"`
	ResponseReceivedTime float64 `json:"responseReceivedTime,omitempty"`
}

// NetworkRecord is the reduced projection of an image transfer kept by the
// index. ResourceSize is 0 when the browser never reported a final size.
type NetworkRecord struct {
	URL                  string  `json:"url"`
	ResourceSize         int64   `json:"resourceSize"`
	StartTime            float64 `json:"startTime"`
	EndTime              float64 `json:"endTime"`
	ResponseReceivedTime float64 `json:"responseReceivedTime,omitempty"`
}

// IntrinsicSize is the natural pixel dimensions of a decoded image.
type IntrinsicSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ImageUsageRecord is the final output unit: one per top-level element,
// in snapshot order. NetworkRecord is nil when no transfer was observed
// for the effective source (cached without a fetch, data URL, empty src).
type ImageUsageRecord struct {
	ElementDescriptor
	NetworkRecord       *NetworkRecord `json:"networkRecord,omitempty"`
	NeedsSizeResolution bool           `json:"needsSizeResolution"`
}

// AuditResult holds everything one completed pass produced for a page.
type AuditResult struct {
	URL        string             `json:"url"`
	Records    []ImageUsageRecord `json:"records"`
	Status     string             `json:"status"`
	FailReason string             `json:"fail_reason,omitempty"`
	AuditedAt  time.Time          `json:"audited_at"`
}

// AuditStatusResponse is the API response for a URL status query
type AuditStatusResponse struct {
	URL        string    `json:"url"`
	Status     string    `json:"status"`
	ImageCount int       `json:"image_count"`
	FailReason string    `json:"fail_reason,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}
