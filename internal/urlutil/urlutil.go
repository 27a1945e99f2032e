package urlutil

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Normalize resolves a possibly-relative URL against base and returns an
// absolute, comparable key. It fails soft: on input that cannot be parsed
// the raw string is returned unchanged, so the result is a best-effort key,
// not a validated URL.
func Normalize(raw, base string) string {
	if raw == "" {
		return raw
	}
	trimmed := strings.TrimSpace(raw)
	ref, err := url.Parse(trimmed)
	if err != nil {
		return raw
	}
	if ref.IsAbs() {
		return ref.String()
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return raw
	}
	return baseURL.ResolveReference(ref).String()
}

// ParseSrcsetCandidates extracts the candidate URLs out of a raw srcset
// attribute and normalizes each against base. A candidate whose URL cannot
// be normalized is retained verbatim rather than dropped, so the returned
// slice always has one entry per declared candidate.
func ParseSrcsetCandidates(srcsetRaw, base string) []string {
	if strings.TrimSpace(srcsetRaw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(srcsetRaw, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		// First token is the URL, the rest are width/density descriptors.
		out = append(out, Normalize(fields[0], base))
	}
	return out
}

// HashURL creates a SHA256 hash of a URL string.
// This is useful for creating consistent, safe keys for Redis.
func HashURL(rawURL string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	return hex.EncodeToString(h.Sum(nil))
}
