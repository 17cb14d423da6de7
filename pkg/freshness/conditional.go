package freshness

import (
	"net/http"
	"strings"
)

// Request header names.
const (
	HeaderIfModifiedSince = "If-Modified-Since"
	HeaderIfNoneMatch     = "If-None-Match"
)

// Wildcard matches any current representation in If-None-Match.
const Wildcard = "*"

// ConditionalRequest is the part of an inbound request that freshness
// evaluation looks at. Build it once at the transport boundary.
type ConditionalRequest struct {
	// IfModifiedSince is the raw header value; parsed during evaluation.
	IfModifiedSince    string
	HasIfModifiedSince bool

	// IfNoneMatch holds the entity tags from If-None-Match, in header order.
	IfNoneMatch []string
}

// IsConditional reports whether the request carries any validator.
func (c ConditionalRequest) IsConditional() bool {
	return c.HasIfModifiedSince || len(c.IfNoneMatch) > 0
}

// ParseIfNoneMatch splits an If-None-Match value on commas and trims each
// token. Empty tokens are dropped, so an empty value yields an empty list.
func ParseIfNoneMatch(value string) []string {
	var tags []string
	for _, token := range strings.Split(value, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		tags = append(tags, token)
	}
	return tags
}

// UnquoteETag strips an optional W/ prefix and the surrounding double quotes
// from an entity tag, leaving the raw token. The wildcard is returned as-is.
func UnquoteETag(tag string) string {
	tag = strings.TrimPrefix(tag, "W/")
	if len(tag) >= 2 && tag[0] == '"' && tag[len(tag)-1] == '"' {
		return tag[1 : len(tag)-1]
	}
	return tag
}

// FromHeader builds a ConditionalRequest from request headers. Entity tags
// are unquoted so they compare against raw hash output. Only a bare * is
// the wildcard; a quoted "*" is an ordinary tag and is kept quoted so it
// cannot match as one.
func FromHeader(h http.Header) ConditionalRequest {
	var cond ConditionalRequest

	if values := h.Values(HeaderIfModifiedSince); len(values) > 0 {
		cond.IfModifiedSince = values[0]
		cond.HasIfModifiedSince = true
	}

	for _, value := range h.Values(HeaderIfNoneMatch) {
		for _, tag := range ParseIfNoneMatch(value) {
			if tag != Wildcard && UnquoteETag(tag) != Wildcard {
				tag = UnquoteETag(tag)
			}
			cond.IfNoneMatch = append(cond.IfNoneMatch, tag)
		}
	}

	return cond
}
