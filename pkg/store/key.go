package store

import "strings"

// DefaultPrefix namespaces Redis keys when no prefix is configured.
const DefaultPrefix = "docs"

// Keys builds deterministic Redis key names under a prefix.
//
// Format:
//
//	<prefix>:doc:<id>   JSON-encoded Document
//	<prefix>:index      set of document IDs
type Keys struct {
	Prefix string
}

func (k Keys) prefix() string {
	p := strings.Trim(k.Prefix, ":")
	if p == "" {
		return DefaultPrefix
	}
	return p
}

// Document returns the key holding a document.
func (k Keys) Document(id string) string {
	return strings.Join([]string{k.prefix(), "doc", id}, ":")
}

// Index returns the key of the ID set.
func (k Keys) Index() string {
	return k.prefix() + ":index"
}
