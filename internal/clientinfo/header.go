// Package clientinfo identifies the storefront UI talking to the BFF.
//
// Every /api/ request carries a Storefront-Client header naming the page
// session and the UI build:
//
//	Storefront-Client: session="4b1d...", version="1.4.2"
//
// The session id selects the cart and wishlist held for that browser tab;
// the version lets the BFF turn away stale bundles with 426.
// MCP tool calls pass the same two values under _meta.storefront.
package clientinfo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dunglas/httpsfv"
)

// HeaderName is the request header carrying client identification.
const HeaderName = "Storefront-Client"

// maxSessionIDLen bounds the session id so it can't bloat keys and logs.
const maxSessionIDLen = 128

// Info is the parsed client identification.
type Info struct {
	SessionID string
	Version   string // as sent, without the "v" prefix normalization
}

// ParseHeader extracts Info from a Storefront-Client header value
// (RFC 8941 Dictionary).
//
// Examples:
//   - session="abc", version="1.2.0"  → {abc 1.2.0}
//   - session="abc";tab=2             → {abc ""} (params ignored)
//
// Returns error if the header is empty, malformed, or has no session.
func ParseHeader(header string) (Info, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Info{}, errors.New("empty Storefront-Client header")
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return Info{}, fmt.Errorf("invalid Storefront-Client header: %w", err)
	}

	session, err := stringMember(dict, "session")
	if err != nil {
		return Info{}, err
	}
	if session == "" {
		return Info{}, errors.New("session key not found in Storefront-Client header")
	}
	if len(session) > maxSessionIDLen {
		return Info{}, fmt.Errorf("session id longer than %d characters", maxSessionIDLen)
	}

	version, err := stringMember(dict, "version")
	if err != nil {
		return Info{}, err
	}
	return Info{SessionID: session, Version: version}, nil
}

// stringMember returns the string (or token) value of key, or "" if absent.
func stringMember(dict *httpsfv.Dictionary, key string) (string, error) {
	member, ok := dict.Get(key)
	if !ok {
		return "", nil
	}
	item, ok := member.(httpsfv.Item)
	if !ok {
		return "", fmt.Errorf("%s value must be an item", key)
	}
	switch v := item.Value.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case httpsfv.Token:
		return string(v), nil
	default:
		return "", fmt.Errorf("%s value must be a string", key)
	}
}

// FormatHeader renders info as a Storefront-Client header value.
func FormatHeader(info Info) (string, error) {
	dict := httpsfv.NewDictionary()
	dict.Add("session", httpsfv.NewItem(info.SessionID))
	if info.Version != "" {
		dict.Add("version", httpsfv.NewItem(info.Version))
	}
	return httpsfv.Marshal(dict)
}

// FromMCPMeta extracts Info from MCP request metadata.
// MCP format: {"_meta": {"storefront": {"session": "...", "version": "..."}}}
// The "_meta" level is optional since the SDK already strips it.
func FromMCPMeta(meta map[string]any) (Info, error) {
	if inner, ok := meta["_meta"].(map[string]any); ok {
		meta = inner
	}
	sf, ok := meta["storefront"].(map[string]any)
	if !ok {
		return Info{}, errors.New("_meta.storefront is required in MCP requests")
	}
	session, _ := sf["session"].(string)
	session = strings.TrimSpace(session)
	if session == "" {
		return Info{}, errors.New("_meta.storefront.session is required in MCP requests")
	}
	if len(session) > maxSessionIDLen {
		return Info{}, fmt.Errorf("session id longer than %d characters", maxSessionIDLen)
	}
	version, _ := sf["version"].(string)
	return Info{SessionID: session, Version: strings.TrimSpace(version)}, nil
}
