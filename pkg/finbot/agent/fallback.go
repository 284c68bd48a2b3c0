// Package agent – fallback.go recovers tool calls from models that emit an
// inline pseudo-XML tag sequence instead of structured tool-call output:
//
//	<function=NAME>
//	<parameter=key>value</parameter>
//	</function>
//
// The parsing is inherently heuristic and deliberately lenient: closing
// tags may be malformed or missing and parameter values may or may not be
// JSON-shaped.
package agent

import (
	"encoding/json"
	"strings"
)

// ParseInlineToolCall scans raw model text for a pseudo-XML tool call.
// Returns the function name, the parsed arguments and whether a function
// tag was found at all. When no tag is present the raw text is the reply;
// this is best-effort degradation, not an error.
func ParseInlineToolCall(text string) (string, map[string]any, bool) {
	start := strings.Index(text, "<function=")
	if start < 0 {
		return "", nil, false
	}
	rest := text[start+len("<function="):]

	nameEnd := strings.IndexAny(rest, ">\n")
	if nameEnd < 0 {
		return "", nil, false
	}
	name := strings.TrimSpace(rest[:nameEnd])
	// Tolerate `<function=name/>` and stray whitespace inside the tag.
	name = strings.TrimSuffix(name, "/")
	if name == "" {
		return "", nil, false
	}
	body := rest[nameEnd:]
	if strings.HasPrefix(body, ">") {
		body = body[1:]
	}

	// The body ends at the closing function tag when present; the model
	// sometimes writes </function=NAME> instead of </function>.
	if end := strings.Index(body, "</function"); end >= 0 {
		body = body[:end]
	}

	return name, parseParameters(body), true
}

// parseParameters extracts each <parameter=key>value</parameter> pair.
// A missing closing tag ends the value at the next parameter tag or the
// end of the body.
func parseParameters(body string) map[string]any {
	args := map[string]any{}
	for {
		idx := strings.Index(body, "<parameter=")
		if idx < 0 {
			break
		}
		rest := body[idx+len("<parameter="):]

		keyEnd := strings.Index(rest, ">")
		if keyEnd < 0 {
			break
		}
		key := strings.TrimSpace(rest[:keyEnd])
		value := rest[keyEnd+1:]

		next := strings.Index(value, "<parameter=")
		closing := strings.Index(value, "</parameter>")

		var raw string
		switch {
		case closing >= 0 && (next < 0 || closing < next):
			raw = value[:closing]
			body = value[closing+len("</parameter>"):]
		case next >= 0:
			raw = value[:next]
			body = value[next:]
		default:
			raw = value
			body = ""
		}

		if key != "" {
			args[key] = interpretValue(strings.TrimSpace(raw))
		}
		if body == "" {
			break
		}
	}
	return args
}

// interpretValue attempts JSON interpretation for values that look
// array, object or quoted-string shaped; anything else stays literal text.
func interpretValue(raw string) any {
	if raw == "" {
		return ""
	}
	first := raw[0]
	if first == '{' || first == '[' || first == '"' {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return v
		}
	}
	return raw
}
