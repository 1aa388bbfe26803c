package webhook

import (
	"bytes"
	"encoding/json"
)

// ExtractText digs the reply text out of a webhook response body. The
// workflow's response shape depends on how the final n8n node is
// configured, so the probes run in a fixed order over every shape seen
// in the wild; the first string found wins. Returns false when nothing
// matches, and callers substitute their fallback text.
//
// Probe order: bare string (including a non-JSON plain-text body), then
// on an object the fields "output", "BotResponse", "text" and the
// doubly nested "output.output", then on an array the first element's
// "output"/"BotResponse" and its nested "json" object's
// "output"/"BotResponse"/"text". Changing this order changes which
// reply users see for multi-field responses, so keep it as is.
func ExtractText(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", false
	}
	if !json.Valid(trimmed) {
		// n8n can answer with plain text when the workflow ends in a
		// non-JSON respond node.
		return string(body), true
	}
	return extract(trimmed)
}

func extract(raw json.RawMessage) (string, bool) {
	if s, ok := asString(raw); ok {
		return s, true
	}

	if obj, ok := asObject(raw); ok {
		for _, key := range []string{"output", "BotResponse", "text"} {
			if s, ok := stringField(obj, key); ok {
				return s, true
			}
		}
		if inner, ok := asObject(obj["output"]); ok {
			if s, ok := stringField(inner, "output"); ok {
				return s, true
			}
		}
		return "", false
	}

	if arr, ok := asArray(raw); ok && len(arr) > 0 {
		first, ok := asObject(arr[0])
		if !ok {
			return "", false
		}
		for _, key := range []string{"output", "BotResponse"} {
			if s, ok := stringField(first, key); ok {
				return s, true
			}
		}
		if inner, ok := asObject(first["json"]); ok {
			for _, key := range []string{"output", "BotResponse", "text"} {
				if s, ok := stringField(inner, key); ok {
					return s, true
				}
			}
		}
	}

	return "", false
}

func asString(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) > 0 && json.Unmarshal(raw, &s) == nil {
		return s, true
	}
	return "", false
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil {
		return nil, false
	}
	return obj, true
}

func asArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var arr []json.RawMessage
	if json.Unmarshal(raw, &arr) != nil {
		return nil, false
	}
	return arr, true
}

func stringField(obj map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := obj[key]
	if !ok {
		return "", false
	}
	return asString(raw)
}
