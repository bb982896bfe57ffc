package newsparse

import "encoding/json"

// Payload is a decoded upstream response: whatever JSON value the body held,
// or a {"message": text} envelope when the body was not JSON.
type Payload any

// Normalize decodes body as JSON. When decoding fails the raw text is wrapped in
// a message envelope and ok is false; it never returns an error.
func Normalize(body []byte) (p Payload, ok bool) {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return map[string]any{"message": string(body)}, false
	}
	return decoded, true
}

// messageOf returns the payload's "message" field when it is a non-empty string.
func messageOf(p Payload) (string, bool) {
	obj, ok := p.(map[string]any)
	if !ok {
		return "", false
	}
	msg, ok := obj["message"].(string)
	if !ok || msg == "" {
		return "", false
	}
	return msg, true
}
