package messaging

import "encoding/json"

// envelope carries key and headers for brokers whose wire message is a
// bare body (NSQ).
type envelope struct {
	Key     string            `json:"k,omitempty"`
	Headers map[string]string `json:"h,omitempty"`
	Body    []byte            `json:"b"`
}

func sealEnvelope(key string, headers map[string]string, body []byte) ([]byte, error) {
	return json.Marshal(envelope{Key: key, Headers: headers, Body: body})
}

// openEnvelope falls back to treating raw as the body when it was not
// published by this package.
func openEnvelope(raw []byte) envelope {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Body == nil {
		return envelope{Body: raw}
	}
	return env
}
