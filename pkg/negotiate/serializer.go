package negotiate

import "encoding/json"

// ContentTypeJSON is the MIME type paired with JSON.
const ContentTypeJSON = "application/json; charset=utf-8"

// JSON serializes v with encoding/json.
func JSON(v any) ([]byte, error) {
	return json.Marshal(v)
}
