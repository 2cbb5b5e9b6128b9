package run

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// secretPaths are removed from requests before they are stored.
var secretPaths = []string{
	"auth_config.password",
	"auth_config.token",
}

// RedactRequest strips secrets from a raw request body and returns it as a
// JSONMap suitable for storage.
func RedactRequest(raw []byte) (JSONMap, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("request is not valid JSON")
	}
	var err error
	for _, path := range secretPaths {
		if !gjson.GetBytes(raw, path).Exists() {
			continue
		}
		raw, err = sjson.DeleteBytes(raw, path)
		if err != nil {
			return nil, fmt.Errorf("failed to redact %s: %w", path, err)
		}
	}

	var m JSONMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("request must be a JSON object: %w", err)
	}
	return m, nil
}
