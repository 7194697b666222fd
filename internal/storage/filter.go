package storage

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Provider payload fields that carry no value for history
var rawNoiseFields = []string{
	"system_fingerprint",
	"service_tier",
	"choices.0.logprobs",
	"choices.0.message.refusal",
	"choices.0.message.annotations",
}

// compactRaw strips noisy fields from a provider payload before it is stored.
// Payloads that are not JSON objects are dropped.
func compactRaw(raw []byte) []byte {
	if len(raw) == 0 || !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return nil
	}

	result := raw
	for _, path := range rawNoiseFields {
		if !gjson.GetBytes(result, path).Exists() {
			continue
		}
		if trimmed, err := sjson.DeleteBytes(result, path); err == nil {
			result = trimmed
		}
	}
	return result
}
