package game

import (
	"encoding/json"

	"wordroom-server/config"
)

// intSetting decodes raw as an int and validates it against bounds.
// Invalid or out-of-range values report ok=false and are dropped by the
// caller, matching the field-by-field settings-update contract.
func intSetting(raw json.RawMessage, min, max int) (int, bool) {
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	b := config.Bounds{Min: min, Max: max}
	if !b.OK(v) {
		return 0, false
	}
	return v, true
}

// boolSetting decodes raw as a bool.
func boolSetting(raw json.RawMessage) (bool, bool) {
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, false
	}
	return v, true
}
