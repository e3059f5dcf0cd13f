package access

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrBadTracking = errors.New("access: unparsable payment tracking")

type Tracking struct {
	Enabled bool `json:"enabled"`
}

// ParseTracking accepts the shapes payment tracking has been stored in:
// a JSON boolean, a JSON object {"enabled":...}, or a JSON string holding
// either of those. Empty input and null mean "disabled". On any other
// input it returns a disabled Tracking together with ErrBadTracking.
func ParseTracking(raw []byte) (Tracking, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Tracking{}, nil
	}

	switch raw[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Tracking{}, fmt.Errorf("%w: %v", ErrBadTracking, err)
		}
		return Tracking{Enabled: b}, nil

	case '{':
		return parseTrackingObject(raw)

	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Tracking{}, fmt.Errorf("%w: %v", ErrBadTracking, err)
		}
		return parseTrackingString(s)
	}

	return Tracking{}, fmt.Errorf("%w: %q", ErrBadTracking, raw)
}

func parseTrackingString(s string) (Tracking, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		return parseTrackingObject([]byte(s))
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return Tracking{}, fmt.Errorf("%w: %q", ErrBadTracking, s)
	}
	return Tracking{Enabled: b}, nil
}

func parseTrackingObject(raw []byte) (Tracking, error) {
	var obj struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Tracking{}, fmt.Errorf("%w: %v", ErrBadTracking, err)
	}
	if obj.Enabled == nil {
		return Tracking{}, nil
	}
	return Tracking{Enabled: *obj.Enabled}, nil
}
