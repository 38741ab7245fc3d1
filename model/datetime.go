// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package model

import "time"

// DefaultZone is the process-wide zone datetime encoding interprets a bare
// (zone-less) timestamp string in. The datetime filter and the query
// normalizer both go through this helper so a collection's datetime
// attributes and its queries agree on the same canonical representation.
var DefaultZone = time.UTC

// canonicalDatetimeLayout is the ISO-like form datetime values are encoded
// into; it carries fractional seconds so ordering by string comparison
// agrees with chronological ordering.
const canonicalDatetimeLayout = "2006-01-02T15:04:05.000Z"

// EncodeDatetime interprets value in DefaultZone and re-emits it in the
// canonical form. A nil value passes through unchanged; a value that fails
// to parse as a recognised timestamp is returned unchanged rather than
// raising, matching the filter's documented do-no-harm-on-parse-failure
// behavior.
func EncodeDatetime(value interface{}) interface{} {
	if value == nil {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return value
	}
	t, err := parseAny(s)
	if err != nil {
		return value
	}
	return t.In(DefaultZone).Format(canonicalDatetimeLayout)
}

// DecodeDatetime converts a canonical-form timestamp to its UTC-tagged
// representation. Invalid or nil input passes through unchanged.
func DecodeDatetime(value interface{}) interface{} {
	if value == nil {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return value
	}
	t, err := parseAny(s)
	if err != nil {
		return value
	}
	return t.UTC().Format(canonicalDatetimeLayout)
}

var datetimeLayouts = []string{
	canonicalDatetimeLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseAny(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range datetimeLayouts {
		t, err := time.ParseInLocation(layout, s, DefaultZone)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Now returns the current instant in canonical form; createDocument and
// updateDocument use it to stamp $createdAt/$updatedAt.
func Now() string {
	return time.Now().In(DefaultZone).Format(canonicalDatetimeLayout)
}
