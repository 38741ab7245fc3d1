// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package filters

import (
	"github.com/goccy/go-json"

	"github.com/dalarub/docbase/model"
)

// registerBuiltinFilters installs the two mandatory filters, "json" and
// "datetime", on the process-wide registry. Called at most once per process
// via sync.Once in NewRegistry.
func registerBuiltinFilters() {
	shared["json"] = Filter{Encode: jsonEncode, Decode: jsonDecode}
	shared["datetime"] = Filter{Encode: datetimeEncode, Decode: datetimeDecode}
}

// jsonEncode serializes a mapping or structured value to a canonical JSON
// string. A *model.Document is unwrapped to its underlying map first;
// values that are already primitive (string, number, bool, nil) pass
// through unchanged.
func jsonEncode(value interface{}, _ interface{}, _ Engine) interface{} {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case string, bool, int, int32, int64, float32, float64:
		return v
	case *model.Document:
		data, err := json.Marshal(v.GetArrayCopy())
		if err != nil {
			return value
		}
		return string(data)
	case map[string]interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return value
		}
		return string(data)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return value
		}
		return string(data)
	}
}

// jsonDecode parses a JSON string back into its structured value. A result
// carrying $id is wrapped into a *model.Document; a result whose entries
// individually look like documents have each wrapped in turn; everything
// else is returned as a plain map or primitive.
func jsonDecode(value interface{}, _ interface{}, _ Engine) interface{} {
	s, ok := value.(string)
	if !ok {
		return value
	}
	var decoded interface{}
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return value
	}
	return wrapIfDocument(decoded)
}

func wrapIfDocument(v interface{}) interface{} {
	switch m := v.(type) {
	case map[string]interface{}:
		if _, ok := m[model.AttributeID]; ok {
			return model.NewDocumentFromMap(m)
		}
		return m
	case []interface{}:
		out := make([]interface{}, len(m))
		for i, item := range m {
			out[i] = wrapIfDocument(item)
		}
		return out
	default:
		return v
	}
}

// datetimeEncode interprets a timestamp string in the process-wide default
// zone and re-emits it in canonical ISO-like form. A nil value passes
// through; a value that fails to parse is returned unchanged rather than
// raising.
func datetimeEncode(value interface{}, _ interface{}, _ Engine) interface{} {
	return model.EncodeDatetime(value)
}

// datetimeDecode converts a canonical-form timestamp to its UTC-tagged form.
func datetimeDecode(value interface{}, _ interface{}, _ Engine) interface{} {
	return model.DecodeDatetime(value)
}
