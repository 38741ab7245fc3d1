// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package database

import "github.com/dalarub/docbase/model"

// normalizeQueries rewrites every query literal targeting a datetime
// attribute through the datetime encoder, so the adapter always compares
// against the same canonical zone representation regardless of how the
// caller wrote the literal.
func normalizeQueries(collection Collection, queries []model.Query) []model.Query {
	out := make([]model.Query, len(queries))
	for i, q := range queries {
		attr, ok := collection.FindAttribute(q.GetAttribute())
		if !ok || attr.Type != TypeDatetime {
			out[i] = q
			continue
		}
		values := q.GetValues()
		normalized := make([]interface{}, len(values))
		for j, v := range values {
			normalized[j] = model.EncodeDatetime(v)
		}
		nq := q
		nq.SetValues(normalized)
		out[i] = nq
	}
	return out
}
