// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package database

import "strings"

func equalFold(a, b string) bool {
	return strings.EqualFold(a, b)
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if equalFold(item, s) {
			return true
		}
	}
	return false
}
