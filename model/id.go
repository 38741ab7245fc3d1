// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package model

import "github.com/google/uuid"

// UniqueID generates a new document or collection identifier. createDocument
// calls this whenever the caller did not stamp $id itself.
func UniqueID() string {
	return uuid.New().String()
}

// IsValidID reports whether id is a syntactically acceptable identifier: a
// non-empty string no longer than the adapter key length limit.
func IsValidID(id string) bool {
	return id != "" && len(id) <= KeyLengthLimit
}

// KeyLengthLimit is the maximum length of an attribute, index or document
// identifier, bit-exact per the external interface contract.
const KeyLengthLimit = 255
