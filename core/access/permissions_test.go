// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package access

import "testing"

func TestIsValid_Any(t *testing.T) {
	if !IsValid([]string{"any"}, nil) {
		t.Fatal("any must grant access to an anonymous identity")
	}
}

func TestIsValid_User(t *testing.T) {
	alice := &Identity{Subject: "alice"}
	bob := &Identity{Subject: "bob"}
	tokens := []string{"user:alice"}

	if !IsValid(tokens, alice) {
		t.Fatal("alice should be granted access")
	}
	if IsValid(tokens, bob) {
		t.Fatal("bob should not be granted access")
	}
}

func TestIsValid_Role(t *testing.T) {
	member := &Identity{Subject: "carol", Roles: []string{"member"}}
	guest := &Identity{Subject: "dave"}

	tokens := []string{"role:member"}
	if !IsValid(tokens, member) {
		t.Fatal("member role should be granted access")
	}
	if IsValid(tokens, guest) {
		t.Fatal("guest should not be granted access")
	}

	// bare role token is shorthand for "role:<name>"
	if !IsValid([]string{"member"}, member) {
		t.Fatal("bare role token should behave like role: prefix")
	}
}

func TestIsValid_EmptySet(t *testing.T) {
	admin := &Identity{Subject: "root", Roles: []string{"admin"}}
	if IsValid(nil, admin) {
		t.Fatal("an empty permission set must deny everyone, including an admin-role identity")
	}
}

func TestScopedCounter(t *testing.T) {
	var c ScopedCounter
	if c.Active() {
		t.Fatal("fresh counter must not be active")
	}
	leave := c.Enter()
	if !c.Active() {
		t.Fatal("counter must be active once entered")
	}

	leave2 := c.Enter()
	if !c.Active() {
		t.Fatal("nested Enter must keep the counter active")
	}
	leave2()
	if !c.Active() {
		t.Fatal("counter must still be active after only one of two nested scopes left")
	}
	leave()
	if c.Active() {
		t.Fatal("counter must not be active after both scopes left")
	}
}

func TestScopedCounterWithRestoresOnPanic(t *testing.T) {
	var c ScopedCounter
	func() {
		defer func() { recover() }()
		c.With(func() error {
			panic("boom")
		})
	}()
	if c.Active() {
		t.Fatal("counter must be restored even when the guarded function panics")
	}
}
