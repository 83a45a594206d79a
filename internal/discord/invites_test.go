package discord

import "testing"

func TestInviteCache_ResolveUseIncrease(t *testing.T) {
	c := NewInviteCache()
	c.Replace([]InviteObservation{
		{Code: "aaa", Uses: 3, InviterID: "u1", InviterName: "Alice"},
		{Code: "bbb", Uses: 7, InviterID: "u2", InviterName: "Bob"},
	})
	if c.Len() != 2 {
		t.Fatalf("Len = %d", c.Len())
	}

	attr := c.Resolve([]InviteObservation{
		{Code: "aaa", Uses: 3, InviterID: "u1", InviterName: "Alice"},
		{Code: "bbb", Uses: 8, InviterID: "u2", InviterName: "Bob"},
	})
	if attr == nil || attr.Code != "bbb" || attr.InviterID != "u2" {
		t.Fatalf("unexpected attribution: %+v", attr)
	}
}

func TestInviteCache_ResolveNewInvite(t *testing.T) {
	c := NewInviteCache()
	c.Replace([]InviteObservation{{Code: "aaa", Uses: 3, InviterID: "u1"}})

	// A code with no cached counterpart counts as its first use.
	attr := c.Resolve([]InviteObservation{
		{Code: "aaa", Uses: 3, InviterID: "u1"},
		{Code: "fresh", Uses: 1, InviterID: "u3", InviterName: "Cara"},
	})
	if attr == nil || attr.Code != "fresh" || attr.InviterName != "Cara" {
		t.Fatalf("unexpected attribution: %+v", attr)
	}
}

func TestInviteCache_ResolveFirstMatchWins(t *testing.T) {
	c := NewInviteCache()
	c.Replace([]InviteObservation{
		{Code: "aaa", Uses: 1},
		{Code: "bbb", Uses: 1},
	})

	// Both increased; listing order decides, not delta size.
	attr := c.Resolve([]InviteObservation{
		{Code: "aaa", Uses: 2, InviterID: "u1"},
		{Code: "bbb", Uses: 5, InviterID: "u2"},
	})
	if attr == nil || attr.Code != "aaa" {
		t.Fatalf("expected first listed invite, got %+v", attr)
	}
}

func TestInviteCache_ResolveNoIncrease(t *testing.T) {
	c := NewInviteCache()
	snapshot := []InviteObservation{
		{Code: "aaa", Uses: 3, InviterID: "u1"},
		{Code: "bbb", Uses: 7, InviterID: "u2"},
	}
	c.Replace(snapshot)

	if attr := c.Resolve(snapshot); attr != nil {
		t.Fatalf("expected nil for vanity/direct join, got %+v", attr)
	}
	// A revoked invite disappearing is not an increase either.
	if attr := c.Resolve(snapshot[:1]); attr != nil {
		t.Fatalf("expected nil after invite revocation, got %+v", attr)
	}
}

func TestInviteCache_ResolveDoesNotMutate(t *testing.T) {
	c := NewInviteCache()
	c.Replace([]InviteObservation{{Code: "aaa", Uses: 1, InviterID: "u1"}})
	fresh := []InviteObservation{{Code: "aaa", Uses: 2, InviterID: "u1"}}

	first := c.Resolve(fresh)
	second := c.Resolve(fresh)
	if first == nil || second == nil || first.Code != second.Code {
		t.Fatalf("Resolve must not consume the cache: first=%+v second=%+v", first, second)
	}

	c.Replace(fresh)
	if attr := c.Resolve(fresh); attr != nil {
		t.Fatalf("expected nil after Replace, got %+v", attr)
	}
}
