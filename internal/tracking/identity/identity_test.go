package identity

import (
	"strings"
	"testing"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer("US", nil)
}

func TestNormalize_EmailCaseAndWhitespaceInsensitive(t *testing.T) {
	n := newTestNormalizer()

	a := n.Normalize(Identity{LeadID: "L1", Email: "User@Example.COM"})
	b := n.Normalize(Identity{LeadID: "L1", Email: "  user@example.com  "})

	if a == nil || b == nil {
		t.Fatal("expected bundles for both inputs")
	}
	if a.Em != b.Em {
		t.Fatalf("expected equal digests, got %q vs %q", a.Em, b.Em)
	}
	if !IsDigest(a.Em) {
		t.Fatalf("expected digest shape, got %q", a.Em)
	}
}

func TestNormalize_RehashIsIdempotent(t *testing.T) {
	n := newTestNormalizer()

	first := n.Normalize(Identity{LeadID: "L1", Email: "user@example.com"})
	if first == nil {
		t.Fatal("expected bundle")
	}

	// Feed the digest back through as if identity flowed twice in a session.
	second := n.Normalize(Identity{LeadID: "L1", Email: first.Em})
	if second == nil {
		t.Fatal("expected bundle on second pass")
	}
	if second.Em != first.Em {
		t.Fatalf("digest was re-hashed: %q vs %q", second.Em, first.Em)
	}
}

func TestNormalize_EmailDigestDuplicatedForBothConsumers(t *testing.T) {
	n := newTestNormalizer()

	b := n.Normalize(Identity{LeadID: "L1", Email: "user@example.com"})
	if b == nil {
		t.Fatal("expected bundle")
	}
	if b.HashedEmail != b.Em || b.ExternalID != b.Em {
		t.Fatalf("expected duplicate email keys to match: em=%q hashed_email=%q external_id=%q", b.Em, b.HashedEmail, b.ExternalID)
	}
}

func TestNormalize_PhoneCanonicalizedBeforeHashing(t *testing.T) {
	n := newTestNormalizer()

	a := n.Normalize(Identity{LeadID: "L1", Phone: "(202) 555-0143"})
	b := n.Normalize(Identity{LeadID: "L1", Phone: "+1 202 555 0143"})

	if a == nil || b == nil {
		t.Fatal("expected bundles for both phone formats")
	}
	if a.Ph == "" || a.Ph != b.Ph {
		t.Fatalf("expected identical digests for equivalent numbers, got %q vs %q", a.Ph, b.Ph)
	}
}

func TestNormalize_UnparseablePhoneDropped(t *testing.T) {
	n := newTestNormalizer()

	b := n.Normalize(Identity{LeadID: "L1", Phone: "not a phone", Email: "user@example.com"})
	if b == nil {
		t.Fatal("expected bundle from email")
	}
	if b.Ph != "" {
		t.Fatalf("expected malformed phone to be dropped, got %q", b.Ph)
	}
}

func TestNormalize_EmptyIdentityYieldsNilBundle(t *testing.T) {
	n := newTestNormalizer()

	if b := n.Normalize(Identity{LeadID: "L1"}); b != nil {
		t.Fatalf("expected nil bundle, got %+v", b)
	}
	if b := n.Normalize(Identity{LeadID: "L1", Phone: "garbage"}); b != nil {
		t.Fatalf("expected nil bundle when only field is dropped, got %+v", b)
	}
}

func TestIsDigest(t *testing.T) {
	valid := strings.Repeat("ab12", 16)
	tests := []struct {
		in   string
		want bool
	}{
		{valid, true},
		{strings.Repeat("AB12", 16), false}, // uppercase hex is not produced
		{valid[:63], false},
		{valid + "0", false},
		{strings.Repeat("zz12", 16), false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsDigest(tt.in); got != tt.want {
			t.Errorf("IsDigest(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
