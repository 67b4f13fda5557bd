// Package identity canonicalizes and one-way-hashes personally identifying
// fields into a privacy-safe bundle. Raw PII never leaves this package;
// every emitted field is a SHA-256 hex digest.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/Rollnz/window-man-truth-engine-sub000/platform/logger"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/phone"
)

// Identity holds the caller-supplied identity facts for a lead.
// LeadID is opaque and caller-generated; it is required on every
// conversion event and is never hashed.
type Identity struct {
	LeadID    string `json:"leadId"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	ZipCode   string `json:"zipCode,omitempty"`
}

// Bundle is the hashed output of normalization. The email digest is exposed
// twice (Em and HashedEmail) because the two downstream consumers expect
// different field names for the same value.
type Bundle struct {
	Em          string `json:"em,omitempty"`
	HashedEmail string `json:"hashed_email,omitempty"`
	Ph          string `json:"ph,omitempty"`
	Fn          string `json:"fn,omitempty"`
	Ln          string `json:"ln,omitempty"`
	Ct          string `json:"ct,omitempty"`
	St          string `json:"st,omitempty"`
	Zp          string `json:"zp,omitempty"`
	ExternalID  string `json:"external_id,omitempty"`
}

// IsEmpty reports whether no field produced a digest.
func (b *Bundle) IsEmpty() bool {
	if b == nil {
		return true
	}
	return b.Em == "" && b.Ph == "" && b.Fn == "" && b.Ln == "" &&
		b.Ct == "" && b.St == "" && b.Zp == ""
}

// Normalizer builds hashed identity bundles.
type Normalizer struct {
	region string
	log    *logger.Logger
}

// NewNormalizer creates a Normalizer. region is the default phone region
// used when a number carries no country prefix.
func NewNormalizer(region string, log *logger.Logger) *Normalizer {
	return &Normalizer{region: region, log: log}
}

// Normalize canonicalizes and hashes every present PII field.
// Returns nil when no field survives normalization, in which case the
// envelope omits user_data entirely. Never returns an error: empty or
// unparseable inputs drop the field, nothing more.
func (n *Normalizer) Normalize(id Identity) *Bundle {
	b := &Bundle{
		Em: n.digestText("email", id.Email),
		Fn: n.digestText("first_name", id.FirstName),
		Ln: n.digestText("last_name", id.LastName),
		Ct: n.digestText("city", id.City),
		St: n.digestText("state", id.State),
		Zp: n.digestText("zip", id.ZipCode),
	}

	b.Ph = n.digestPhone(id.Phone)

	// Duplicate keys for the two downstream consumers.
	b.HashedEmail = b.Em
	b.ExternalID = b.Em

	if b.IsEmpty() {
		return nil
	}
	return b
}

// digestText lowercases and trims the value, then hashes it. Values that
// already match the shape of a produced digest pass through unchanged, so
// identity data can flow through the pipeline more than once per session
// without being double-hashed.
func (n *Normalizer) digestText(field, value string) string {
	canon := strings.ToLower(strings.TrimSpace(value))
	if canon == "" {
		return ""
	}
	if IsDigest(canon) {
		return canon
	}
	return digest(canon)
}

func (n *Normalizer) digestPhone(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if IsDigest(strings.ToLower(trimmed)) {
		return strings.ToLower(trimmed)
	}

	e164, ok := phone.NormalizeE164(trimmed, n.region)
	if !ok {
		// Dropped, not hashed. A malformed number hashed as-is would
		// never match the ad platform's records.
		if n.log != nil {
			n.log.IdentityHashDropped("phone", "unparseable")
		}
		return ""
	}
	return digest(e164)
}

// IsDigest reports whether s already matches the shape of a produced
// digest: 64 lowercase hex characters. This is a shape heuristic and is
// knowingly ambiguous; a real value of that exact shape is treated as
// pre-hashed.
func IsDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
