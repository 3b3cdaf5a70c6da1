package service

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/clinicportal/portal-auth/internal/core/domain"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	digest, err := h.Hash("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if digest == "s3cret-pass" {
		t.Fatalf("expected digest, got plaintext")
	}
	if !h.Verify("s3cret-pass", digest) {
		t.Fatalf("expected match")
	}
	if h.Verify("other", digest) {
		t.Fatalf("expected mismatch")
	}
	if h.Verify("s3cret-pass", "s3cret-pass") {
		t.Fatalf("plaintext stored value must never verify")
	}
	if _, err := h.Hash(""); err == nil {
		t.Fatalf("expected error for empty password")
	}
}

func TestNewBcryptHasher_CostFallback(t *testing.T) {
	if h := NewBcryptHasher(99); h.cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", h.cost)
	}
}

func TestBcryptHasher_OverlongPasswordIsValidationError(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	if _, err := h.Hash(strings.Repeat("x", 73)); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
