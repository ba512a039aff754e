package account

import (
	"context"
	"testing"

	"github.com/chromabet/backend/internal/ledger/memory"
)

func TestEnsure_CreatesOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := New(memory.New(), "demo_user")

	user, err := svc.Ensure(ctx, 1250_00)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if user.Username != "demo_user" || user.Balance != 1250_00 {
		t.Fatalf("created user mismatch: %+v", user)
	}
	if !user.TermsAccepted || user.TermsAcceptedAt == nil {
		t.Fatalf("demo user should have terms pre-accepted: %+v", user)
	}

	// Second call returns the existing user untouched, ignoring the balance.
	again, err := svc.Ensure(ctx, 9999_00)
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if again.ID != user.ID || again.Balance != 1250_00 {
		t.Fatalf("ensure recreated or mutated the user: %+v", again)
	}
}

func TestDemo_AndAcceptTerms(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := New(memory.New(), "demo_user")

	if _, err := svc.Demo(ctx); err == nil {
		t.Fatal("demo before ensure should fail")
	}

	if _, err := svc.Ensure(ctx, 100_00); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	user, err := svc.Demo(ctx)
	if err != nil {
		t.Fatalf("demo: %v", err)
	}

	before := *user.TermsAcceptedAt

	updated, err := svc.AcceptTerms(ctx)
	if err != nil {
		t.Fatalf("accept terms: %v", err)
	}
	if !updated.TermsAccepted || updated.TermsAcceptedAt == nil {
		t.Fatalf("terms not accepted: %+v", updated)
	}
	if updated.TermsAcceptedAt.Before(before) {
		t.Fatalf("accepted-at went backwards: %v < %v", updated.TermsAcceptedAt, before)
	}
}
