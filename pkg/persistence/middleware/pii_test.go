package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/recoma/pkg/adapters/memory"
	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/persistence/middleware"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlyingStore := memory.NewStore()
	// Mask keys containing "password" or "ssn"
	mw, err := middleware.NewPIIMiddleware([]string{"password", "ssn"})
	if err != nil {
		t.Fatal(err)
	}
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	res := &domain.Result{
		Task: &domain.Task{ID: "pii", Question: "Q", Extra: map[string]any{
			"username":      "jdoe",
			"user_password": "secret123",
			"details": map[string]any{
				"address":    "123 St",
				"ssn_number": "999-99-9999",
			},
			"safe_data": "public",
		}},
		Outcome: domain.OutcomeSolved,
	}

	if err := secureStore.Save(ctx, res); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The caller's result is not modified.
	if res.Task.Extra["user_password"] != "secret123" {
		t.Error("Middleware modified original result in memory!")
	}

	stored, err := underlyingStore.Load(ctx, "pii")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	extra := stored.Task.Extra
	if extra["username"] != "jdoe" {
		t.Error("Username shouldn't be masked")
	}
	if extra["user_password"] != middleware.Mask {
		t.Errorf("Password should be masked, got: %v", extra["user_password"])
	}
	details := extra["details"].(map[string]any)
	if details["ssn_number"] != middleware.Mask {
		t.Errorf("Nested SSN should be masked, got: %v", details["ssn_number"])
	}
	if details["address"] != "123 St" {
		t.Errorf("Address shouldn't be masked, got: %v", details["address"])
	}
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	if _, err := middleware.NewPIIMiddleware([]string{"("}); err == nil {
		t.Error("Expected error for invalid pattern")
	}
}

func TestChain(t *testing.T) {
	underlyingStore := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware([]string{"token"})
	if err != nil {
		t.Fatal(err)
	}
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	if err != nil {
		t.Fatal(err)
	}
	store := middleware.Chain(underlyingStore, pii, enc)

	ctx := context.Background()
	res := &domain.Result{Task: &domain.Task{ID: "c", Question: "Q", Extra: map[string]any{"token": "abc"}}}
	if err := store.Save(ctx, res); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.Load(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Task.Extra["token"] != middleware.Mask {
		t.Errorf("Expected token masked before encryption, got %v", loaded.Task.Extra["token"])
	}
}
