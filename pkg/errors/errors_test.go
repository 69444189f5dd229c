package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := Wrap(CodeDependency, cause, "load product")

	if err.Unwrap() != cause {
		t.Fatalf("expected cause to be preserved")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
	if got := err.Error(); got != "DEPENDENCY_ERROR: load product" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestAsThroughWrapping(t *testing.T) {
	inner := New(CodeInsufficientStock, "product short").WithDetails(map[string]any{"product_id": "x"})
	wrapped := fmt.Errorf("settle: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeInsufficientStock {
		t.Fatalf("unexpected code %s", typed.Code())
	}
	if !HasCode(wrapped, CodeInsufficientStock) {
		t.Fatal("HasCode should match through wrapping")
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", meta.HTTPStatus)
	}
}

func TestCommissionChainIsAlertWorthy(t *testing.T) {
	meta := MetadataFor(CodeCommissionChain)
	if !meta.AlertWorthy {
		t.Fatal("commission chain faults must be alert-worthy")
	}
	if meta.Retryable {
		t.Fatal("commission chain faults are not retryable")
	}
}
