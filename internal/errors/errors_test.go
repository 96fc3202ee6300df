package errors

import (
	"fmt"
	"testing"
)

func TestCovError_Error(t *testing.T) {
	err := &CovError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "test case not found",
	}

	expected := "NOT_FOUND: test case not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("root is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "root is required" {
		t.Errorf("Message = %q, want %q", err.Message, "root is required")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("test case", "42")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["identifier"] != "42" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "42")
	}
	if err.Message != "test case not found: 42" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewFileNotFound(t *testing.T) {
	err := NewFileNotFound("/tmp/project")

	if err.Code != ErrFileNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrFileNotFound)
	}
	if err.Details["path"] != "/tmp/project" {
		t.Errorf("Details[path] = %v", err.Details["path"])
	}
}

func TestNewInvalidSuite(t *testing.T) {
	err := NewInvalidSuite("Smoke", "static suite has a filter expression")

	if err.Code != ErrInvalidSuite {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidSuite)
	}
	if err.Status != 422 {
		t.Errorf("Status = %d, want 422", err.Status)
	}
	if err.Details["suite"] != "Smoke" {
		t.Errorf("Details[suite] = %v, want Smoke", err.Details["suite"])
	}
}

func TestNewCancelled(t *testing.T) {
	err := NewCancelled("ingest")

	if err.Code != ErrCancelled {
		t.Errorf("Code = %q, want %q", err.Code, ErrCancelled)
	}
	if err.Message != "ingest cancelled" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewInternal(t *testing.T) {
	err := NewInternal(fmt.Errorf("disk full"))
	if err.Message != "disk full" {
		t.Errorf("Message = %q, want %q", err.Message, "disk full")
	}

	err = NewInternal(nil)
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want %q", err.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	if !Is(NewInvalidSuite("s", "r"), ErrInvalidSuite) {
		t.Error("Is() = false for matching code")
	}
	if Is(NewInvalidSuite("s", "r"), ErrNotFound) {
		t.Error("Is() = true for different code")
	}
	if Is(fmt.Errorf("plain"), ErrInternal) {
		t.Error("Is() = true for non-CovError")
	}
}
