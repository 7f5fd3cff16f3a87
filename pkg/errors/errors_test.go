package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/mattn/go-sqlite3"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		exposed   bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "invalid input", exposed: true, detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "sign in required", exposed: true},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "your role does not allow this action", exposed: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "record not found", exposed: true},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "record already exists", exposed: true},
		{code: CodeIdempotency, status: http.StatusConflict, publicMsg: "idempotency key already used for a different request", exposed: true, detailsOK: true},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "current order or stock state does not allow this operation", exposed: true, detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "remote mirror unavailable; local data is unaffected", retryable: true, exposed: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.ExposeMessage != tt.exposed {
			t.Fatalf("code %s expected expose message %v got %v", tt.code, tt.exposed, meta.ExposeMessage)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
	if MetadataFor(CodeDependency).RetryAfter <= 0 {
		t.Fatalf("dependency errors should advertise a retry delay")
	}
}

func TestCodeOfAndRetryable(t *testing.T) {
	remote := fmt.Errorf("push: %w", Wrap(CodeDependency, stdErrors.New("dial tcp: refused"), "connect remote mirror"))
	if CodeOf(remote) != CodeDependency || !Retryable(remote) {
		t.Fatalf("expected retryable dependency error")
	}
	short := Newf(CodeStateConflict, "only %.1f kg left", 0.5)
	if CodeOf(short) != CodeStateConflict || Retryable(short) {
		t.Fatalf("state conflicts are not retryable")
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatalf("untyped errors map to internal")
	}
	if Retryable(nil) {
		t.Fatalf("nil is not retryable")
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsCodeFollowsWrappedChain(t *testing.T) {
	inner := Newf(CodeNotFound, "order %s not found", "o-1")
	if inner.Message() != "order o-1 not found" {
		t.Fatalf("unexpected formatted message %q", inner.Message())
	}
	outer := fmt.Errorf("loading order: %w", inner)
	if !IsCode(outer, CodeNotFound) {
		t.Fatalf("expected not found code through wrapping")
	}
	if IsCode(outer, CodeConflict) {
		t.Fatalf("unexpected conflict code")
	}
	if IsCode(stdErrors.New("plain"), CodeInternal) {
		t.Fatalf("plain errors carry no code")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := fmt.Errorf("push batch: %w", Wrap(CodeDependency, stdErrors.New("dial tcp: refused"), "remote upsert failed"))
	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", d.Code)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected 3 chain entries, got %d: %v", len(d.Chain), d.Chain)
	}
	if d.PGCode != "" {
		t.Fatalf("no postgres code expected, got %q", d.PGCode)
	}
}

func TestDumpExtractsSQLiteCodes(t *testing.T) {
	err := fmt.Errorf("insert lot: %w", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})
	d := Dump(err)
	if d.SQLiteCode != int(sqlite3.ErrConstraint) {
		t.Fatalf("expected sqlite constraint code, got %d", d.SQLiteCode)
	}
	if d.SQLiteExtended != int(sqlite3.ErrConstraintUnique) {
		t.Fatalf("expected unique extended code, got %d", d.SQLiteExtended)
	}
}
