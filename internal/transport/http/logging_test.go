package http

import (
	"testing"
)

func TestRedactURI(t *testing.T) {
	cases := map[string]string{
		"/api/v1/auth/password/reset/AbC123":  "/api/v1/auth/password/reset/redacted",
		"/api/v1/auth/password/reset/AbC?x=1": "/api/v1/auth/password/reset/redacted?x=1",
		"/reset-password?token=AbC123":        "/reset-password?token=redacted",
		"/api/v1/tasks?status=new&limit=10":   "/api/v1/tasks?limit=10&status=new",
		"/api/v1/tasks":                       "/api/v1/tasks",
	}
	for in, want := range cases {
		if got := redactURI(in); got != want {
			t.Fatalf("redactURI(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeBodyRedactsSecrets(t *testing.T) {
	body := []byte(`{"email":"a@x.com","token":"AbC123","new_password":"secret22","nested":{"confirm_password":"secret22"}}`)
	summary, ok := sanitizeBody(body, "application/json").(map[string]any)
	if !ok {
		t.Fatalf("expected map summary, got %T", summary)
	}
	if summary["email"] != "a@x.com" {
		t.Fatalf("email should be kept, got %v", summary["email"])
	}
	for _, key := range []string{"token", "new_password"} {
		if summary[key] != redacted {
			t.Fatalf("%s not redacted: %v", key, summary[key])
		}
	}
	nested := summary["nested"].(map[string]any)
	if nested["confirm_password"] != redacted {
		t.Fatalf("nested password not redacted: %v", nested)
	}
}

func TestSanitizeBodyForms(t *testing.T) {
	summary, ok := sanitizeBody([]byte("email=a%40x.com&password=secret1"), "application/x-www-form-urlencoded").(map[string]any)
	if !ok {
		t.Fatalf("expected map summary")
	}
	if summary["password"] != redacted || summary["email"] != "a@x.com" {
		t.Fatalf("unexpected form summary %v", summary)
	}
	if got := sanitizeBody([]byte{0xff, 0xfe, 0x00}, "application/octet-stream"); got != "binary" {
		t.Fatalf("expected binary, got %v", got)
	}
	if got := sanitizeBody(nil, "application/json"); got != nil {
		t.Fatalf("expected nil for empty body, got %v", got)
	}
}
