package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func serveWithRole(t *testing.T, mw func(http.Handler) http.Handler, role string) int {
	t.Helper()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest("GET", "/", nil)
	if role != "" {
		req = req.WithContext(WithRole(req.Context(), role))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestRequire(t *testing.T) {
	mw := Require("session:run")

	if code := serveWithRole(t, mw, "member"); code != http.StatusOK {
		t.Fatalf("member running a session: want 200, got %d", code)
	}
	if code := serveWithRole(t, mw, "admin"); code != http.StatusOK {
		t.Fatalf("admin wildcard: want 200, got %d", code)
	}
	if code := serveWithRole(t, mw, "ghost"); code != http.StatusForbidden {
		t.Fatalf("unknown role: want 403, got %d", code)
	}
	if code := serveWithRole(t, mw, ""); code != http.StatusForbidden {
		t.Fatalf("no role in context: want 403, got %d", code)
	}
}

func TestRequireAny(t *testing.T) {
	mw := RequireAny("forum:read", "forum:write")

	if code := serveWithRole(t, mw, "member"); code != http.StatusOK {
		t.Fatalf("member with both grants: want 200, got %d", code)
	}
	if code := serveWithRole(t, mw, "ghost"); code != http.StatusForbidden {
		t.Fatalf("role with neither grant: want 403, got %d", code)
	}
}
