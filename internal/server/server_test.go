package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"vprintf/internal/config"
	"vprintf/internal/printf"
)

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	s, err := New(config.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s.NewEcho()
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	e := newTestEcho(t)
	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["status"] != "ok" || body["target"] != "nvptx64" {
		t.Fatalf("body = %v", body)
	}
	if _, err := uuid.Parse(rec.Header().Get(HeaderRequestID)); err != nil {
		t.Fatalf("request id: %v", err)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	e := newTestEcho(t)
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, id)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderRequestID); got != id {
		t.Fatalf("request id = %q, want %q", got, id)
	}
}

func TestCheck(t *testing.T) {
	e := newTestEcho(t)
	tests := []struct {
		name     string
		body     string
		ok       bool
		types    []printf.WireType
		code     string
		sugg     string
		warnings int
	}{
		{name: "simple", body: `{"format":"x=%d %s\n"}`, ok: true, types: []printf.WireType{printf.I32, printf.StrPtr}},
		{name: "explicit args", body: `{"format":"%f","args":1}`, ok: true, types: []printf.WireType{printf.F64}},
		{name: "long", body: `{"format":"%ld"}`, code: "FMT1005", sugg: "%lld"},
		{name: "arity", body: `{"format":"%d","args":2}`, code: "FMT1101"},
		{name: "ended early", body: `{"format":"abc %"}`, code: "FMT1002"},
		{name: "too many", body: `{"format":"` + strings.Repeat("%d", 33) + `"}`, ok: true, warnings: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, e, http.MethodPost, "/v1/check", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			resp := decodeBody[CheckResponse](t, rec)
			if resp.OK != tt.ok {
				t.Fatalf("ok = %v: %+v", resp.OK, resp)
			}
			if len(resp.Warnings) != tt.warnings {
				t.Fatalf("warnings = %v", resp.Warnings)
			}
			if tt.types != nil {
				if len(resp.Types) != len(tt.types) {
					t.Fatalf("types = %v", resp.Types)
				}
				for i := range tt.types {
					if resp.Types[i] != tt.types[i] {
						t.Fatalf("types[%d] = %v, want %v", i, resp.Types[i], tt.types[i])
					}
				}
			}
			if tt.code == "" {
				if resp.Error != nil {
					t.Fatalf("unexpected error %+v", resp.Error)
				}
				return
			}
			if resp.Error == nil || resp.Error.Code != tt.code {
				t.Fatalf("error = %+v, want %s", resp.Error, tt.code)
			}
			if resp.Error.Suggestion != tt.sugg {
				t.Fatalf("suggestion = %q, want %q", resp.Error.Suggestion, tt.sugg)
			}
		})
	}
}

func TestCheckWireTypesAreNamed(t *testing.T) {
	e := newTestEcho(t)
	rec := doJSON(t, e, http.MethodPost, "/v1/check", `{"format":"%s %p"}`)
	if !strings.Contains(rec.Body.String(), `"types":["char*","void*"]`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestCheckRejectsBadBodies(t *testing.T) {
	e := newTestEcho(t)
	for _, body := range []string{"", "{", `{"format":"%d","bogus":1}`, `{"format":"%d","args":-1}`} {
		rec := doJSON(t, e, http.MethodPost, "/v1/check", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d", body, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "invalid_request_error") {
			t.Fatalf("body %q: %s", body, rec.Body.String())
		}
	}
}

func TestLayout(t *testing.T) {
	e := newTestEcho(t)
	rec := doJSON(t, e, http.MethodPost, "/v1/layout", `{"format":"%d %s %f"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[LayoutResponse](t, rec)
	if resp.Target != "nvptx64-nvidia-cuda" {
		t.Fatalf("target = %q", resp.Target)
	}
	offs := resp.Layout.Offsets()
	if len(offs) != 3 || offs[0] != 0 || offs[1] != 8 || offs[2] != 16 {
		t.Fatalf("offsets = %v", offs)
	}
	if resp.Layout.Size != 24 || resp.Layout.Align != 8 {
		t.Fatalf("size/align = %d/%d", resp.Layout.Size, resp.Layout.Align)
	}
	if !strings.Contains(resp.CDecl, "struct vprintf_args {") {
		t.Fatalf("cdecl = %q", resp.CDecl)
	}
}

func TestLayoutI386(t *testing.T) {
	e := newTestEcho(t)
	rec := doJSON(t, e, http.MethodPost, "/v1/layout", `{"format":"%d %f","target":"i386"}`)
	resp := decodeBody[LayoutResponse](t, rec)
	offs := resp.Layout.Offsets()
	if len(offs) != 2 || offs[1] != 4 || resp.Layout.Size != 12 {
		t.Fatalf("layout = %+v", resp.Layout)
	}
}

func TestLayoutErrors(t *testing.T) {
	e := newTestEcho(t)
	rec := doJSON(t, e, http.MethodPost, "/v1/layout", `{"format":"%d","target":"sparc"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown target: status = %d", rec.Code)
	}
	rec = doJSON(t, e, http.MethodPost, "/v1/layout", `{"format":"%hhd"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad format: status = %d", rec.Code)
	}
	resp := decodeBody[CheckResponse](t, rec)
	if resp.Error == nil || resp.Error.Code != "FMT1001" {
		t.Fatalf("error = %+v", resp.Error)
	}
}

func TestExpand(t *testing.T) {
	e := newTestEcho(t)
	src := "//go:build vprintf\n\npackage kern\n\nimport \"vprintf/devrt\"\n\nfunc F(x int) {\n\tdevrt.Printf(\"%d\\n\", x)\n}\n"
	body, err := json.Marshal(ExpandRequest{Filename: "kern.go", Source: src})
	if err != nil {
		t.Fatal(err)
	}
	rec := doJSON(t, e, http.MethodPost, "/v1/expand", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeBody[ExpandResponse](t, rec)
	if !resp.OK || resp.Calls != 1 || resp.Diagnostics.Count != 0 {
		t.Fatalf("resp = %+v", resp)
	}
	if !strings.Contains(resp.Output, "devrt.Vprintf(") || !strings.Contains(resp.Output, "//go:build !vprintf") {
		t.Fatalf("output:\n%s", resp.Output)
	}
}

func TestExpandReportsDiagnostics(t *testing.T) {
	e := newTestEcho(t)
	src := "//go:build vprintf\n\npackage kern\n\nimport \"vprintf/devrt\"\n\nfunc F(x int) {\n\tdevrt.Printf(\"%ld\\n\", x)\n}\n"
	body, _ := json.Marshal(ExpandRequest{Source: src})
	rec := doJSON(t, e, http.MethodPost, "/v1/expand", string(body))
	resp := decodeBody[ExpandResponse](t, rec)
	if resp.OK || resp.Output != "" || resp.Diagnostics.Count != 1 {
		t.Fatalf("resp = %+v", resp)
	}
	d := resp.Diagnostics.Diagnostics[0]
	if d.Code != "FMT1005" || d.Location.File != "input.go" || d.Location.StartLine != 8 {
		t.Fatalf("diag = %+v", d)
	}
	if len(d.Fixes) != 1 {
		t.Fatalf("fixes = %+v", d.Fixes)
	}
}
