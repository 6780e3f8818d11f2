package webutil

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestMakeHandler(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantMessage string
	}{
		{"http error", ErrForbiddenWrap("Unauthorized.", errors.New("not owner")), http.StatusForbidden, "Unauthorized."},
		{"default message", ErrBadRequestWrap("", errors.New("x")), http.StatusBadRequest, msgBadRequest},
		{"no rows", fmt.Errorf("load: %w", sql.ErrNoRows), http.StatusNotFound, msgNotFound},
		{"other", errors.New("boom"), http.StatusInternalServerError, msgInternalServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := MakeHandler(func(w http.ResponseWriter, r *http.Request) error { return tt.err })
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if ct := rec.Header().Get(HeaderContentType); ct != ContentTypeJSONUTF8 {
				t.Errorf("content type = %q", ct)
			}
			body := decodeError(t, rec)
			if body.Success || body.Message != tt.wantMessage {
				t.Errorf("body = %+v", body)
			}
			if body.Error != "" {
				t.Errorf("error detail leaked outside development mode: %q", body.Error)
			}
		})
	}
}

func TestMakeHandlerDevelopmentMode(t *testing.T) {
	SetDevelopmentMode(true)
	defer SetDevelopmentMode(false)

	h := MakeHandler(func(w http.ResponseWriter, r *http.Request) error {
		return ErrInternalServerWrap("Unable to export PDF.", errors.New("font missing"))
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := decodeError(t, rec)
	if body.Message != "Unable to export PDF." || body.Error != "font missing" {
		t.Errorf("body = %+v", body)
	}
}

func TestMakeHandlerAbortsStartedResponse(t *testing.T) {
	h := MakeHandler(func(w http.ResponseWriter, r *http.Request) error {
		_, _ = w.Write([]byte("partial"))
		return fmt.Errorf("%w: disk gone", ErrResponseStarted)
	})
	defer func() {
		if v := recover(); v != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", v)
		}
	}()
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	t.Error("handler did not abort")
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"My Guide: Part 1!": "My_Guide__Part_1_",
		"plain":             "plain",
		"Café":              "Caf_",
		"":                  "",
	}
	for in, want := range tests {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResponseSink(t *testing.T) {
	rec := httptest.NewRecorder()
	sink := NewResponseSink(rec)
	sink.Prepare("My_Guide.pdf", "application/pdf")
	if sink.Started() {
		t.Fatal("started before first write")
	}
	if _, err := sink.Write([]byte("%PDF-1.3")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !sink.Started() {
		t.Error("not started after write")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("code = %d", rec.Code)
	}
	if got := rec.Header().Get(HeaderContentType); got != "application/pdf" {
		t.Errorf("content type = %q", got)
	}
	if got := rec.Header().Get(HeaderContentDisposition); got != `attachment; filename="My_Guide.pdf"` {
		t.Errorf("content disposition = %q", got)
	}
	if !rec.Flushed {
		t.Error("response not flushed")
	}
}
