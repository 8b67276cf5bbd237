package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/inkwell/internal/service/types"
)

func newTestContext(t *testing.T, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	return body
}

func fieldErrors(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no data object: %v", body)
	}
	fields, ok := data["errors"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no field errors: %v", data)
	}
	return fields
}

func TestErrorResponseValidationFields(t *testing.T) {
	c, w := newTestContext(t, "")

	errorResponse(c, types.NewValidationError("title", "must be a non-empty string"))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	fields := fieldErrors(t, decodeBody(t, w))
	if fields["title"] != "must be a non-empty string" {
		t.Errorf("missing field-level error for title: %v", fields)
	}
}

func TestBadRequestBindingFields(t *testing.T) {
	c, w := newTestContext(t, `{"content":"body"}`)

	var req struct {
		Title   string `json:"title" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	err := c.ShouldBindJSON(&req)
	if err == nil {
		t.Fatal("expected binding error")
	}
	badRequest(c, err)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	fields := fieldErrors(t, decodeBody(t, w))
	if _, ok := fields["title"]; !ok {
		t.Errorf("missing field-level error for title: %v", fields)
	}
	if _, ok := fields["content"]; ok {
		t.Errorf("content was valid, must not be reported: %v", fields)
	}
}

func TestBadRequestMalformedJSON(t *testing.T) {
	c, w := newTestContext(t, `{not json`)

	var req struct {
		Title string `json:"title" binding:"required"`
	}
	err := c.ShouldBindJSON(&req)
	if err == nil {
		t.Fatal("expected binding error")
	}
	badRequest(c, err)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
