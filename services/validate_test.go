package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAndValidateRejectsBadJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/sessions", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	var dst CreateSessionRequest
	ok := decodeAndValidate(rec, req, &dst)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecodeAndValidateFieldErrors(t *testing.T) {
	body := `{"interview_type":"poetry","difficulty":9}`
	req := httptest.NewRequest("POST", "/sessions", strings.NewReader(body))
	rec := httptest.NewRecorder()

	var dst CreateSessionRequest
	ok := decodeAndValidate(rec, req, &dst)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Validation failed", resp.Error)

	rules := make(map[string]string)
	for _, fe := range resp.Fields {
		rules[fe.Field] = fe.Rule
	}
	assert.Equal(t, "oneof", rules["InterviewType"])
	assert.Equal(t, "max", rules["Difficulty"])
}

func TestDecodeAndValidateAccepts(t *testing.T) {
	body := `{"interview_type":"technical","difficulty":3}`
	req := httptest.NewRequest("POST", "/sessions", strings.NewReader(body))
	rec := httptest.NewRecorder()

	var dst CreateSessionRequest
	ok := decodeAndValidate(rec, req, &dst)

	assert.True(t, ok)
	assert.Equal(t, "technical", dst.InterviewType)
	assert.Equal(t, 3, dst.Difficulty)
}
