package admin

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOkWritesStatusAndData(t *testing.T) {
	rr := httptest.NewRecorder()
	ok(rr, map[string]string{"foo": "bar"})

	assert.Equal(t, 200, rr.Code)
	var resp Response
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestNotFoundWritesErrorStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	notFound(rr, "participant")

	assert.Equal(t, 404, rr.Code)
	var resp Response
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "participant")
}
