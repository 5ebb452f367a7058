package operation

import (
	"encoding/json"
	"net/http"
	"testing"

	"gotest.tools/assert"
)

func TestHTTPMethodDefaultsToPost(t *testing.T) {
	op := &Operation{Title: "bare"}
	assert.Equal(t, op.HTTPMethod(), http.MethodPost)

	op.Method = http.MethodPut
	assert.Equal(t, op.HTTPMethod(), http.MethodPut)
}

func TestTypeToPayload(t *testing.T) {
	payload, err := TypeToPayload("upsertLoadBalancer", map[string]string{"name": "lb"})
	assert.NilError(t, err)
	assert.Equal(t, string(payload), `[{"upsertLoadBalancer":{"name":"lb"}}]`)
}

func TestJobPayload(t *testing.T) {
	payload, err := JobPayload([]string{"step"}, "do the thing", "myapp")
	assert.NilError(t, err)

	var decoded map[string]interface{}
	assert.NilError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, decoded["description"], "do the thing")
	assert.Equal(t, decoded["application"], "myapp")
	assert.Check(t, decoded["job"] != nil)
}

func TestCreateApplication(t *testing.T) {
	op, err := CreateApplication("my-account", "myapp", "dev@example.com", "")
	assert.NilError(t, err)
	assert.Equal(t, op.Path, "applications/myapp/tasks")
	assert.Equal(t, op.HTTPMethod(), http.MethodPost)

	var decoded struct {
		Job []map[string]interface{} `json:"job"`
	}
	assert.NilError(t, json.Unmarshal(op.Payload, &decoded))
	assert.Equal(t, len(decoded.Job), 1)
	assert.Equal(t, decoded.Job[0]["type"], "createApplication")
	assert.Equal(t, decoded.Job[0]["account"], "my-account")
}

func TestDeleteApplication(t *testing.T) {
	op, err := DeleteApplication("my-account", "myapp")
	assert.NilError(t, err)
	assert.Equal(t, op.Path, "applications/myapp/tasks")

	var decoded struct {
		Job []map[string]interface{} `json:"job"`
	}
	assert.NilError(t, json.Unmarshal(op.Payload, &decoded))
	assert.Equal(t, decoded.Job[0]["type"], "deleteApplication")
}
