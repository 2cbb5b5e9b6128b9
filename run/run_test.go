package run

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		status  Status
		valid   bool
		isFinal bool
	}{
		{StatusCreated, true, false},
		{StatusRunning, true, false},
		{StatusSuccess, true, true},
		{StatusFailed, true, true},
		{Status("stopped"), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.status.IsValid())
			assert.Equal(t, tt.isFinal, tt.status.IsFinal())
		})
	}
}

func TestJSONMap_Scan(t *testing.T) {
	var m JSONMap
	require.NoError(t, m.Scan([]byte(`{"a":1}`)))
	assert.EqualValues(t, 1, m["a"])

	require.NoError(t, m.Scan(`{"b":"x"}`))
	assert.Equal(t, "x", m["b"])

	require.NoError(t, m.Scan(nil))
	assert.Empty(t, m)

	assert.Error(t, m.Scan(42))
}

func TestRedactRequest(t *testing.T) {
	raw := []byte(`{"input":"check login","website":"https://example.com","auth_config":{"type":"mslogin","username":"qa@example.com","password":"hunter2"}}`)

	m, err := RedactRequest(raw)
	require.NoError(t, err)

	auth, ok := m["auth_config"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "mslogin", auth["type"])
	assert.Equal(t, "qa@example.com", auth["username"])
	assert.NotContains(t, auth, "password")
	assert.Equal(t, "check login", m["input"])
}

func TestRedactRequest_Invalid(t *testing.T) {
	_, err := RedactRequest([]byte(`{"input":`))
	assert.Error(t, err)

	_, err = RedactRequest([]byte(`["not", "an", "object"]`))
	assert.Error(t, err)

	m, err := RedactRequest([]byte(`{"website":"https://example.com"}`))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", m["website"])
}
