package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "b****@acme.test", MaskEmail("billing@acme.test"))
	assert.Equal(t, "****", MaskEmail("not-an-email"))
	assert.Equal(t, "****", MaskEmail("@acme.test"))
}

func TestMaskSensitive(t *testing.T) {
	masked := MaskSensitive(map[string]any{
		"email":    "billing@acme.test",
		"password": "hunter2",
		"token":    12345,
		"amount":   "118.80",
	})

	assert.Equal(t, "b****@acme.test", masked["email"])
	assert.Equal(t, "****", masked["password"])
	assert.Equal(t, "****", masked["token"])
	assert.Equal(t, "118.80", masked["amount"])
}

func TestMaskSensitiveEmpty(t *testing.T) {
	assert.Nil(t, MaskSensitive(nil))
	assert.Nil(t, MaskSensitive(map[string]any{}))
}
