package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFields(t *testing.T) {
	t.Run("nil details become an empty map", func(t *testing.T) {
		f := fields("WithdrawalService", nil)
		assert.Len(t, f, 2)
		assert.Equal(t, "module", f[0].Key)
		assert.Equal(t, "WithdrawalService", f[0].String)
	})

	t.Run("error detail is attached as error_ref", func(t *testing.T) {
		f := fields("WithdrawalService", map[string]interface{}{"error": errors.New("boom")})
		assert.Len(t, f, 3)
		assert.Equal(t, "error_ref", f[2].Key)
	})
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.Info("Test", "hello", nil)
		l.Error("Test", "bad", map[string]interface{}{"error": errors.New("x")})
	})
	assert.NoError(t, l.Sync())
}
