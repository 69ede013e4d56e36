package notify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlarmID(t *testing.T) {
	t.Run("accepts integer forms", func(t *testing.T) {
		for _, info := range []map[string]any{
			{KeyAlarmID: 7},
			{KeyAlarmID: int64(7)},
			{KeyAlarmID: float64(7)}, // JSON round-trip through the store
			{KeyAlarmID: json.Number("7")},
		} {
			id, ok := AlarmID(info)
			require.True(t, ok)
			assert.Equal(t, int64(7), id)
		}
	})

	t.Run("rejects missing key", func(t *testing.T) {
		_, ok := AlarmID(map[string]any{"other": 7})
		assert.False(t, ok)
	})

	t.Run("rejects non-integer values", func(t *testing.T) {
		for _, v := range []any{"7", 7.5, true, nil, json.Number("x")} {
			_, ok := AlarmID(map[string]any{KeyAlarmID: v})
			assert.False(t, ok, "value %v should be foreign", v)
		}
	})
}

func TestOwned(t *testing.T) {
	assert.True(t, Owned(map[string]any{KeyAlarmID: int64(0)}))
	assert.False(t, Owned(map[string]any{}))
	assert.False(t, Owned(map[string]any{KeyAlarmID: "nope"}))
}

func TestIsBackup(t *testing.T) {
	assert.True(t, IsBackup(map[string]any{KeyIsBackup: true}))
	assert.False(t, IsBackup(map[string]any{KeyIsBackup: false}))
	assert.False(t, IsBackup(map[string]any{}))
	assert.False(t, IsBackup(map[string]any{KeyIsBackup: "true"}))
}
