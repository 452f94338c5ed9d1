package scheduling

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "09:30", want: TimeOfDay{Hour: 9, Minute: 30}},
		{in: "00:00", want: TimeOfDay{}},
		{in: "23:59", want: TimeOfDay{Hour: 23, Minute: 59}},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "9:05", wantErr: true},
		{in: "09:30xyz", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseTimeOfDay(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestTimeOfDay_MinutesRoundTrip(t *testing.T) {
	for _, min := range []int{0, 1, 540, 570, 1019, 1439} {
		tod := MinutesToTimeOfDay(min)
		assert.Equal(t, min, tod.Minutes())
		assert.True(t, tod.Valid())
	}
}

func TestTimeOfDay_String(t *testing.T) {
	assert.Equal(t, "09:05", TimeOfDay{Hour: 9, Minute: 5}.String())
	assert.Equal(t, "00:00", TimeOfDay{}.String())
}

func TestTimeOfDay_JSON(t *testing.T) {
	b, err := json.Marshal(TimeOfDay{Hour: 14, Minute: 30})
	require.NoError(t, err)
	assert.Equal(t, `"14:30"`, string(b))

	var tod TimeOfDay
	require.NoError(t, json.Unmarshal([]byte(`"08:15"`), &tod))
	assert.Equal(t, TimeOfDay{Hour: 8, Minute: 15}, tod)

	assert.Error(t, json.Unmarshal([]byte(`815`), &tod))
	assert.Error(t, json.Unmarshal([]byte(`"25:00"`), &tod))
}
