package models_test

import (
	"encoding/json"
	"testing"

	"easyhomes/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPincodeUnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want models.Pincode
	}{
		{`"411001"`, "411001"},
		{`411001`, "411001"},
		{`411001.0`, "411001"},
		{`4.11001e5`, "411001"},
		{`4110.5`, "4110.5"},
		{`null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var home models.Home
			require.NoError(t, json.Unmarshal([]byte(`{"pincode":`+tt.raw+`}`), &home))
			assert.Equal(t, tt.want, home.Pincode)
		})
	}

	var home models.Home
	assert.Error(t, json.Unmarshal([]byte(`{"pincode":true}`), &home))
}
