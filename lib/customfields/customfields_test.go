package customfields

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func checkSerialization[T any](t *testing.T, val T, str string, parse func(*T, string) error) {
	jsonVal, err := json.Marshal(val)
	require.Nil(t, err)
	require.Equal(t, `"`+str+`"`, string(jsonVal))
	var fromJSON T
	require.Nil(t, json.Unmarshal(jsonVal, &fromJSON))
	require.Equal(t, val, fromJSON)

	yamlVal, err := yaml.Marshal(val)
	require.Nil(t, err)
	require.Equal(t, str+"\n", string(yamlVal))
	var fromYAML T
	require.Nil(t, yaml.Unmarshal(yamlVal, &fromYAML))
	require.Equal(t, val, fromYAML)

	var fromStr T
	require.Nil(t, parse(&fromStr, str))
	require.Equal(t, val, fromStr)
}

func TestTime(t *testing.T) {
	t.Run("parse and serialize", func(t *testing.T) {
		for _, tt := range []struct {
			in  string
			val Time
			str string
		}{
			{"1", 1, "1ns"},
			{"5ns", 5, "5ns"},
			{"1us", 1_000, "1us"},
			{"5ms", 5_000_000, "5ms"},
			{"1s", 1_000_000_000, "1s"},
			{"2S", 2_000_000_000, "2s"},
		} {
			t.Run(tt.in, func(t *testing.T) {
				var parsed Time
				require.Nil(t, parsed.FromStr(tt.in))
				require.Equal(t, tt.val, parsed)
				require.Equal(t, tt.str, parsed.String())
				checkSerialization(t, parsed, tt.str, (*Time).FromStr)
			})
		}
	})

	t.Run("errors", func(t *testing.T) {
		for _, in := range []string{"5ts", "aboba", "5.5s", "5.5", "-1s", ""} {
			t.Run(in, func(t *testing.T) {
				var parsed Time
				require.NotNil(t, parsed.FromStr(in))
			})
		}
	})

	t.Run("duration", func(t *testing.T) {
		var parsed Time
		require.Nil(t, parsed.FromStr("1500ms"))
		require.Equal(t, 1500*time.Millisecond, parsed.Duration())
		require.Equal(t, uint64(1500), parsed.Milliseconds())
	})
}

func TestMemory(t *testing.T) {
	t.Run("parse and serialize", func(t *testing.T) {
		for _, tt := range []struct {
			in  string
			val Memory
			str string
		}{
			{"1", 1, "1b"},
			{"5b", 5, "5b"},
			{"1k", 1 << 10, "1k"},
			{"5m", 5 * (1 << 20), "5m"},
			{"1g", 1 << 30, "1g"},
			{"256M", 256 * (1 << 20), "256m"},
		} {
			t.Run(tt.in, func(t *testing.T) {
				var parsed Memory
				require.Nil(t, parsed.FromStr(tt.in))
				require.Equal(t, tt.val, parsed)
				require.Equal(t, tt.str, parsed.String())
				checkSerialization(t, parsed, tt.str, (*Memory).FromStr)
			})
		}
	})

	t.Run("errors", func(t *testing.T) {
		for _, in := range []string{"5t", "aboba", "5.5k", "5.5", ""} {
			t.Run(in, func(t *testing.T) {
				var parsed Memory
				require.NotNil(t, parsed.FromStr(in))
			})
		}
	})

	t.Run("zero", func(t *testing.T) {
		var zero Memory
		require.Equal(t, "0b", zero.String())
	})
}
