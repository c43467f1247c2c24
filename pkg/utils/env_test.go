package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("SUINSX_STR", "value")
	t.Setenv("SUINSX_INT", "-3")
	t.Setenv("SUINSX_DUR", "150ms")
	t.Setenv("SUINSX_LIST", " a, ,b ,")

	require.Equal(t, "value", Env("SUINSX_STR", "def"))
	require.Equal(t, "def", Env("SUINSX_MISSING", "def"))
	require.Equal(t, 7, EnvInt("SUINSX_INT", 7))
	require.Equal(t, 150*time.Millisecond, EnvDuration("SUINSX_DUR", time.Second))
	require.Equal(t, []string{"a", "b"}, EnvList("SUINSX_LIST", nil))
	require.Equal(t, []string{"x"}, EnvList("SUINSX_MISSING", []string{"x"}))
}

func TestEnvUint64Ptr(t *testing.T) {
	v, err := EnvUint64Ptr("SUINSX_MISSING")
	require.NoError(t, err)
	require.Nil(t, v)

	t.Setenv("SUINSX_CP", "42")
	v, err = EnvUint64Ptr("SUINSX_CP")
	require.NoError(t, err)
	require.Equal(t, uint64(42), *v)

	t.Setenv("SUINSX_CP", "-1")
	_, err = EnvUint64Ptr("SUINSX_CP")
	require.ErrorContains(t, err, "SUINSX_CP")
}

func TestDedup(t *testing.T) {
	require.Equal(t, []string{"http://a", "http://b"}, Dedup([]string{"http://a/", "", "http://b", "http://a"}))
}
