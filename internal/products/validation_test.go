package products

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalog3d/catalog/internal/platform/httpx"
)

func TestCheckUpdates(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
	}{
		{name: "allowed", body: `{"name":"a","price":1,"model_path":"/x"}`},
		{name: "empty object", body: `{}`},
		{name: "one bad key", body: `{"name":"a","_id":"x"}`, err: ErrInvalidUpdates},
		{name: "array", body: `[1,2]`, err: ErrInvalidBody},
		{name: "null", body: `null`, err: ErrInvalidBody},
		{name: "garbage", body: `{`, err: ErrInvalidBody},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := checkUpdates([]byte(tc.body), DefaultUpdatableFields)
			if tc.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.err)
			assert.Equal(t, 400, httpx.StatusOf(err))
		})
	}
}

func TestNormalizeModelPath(t *testing.T) {
	assert.Equal(t, "", NormalizeModelPath(""))
	assert.Equal(t, "/uploads/a/scene.gltf", NormalizeModelPath(`uploads\a\scene.gltf`))
	assert.Equal(t, "/uploads/a/scene.gltf", NormalizeModelPath("/uploads/a/scene.gltf"))
	assert.Equal(t, "/a/b", NormalizeModelPath(`\a\b`))
}

func TestValidateMessages(t *testing.T) {
	svc, _, _ := newTestService(t, DefaultOptions())

	err := svc.validate(Product{CategoryID: "c", Width: -1, Depth: -2, Name: "n"})
	require.ErrorIs(t, err, httpx.ErrValidation)
	assert.Equal(t, "width must be at least 0; depth must be at least 0", httpx.Cause(err))

	require.NoError(t, svc.validate(Product{Name: "n", CategoryID: "c"}))
}
