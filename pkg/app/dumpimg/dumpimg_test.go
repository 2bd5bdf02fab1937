package dumpimg

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-fsrip/pkg/app"
)

func TestHandleConcatenatesSegments(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/img/disk.E01", []byte("first-"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/img/disk.E02", []byte("second"), 0o644))

	var out bytes.Buffer
	ctx := app.NewContext()
	ctx.Fs = fs
	ctx.Stdout = &out

	resp, err := Handle(ctx, &Request{Target: app.ImageTarget{Paths: []string{"/img/disk.E01", "/img/disk.E02"}}})
	require.NoError(t, err)
	assert.Equal(t, int64(12), resp.Bytes)
	assert.Equal(t, "first-second", out.String())
}

func TestHandleMissingSegment(t *testing.T) {
	ctx := app.NewContext()
	ctx.Fs = afero.NewMemMapFs()
	ctx.Stdout = &bytes.Buffer{}

	_, err := Handle(ctx, &Request{Target: app.ImageTarget{Paths: []string{"/img/missing.dd"}}})
	require.Error(t, err)

	var appErr *app.CommonError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, app.ErrCodeImageAccess, appErr.Code)
}
