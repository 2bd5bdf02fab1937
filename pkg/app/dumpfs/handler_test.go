package dumpfs

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-fsrip/pkg/app"
)

const imageDoc = `
description: single filesystem
size: 8192
filesystem:
  type: ext4
  blockSize: 512
  numBlocks: 16
  entries:
    - name: a.txt
      inode: 12
      size: 1024
      attrs:
        - { id: 0, type: 1, runs: [ { addr: 4, len: 2 } ] }
`

func newTestContext(t *testing.T) (*app.Context, *bytes.Buffer) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/img/disk.yaml", []byte(imageDoc), 0o644))

	ctx := app.NewContext()
	ctx.Fs = fs
	out := &bytes.Buffer{}
	ctx.Stdout = out
	return ctx, out
}

func readLines(t *testing.T, fs afero.Fs, path string) []string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestHandle(t *testing.T) {
	ctx, out := newTestContext(t)
	req := &Request{
		Target:       app.ImageTarget{Paths: []string{"/img/disk.yaml"}},
		Unallocated:  "fragment",
		DiskMapFile:  "/out/disk.jsonl",
		InodeMapFile: "/out/inodes.jsonl",
		OverviewFile: "/out/overview.json",
	}

	resp, err := Handle(ctx, req)
	require.NoError(t, err)

	// a.txt, $Unallocated, and the gaps before and after blocks 4-5
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "a.txt", first["name"].(map[string]any)["name"])
	assert.Equal(t, "", first["parent"])

	assert.Equal(t, uint64(4), resp.Stats.Entries)
	assert.Equal(t, uint64(3), resp.Stats.Synthetic)
	require.Len(t, resp.Filesystems, 1)
	assert.Equal(t, uint64(4), resp.Filesystems[0].Entries)
	assert.Equal(t, uint64(0), resp.Filesystems[0].StartSector)
	assert.Equal(t, uint64(15), resp.Filesystems[0].EndSector)
	assert.ElementsMatch(t, []string{"/out/overview.json", "/out/disk.jsonl", "/out/inodes.jsonl"}, resp.Reports)

	assert.Len(t, readLines(t, ctx.Fs, "/out/disk.jsonl"), 1)
	assert.Len(t, readLines(t, ctx.Fs, "/out/inodes.jsonl"), 1)

	var overview map[string]any
	data, err := afero.ReadFile(ctx.Fs, "/out/overview.json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &overview))
	assert.Equal(t, "single filesystem", overview["description"])
}

func TestHandleWithoutUnallocated(t *testing.T) {
	ctx, out := newTestContext(t)
	resp, err := Handle(ctx, &Request{Target: app.ImageTarget{Paths: []string{"/img/disk.yaml"}}})
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
	assert.Zero(t, resp.Stats.Synthetic)
	assert.Empty(t, resp.Reports)
}

func TestHandleReportFailureKeepsResponse(t *testing.T) {
	ctx, out := newTestContext(t)
	ctx.Fs = afero.NewReadOnlyFs(ctx.Fs)

	var percents []int
	ctx.SetProgress(func(p app.ProgressUpdate) { percents = append(percents, p.Percent()) })

	resp, err := Handle(ctx, &Request{
		Target:       app.ImageTarget{Paths: []string{"/img/disk.yaml"}},
		Unallocated:  "fragment",
		DiskMapFile:  "/out/disk.jsonl",
		OverviewFile: "/out/overview.json",
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	// every record still reached the output
	assert.Len(t, strings.Split(strings.TrimSpace(out.String()), "\n"), 4)
	assert.Equal(t, uint64(4), resp.Stats.Entries)
	assert.Empty(t, resp.Reports)
	require.Len(t, resp.ReportErrors, 2)
	assert.Contains(t, resp.ReportErrors[0], "overview")
	assert.Contains(t, resp.ReportErrors[1], "disk map")
	assert.Contains(t, FormatSummary(resp), "2 reports failed")
	assert.Equal(t, []int{0, 25, 75, 100}, percents)
}

func TestHandleErrors(t *testing.T) {
	tests := []struct {
		name string
		req  *Request
		code string
	}{
		{"no image", &Request{}, app.ErrCodeInvalidInput},
		{"bad mode", &Request{Target: app.ImageTarget{Paths: []string{"/img/disk.yaml"}}, Unallocated: "all"}, app.ErrCodeInvalidInput},
		{"shared report file", &Request{
			Target:       app.ImageTarget{Paths: []string{"/img/disk.yaml"}},
			DiskMapFile:  "/out/x",
			InodeMapFile: "/out/x",
		}, app.ErrCodeInvalidInput},
		{"missing image", &Request{Target: app.ImageTarget{Paths: []string{"/img/none.yaml"}}}, app.ErrCodeImageAccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := newTestContext(t)
			_, err := Handle(ctx, tt.req)
			require.Error(t, err)

			var appErr *app.CommonError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestFormatOutput(t *testing.T) {
	ctx, _ := newTestContext(t)
	resp, err := Handle(ctx, &Request{Target: app.ImageTarget{Paths: []string{"/img/disk.yaml"}}, Unallocated: "block"})
	require.NoError(t, err)

	var table bytes.Buffer
	require.NoError(t, FormatOutput(&table, resp, "table"))
	assert.Contains(t, table.String(), "ext4")
	assert.Contains(t, table.String(), "0-15")
	assert.Contains(t, table.String(), "Wrote 16 records (15 synthesized) from 1 filesystems")

	var js bytes.Buffer
	require.NoError(t, FormatOutput(&js, resp, "json"))
	assert.Contains(t, js.String(), `"entries": 16`)

	assert.Error(t, FormatOutput(&bytes.Buffer{}, resp, "xml"))
}
