package repo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"warden/internal/core/platform"
	dom "warden/internal/services/configs/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cfg(role platform.ID) dom.CommunityConfig {
	return dom.CommunityConfig{
		MembershipRoleID:           role,
		MembershipChannelID:        2,
		SubmissionRoleID:           3,
		SubmissionChannelID:        4,
		BotConfigurationChannelIDs: []platform.ID{5},
	}
}

func TestSaveThenLoadAll(t *testing.T) {
	ctx := context.Background()
	f := NewFiles(t.TempDir())

	require.NoError(t, f.Save(ctx, 100, cfg(1)))
	require.NoError(t, f.Save(ctx, 200, cfg(9)))

	got, err := f.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[100].Equal(cfg(1)))
	assert.True(t, got[200].Equal(cfg(9)))
}

func TestSaveKeepsBackupAndNoLeftovers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f := NewFiles(dir)

	require.NoError(t, f.Save(ctx, 100, cfg(1)))
	first, err := os.ReadFile(f.Path(100))
	require.NoError(t, err)
	_, err = os.Stat(f.Path(100) + ".bak")
	assert.True(t, os.IsNotExist(err), "first save has nothing to back up")

	require.NoError(t, f.Save(ctx, 100, cfg(7)))
	bak, err := os.ReadFile(f.Path(100) + ".bak")
	require.NoError(t, err)
	assert.Equal(t, first, bak)

	_, err = os.Stat(filepath.Join(dir, "100_next.json"))
	assert.True(t, os.IsNotExist(err), "staging file must be renamed away")
}

func TestLoadAllSkipsBadAndForeignFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f := NewFiles(dir)
	require.NoError(t, f.Save(ctx, 100, cfg(1)))

	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("300.json", `{"MembershipRoleId": 1`)        // malformed
	write("400.json", `{"ApproverRoleIds": [0]}`)      // fails validation
	write("500_next.json", `{}`)                       // staging leftover
	write("notes.json", `{}`)                          // not a community
	write("600.json.bak", `{}`)                        // backup
	require.NoError(t, os.Mkdir(filepath.Join(dir, "700.json"), 0o755))

	got, err := f.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	_, ok := got[100]
	assert.True(t, ok)
}

func TestLoadAllMissingDir(t *testing.T) {
	f := NewFiles(filepath.Join(t.TempDir(), "nope"))
	_, err := f.LoadAll(context.Background())
	assert.Error(t, err)
}

func TestLoadAllAcceptsCommentsAndStringIDs(t *testing.T) {
	dir := t.TempDir()
	doc := `{
  // hand edited
  "MembershipRoleId": "1",
  "MembershipChannelId": 2,
  "SubmissionRoleId": 3,
  "SubmissionChannelId": 4,
  "BotConfigurationChannelIds": ["5"]
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "42.json"), []byte(doc), 0o644))
	got, err := NewFiles(dir).LoadAll(context.Background())
	require.NoError(t, err)
	assert.True(t, got[42].Equal(cfg(1)))
}

func TestLoadAllKeepsConfigWithUnsetSubmission(t *testing.T) {
	dir := t.TempDir()
	doc := `{"MembershipRoleId":11,"MembershipChannelId":12,"SubmissionRoleId":0,"SubmissionChannelId":0,"BotConfigurationChannelIds":[13]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "555.json"), []byte(doc), 0o644))

	got, err := NewFiles(dir).LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	c := got[555]
	assert.Equal(t, platform.ID(11), c.MembershipRoleID)
	assert.Zero(t, c.SubmissionRoleID)
	assert.Zero(t, c.SubmissionChannelID)
}

func TestCommunityFromFilename(t *testing.T) {
	cases := map[string]bool{
		"123.json":      true,
		"0.json":        false,
		".json":         false,
		"12a.json":      false,
		"123_next.json": false,
		"123.json.bak":  false,
		"-1.json":       false,
	}
	for name, want := range cases {
		_, ok := CommunityFromFilename(name)
		assert.Equal(t, want, ok, name)
	}
}

func TestRenderMatchesSave(t *testing.T) {
	f := NewFiles(t.TempDir())
	require.NoError(t, f.Save(context.Background(), 1, cfg(1)))
	onDisk, err := os.ReadFile(f.Path(1))
	require.NoError(t, err)

	r, err := Render(cfg(1))
	require.NoError(t, err)
	buf := make([]byte, r.Len())
	_, _ = r.Read(buf)
	assert.Equal(t, onDisk, buf)
}
