package gitops

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAuthor = Author{Name: "Ledger Test", Email: "ledger@example.com"}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func TestInit(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	assert.False(t, IsRepo(dir))

	_, err := Init(dir, testAuthor)
	require.NoError(t, err)
	assert.True(t, IsRepo(dir))
}

func TestOpen_NotARepo(t *testing.T) {
	_, err := Open(t.TempDir(), testAuthor)
	assert.Error(t, err)
}

func TestCommit(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	repo, err := Init(dir, testAuthor)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ledger.yaml"), []byte("business:\n  name: Acme\n"), 0o644))
	hash, err := repo.Commit("init: Acme")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	msg, err := repo.LastMessage()
	require.NoError(t, err)
	assert.Equal(t, "init: Acme", msg)

	author := exec.Command("git", "log", "--format=%an <%ae>", "-1")
	author.Dir = dir
	out, err := author.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), testAuthor.String())

	_, err = repo.Commit("again")
	assert.ErrorIs(t, err, ErrNothingToCommit)

	reopened, err := Open(dir, testAuthor)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	_, err = reopened.Commit("snapshot: notes")
	require.NoError(t, err)
}
