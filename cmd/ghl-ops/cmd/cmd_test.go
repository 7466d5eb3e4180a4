package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mikey/ghl-ops/internal/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMbox = `From jane@example.com Mon Jan  1 00:00:00 2024
From: Jane Doe <jane@example.com>
To: me@broker.com
Subject: Pre-approval

Looking to buy this spring.

From me@broker.com Tue Jan  2 00:00:00 2024
From: Me <me@broker.com>
To: Jane Doe <jane@example.com>
Subject: Re: Pre-approval

Sounds good.
`

func TestSourceKind(t *testing.T) {
	k, err := sourceKind("", "export.MBOX")
	require.NoError(t, err)
	assert.Equal(t, sources.KindMbox, k)

	k, err = sourceKind("", "leads.csv")
	require.NoError(t, err)
	assert.Equal(t, sources.KindCSV, k)

	k, err = sourceKind("mbox", "leads.csv")
	require.NoError(t, err)
	assert.Equal(t, sources.KindMbox, k)

	_, err = sourceKind("xlsx", "leads.xlsx")
	assert.Error(t, err)
}

func TestReadDeleteTargets(t *testing.T) {
	got, err := readDeleteTargets("jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"jane@example.com"}, got)

	path := filepath.Join(t.TempDir(), "delete.csv")
	require.NoError(t, os.WriteFile(path, []byte("Email,Name\nA@x.com,A\nb@x.com,B\na@x.com,A\n"), 0o600))
	got, err = readDeleteTargets(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, got)

	_, err = readDeleteTargets(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestMboxContactsCommand(t *testing.T) {
	dir := t.TempDir()
	mboxPath := filepath.Join(dir, "export.mbox")
	cfgPath := filepath.Join(dir, "config.yaml")
	outPath := filepath.Join(dir, "contacts.csv")
	require.NoError(t, os.WriteFile(mboxPath, []byte(testMbox), 0o600))
	require.NoError(t, os.WriteFile(cfgPath, []byte("ledger:\n  type: memory\n"), 0o600))

	rootCmd.SetArgs([]string{"--config", cfgPath, "mbox", "contacts", mboxPath, "--self", "me@broker.com", "--format", "csv", "--out", outPath})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "jane@example.com,Jane Doe,Jane,Doe")
	assert.NotContains(t, string(data), "me@broker.com")
}
