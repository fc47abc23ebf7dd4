package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifest = `
documents:
  - file: income/acme/w2-2024.pdf
    type: W-2
    fields:
      employee_name: John Smith
      employer_name: Acme Corp
      state: NY
      wages_tips: "72000.00"
      federal_income_tax_withheld: "7200.00"
  - file: bank-statements/Chase/checking-1111.pdf
    type: bank_statement
    fields:
      account_holder: John Smith
      account_type: checking
      account_last4: "1111"
      ending_balance: "2400.00"
  - file: utilities/coned-jan.pdf
    type: utility_bill
    text: Bill for John Smith. Electric service.
    fields:
      amount_due: "142.17"
`

type testEnv struct {
	dir      string
	manifest string
	config   string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	viper.Reset()
	cfgFile = ""
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	env := testEnv{
		dir:      dir,
		manifest: filepath.Join(dir, "manifest.yaml"),
		config:   filepath.Join(dir, "config.yaml"),
	}
	require.NoError(t, os.WriteFile(env.manifest, []byte(testManifest), 0o600))

	cfg := `
household:
  taxpayer:
    name: John Smith
    age: 45
database:
  path: ` + filepath.Join(dir, "runs.db") + `
logging:
  level: error
`
	require.NoError(t, os.WriteFile(env.config, []byte(cfg), 0o600))
	return env
}

func execute(t *testing.T, env testEnv, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", env.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	env := newTestEnv(t)
	out, err := execute(t, env, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "oic dev")
}

func TestStandardsCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := execute(t, env, "standards", "--state", "NY", "--family-size", "3", "--vehicles", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "$")

	out, err = execute(t, env, "standards", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "* ")

	_, err = execute(t, env, "standards", "--family-size", "0")
	assert.Error(t, err)

	_, err = execute(t, env, "standards", "--version", "1999")
	assert.Error(t, err)
}

func TestAnalyzeSaveAndInspect(t *testing.T) {
	env := newTestEnv(t)

	out, err := execute(t, env, "analyze", env.manifest, "--save")
	require.NoError(t, err)
	assert.Contains(t, out, "John Smith")
	assert.Contains(t, out, "RCP lump sum")

	out, err = execute(t, env, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "John Smith")

	fields := strings.Fields(lastLine(out))
	require.NotEmpty(t, fields)
	prefix := fields[0]

	out, err = execute(t, env, "runs", "show", prefix, "--audit")
	require.NoError(t, err)
	assert.Contains(t, out, "John Smith")

	out, err = execute(t, env, "provenance", prefix, "utilities")
	require.NoError(t, err)
	assert.Contains(t, out, "coned-jan.pdf")

	_, err = execute(t, env, "runs", "delete", prefix)
	require.NoError(t, err)

	out, err = execute(t, env, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved runs")
}

func TestAnalyzeJSON(t *testing.T) {
	env := newTestEnv(t)

	out, err := execute(t, env, "analyze", env.manifest, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"rcp_lump_sum"`)
	assert.Contains(t, out, `"standards_version"`)
}

func TestAnalyzeErrors(t *testing.T) {
	env := newTestEnv(t)

	_, err := execute(t, env, "analyze", filepath.Join(env.dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = execute(t, env, "analyze", filepath.Join(env.dir, "notes.txt"))
	assert.Error(t, err)

	_, err = execute(t, env, "analyze")
	assert.Error(t, err)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}
