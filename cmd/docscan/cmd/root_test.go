package cmd

import (
	"bytes"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docscan/internal/license"
	"github.com/MeKo-Tech/docscan/internal/status"
	"github.com/MeKo-Tech/docscan/internal/testutil"
)

// resetFlags restores every flag of c and its children to its default so
// that commands can be executed repeatedly within one test binary.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := GetRootCommand()
	t.Cleanup(func() {
		resetFlags(cmd)
		cfgFile = ""
		globalConfig = nil
		cmd.SetOut(nil)
		cmd.SetErr(nil)
	})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func qrFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	qr := testutil.QRImage(t, text, 200)
	testutil.SaveImage(t, testutil.Compose(testutil.MediumSize, qr, image.Pt(120, 100)), path)
	return path
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "docscan", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)

	var names []string
	for _, sub := range rootCmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"scan", "batch", "pdf", "config", "license"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommandHelp(t *testing.T) {
	out, err := executeCommand(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Available Commands:")
	assert.Contains(t, out, "identity")
}

func TestRootCommandVersion(t *testing.T) {
	out, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "docscan version")
}

func TestRootCommandInvalidFlag(t *testing.T) {
	_, err := executeCommand(t, "--no-such-flag")
	require.Error(t, err)
}

func TestScanCommand(t *testing.T) {
	dir := t.TempDir()
	path := qrFile(t, dir, "label.png", "docscan cli")
	out := filepath.Join(dir, "out.json")

	_, err := executeCommand(t, "scan", path,
		"--formats", "zxing",
		"--license-key", testutil.LicenseKey(t, ""),
		"--format", "json",
		"--output", out,
		"--metrics-file", filepath.Join(dir, "metrics.prom"),
		"--overlay-dir", filepath.Join(dir, "overlays"))
	require.NoError(t, err)

	bts, err := os.ReadFile(out)
	require.NoError(t, err)
	var doc struct {
		Images []struct {
			File    string           `json:"file"`
			Results []map[string]any `json:"results"`
		} `json:"images"`
	}
	require.NoError(t, json.Unmarshal(bts, &doc))
	require.Len(t, doc.Images, 1)
	require.Len(t, doc.Images[0].Results, 1)
	assert.Equal(t, "zxing", doc.Images[0].Results[0]["kind"])
	assert.Contains(t, string(bts), "docscan cli")

	metrics, err := os.ReadFile(filepath.Join(dir, "metrics.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "docscan_recognitions_total")

	_, err = os.Stat(filepath.Join(dir, "overlays", "label_overlay.png"))
	require.NoError(t, err)
}

func TestScanCommand_Text(t *testing.T) {
	path := qrFile(t, t.TempDir(), "a.png", "plain text")
	out, err := executeCommand(t, "scan", path, "--formats", "zxing",
		"--license-key", testutil.LicenseKey(t, ""))
	require.NoError(t, err)
	assert.Contains(t, out, "# "+path)
	assert.Contains(t, out, `"plain text"`)
}

func TestScanCommand_Errors(t *testing.T) {
	path := qrFile(t, t.TempDir(), "a.png", "x")

	_, err := executeCommand(t, "scan", path, "--formats", "zxing")
	require.Error(t, err, "a license key is required")
	assert.Equal(t, status.ExitCode(status.ErrInvalidLicenseKey), status.ExitCode(err))

	_, err = executeCommand(t, "scan", path, "--formats", "barcode")
	require.ErrorIs(t, err, status.ErrInvalidArgument)

	_, err = executeCommand(t, "scan", path, "--roi", "1,2,3")
	require.ErrorIs(t, err, status.ErrInvalidArgument)

	_, err = executeCommand(t, "scan")
	require.Error(t, err)
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	qrFile(t, dir, "one.png", "first")
	qrFile(t, dir, "two.png", "second")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not an image"), 0o600))

	out, err := executeCommand(t, "batch", dir,
		"--formats", "zxing",
		"--license-key", testutil.LicenseKey(t, ""),
		"--workers", "2",
		"--continue-on-error",
		"--format", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "file,index,kind,valid,confidence,summary,error", lines[0])
	assert.Contains(t, lines[1], "broken.png")
	assert.Contains(t, lines[2], "first")
	assert.Contains(t, lines[3], "second")

	_, err = executeCommand(t, "batch", dir, "--formats", "zxing",
		"--license-key", testutil.LicenseKey(t, ""), "--exclude", "broken.png", "--format", "json")
	require.NoError(t, err)
}

func TestConfigCommands(t *testing.T) {
	file := filepath.Join(t.TempDir(), "docscan.yaml")
	out, err := executeCommand(t, "config", "init", file)
	require.NoError(t, err)
	assert.Contains(t, out, file)

	bts, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(bts), "recognition")

	out, err = executeCommand(t, "--config", file, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, file)
	assert.Contains(t, out, "formats")
}

func TestLicenseCommands(t *testing.T) {
	out, err := executeCommand(t, "license", "issue", "--licensee", "ACME", "--formats", "zxing,mrtd", "--valid-for", "24h")
	require.NoError(t, err)
	key := strings.TrimSpace(out)

	claims, err := license.Parse(nil, key)
	require.NoError(t, err)
	assert.Equal(t, "ACME", claims.Licensee)
	assert.Equal(t, []string{"zxing", "mrtd"}, claims.Formats)
	assert.False(t, claims.Expires.IsZero())

	out, err = executeCommand(t, "license", "inspect", key)
	require.NoError(t, err)
	assert.Contains(t, out, `"licensee": "ACME"`)

	_, err = executeCommand(t, "license", "inspect", key+"x")
	require.ErrorIs(t, err, status.ErrInvalidLicenseKey)

	_, err = executeCommand(t, "license", "issue", "--formats", "nope")
	require.Error(t, err)
}
