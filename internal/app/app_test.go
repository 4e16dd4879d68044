package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/chronos-ics/internal/config"
	"github.com/tartampluch/chronos-ics/internal/engine"
)

const appointments = `Dentist, January 5th, 2024, 2:30 PM - 3:30 PM
this line is garbage
Team sync, March 5, 2024, 9:15 AM - 10:00 AM
`

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

type testCLI struct {
	*cli
	dir     string
	env     map[string]string
	saved   map[string]string
	deleted []string
}

func newTestCLI(t *testing.T) *testCLI {
	t.Helper()

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tc := &testCLI{
		dir:   t.TempDir(),
		env:   map[string]string{},
		saved: map[string]string{},
	}
	tc.cli = &cli{
		getenv:     func(k string) string { return tc.env[k] },
		lookupPass: func(string) string { return "" },
		savePass: func(user, password string) error {
			tc.saved[user] = password
			return nil
		},
		deletePass: func(user string) error {
			tc.deleted = append(tc.deleted, user)
			return nil
		},
		clock:    fixedClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
		newRunID: func() string { return "deadbeef-0000" },
	}
	return tc
}

func (tc *testCLI) path(name string) string {
	return filepath.Join(tc.dir, name)
}

func (tc *testCLI) writeInput(t *testing.T, content string) string {
	t.Helper()
	p := tc.path("appts.txt")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

// run executes the command tree with a private log file and captured streams.
func (tc *testCLI) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	return tc.runContext(t, context.Background(), stdin, args...)
}

func (tc *testCLI) runContext(t *testing.T, ctx context.Context, stdin string, args ...string) (string, string, error) {
	t.Helper()

	root := tc.rootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args, "--"+config.FlagLogFile, tc.path("test.log")))

	err := root.ExecuteContext(ctx)
	tc.closeLog()
	return stdout.String(), stderr.String(), err
}

func TestConvert_WritesCalendar(t *testing.T) {
	tc := newTestCLI(t)
	in := tc.writeInput(t, appointments)
	out := tc.path("appointments.ics")

	stdout, _, err := tc.run(t, "", "convert", "-i", in, "-o", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	ics := string(data)
	assert.Contains(t, ics, "BEGIN:VCALENDAR")
	assert.Contains(t, ics, "SUMMARY:Dentist")
	assert.Contains(t, ics, "SUMMARY:Team sync")
	assert.Contains(t, ics, "20240105T143000-0-deadbeef@example.com")

	assert.Contains(t, stdout, "ICS file has been created successfully: "+out+" (2 events,")
	assert.Contains(t, stdout, "Script execution completed. Check "+tc.path("test.log"))

	logData, err := os.ReadFile(tc.path("test.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), config.MsgFileWritten)
	// Pipeline diagnostics reach the run's log file.
	assert.Contains(t, string(logData), config.MsgParseFailed)
	assert.Contains(t, string(logData), "this line is garbage")
}

func TestConvert_IsTheDefaultCommand(t *testing.T) {
	tc := newTestCLI(t)
	in := tc.writeInput(t, appointments)
	out := tc.path("out.ics")

	_, _, err := tc.run(t, "", "-i", in, "-o", out)
	require.NoError(t, err)
	assert.FileExists(t, out)
}

func TestConvert_NoEvents(t *testing.T) {
	tc := newTestCLI(t)
	in := tc.writeInput(t, "nothing useful here\n\n")
	out := tc.path("out.ics")

	stdout, _, err := tc.run(t, "", "convert", "-i", in, "-o", out)
	require.Error(t, err)
	assert.Equal(t, config.ExitCodeNoEvents, ExitCode(err))
	assert.ErrorIs(t, err, engine.ErrNoEvents)

	assert.Contains(t, stdout, "Failed to create ICS data.")
	assert.Contains(t, stdout, "Script execution completed.")
	assert.NoFileExists(t, out)
}

func TestConvert_InputMissing(t *testing.T) {
	tc := newTestCLI(t)
	out := tc.path("out.ics")

	stdout, _, err := tc.run(t, "", "convert", "-i", tc.path("missing.txt"), "-o", out)
	require.Error(t, err)
	assert.Equal(t, config.ExitCodeInputAbsent, ExitCode(err))

	var appErr AppError
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.Printed)

	assert.Contains(t, stdout, "Error: '"+tc.path("missing.txt")+"' not found.")
	assert.NotContains(t, stdout, "Script execution completed.")
	assert.NoFileExists(t, out)
}

func TestConvert_OutputWriteFailure(t *testing.T) {
	tc := newTestCLI(t)
	in := tc.writeInput(t, appointments)
	out := filepath.Join(tc.path("no-such-dir"), "out.ics")

	stdout, _, err := tc.run(t, "", "convert", "-i", in, "-o", out)
	require.Error(t, err)
	assert.Equal(t, config.ExitCodeOutputWrite, ExitCode(err))
	assert.Contains(t, stdout, "Error writing to ICS file:")
	assert.Contains(t, stdout, "Script execution completed.")
}

func TestConvert_StdinToStdout(t *testing.T) {
	tc := newTestCLI(t)

	stdout, stderr, err := tc.run(t, appointments, "convert", "-i", "-", "-o", "-")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout, "BEGIN:VCALENDAR"))
	assert.Contains(t, stdout, "SUMMARY:Dentist")
	// User messages never mix with the calendar stream.
	assert.NotContains(t, stdout, "Script execution completed.")
	assert.Contains(t, stderr, "Script execution completed.")
}

func TestConvert_Print(t *testing.T) {
	tc := newTestCLI(t)
	in := tc.writeInput(t, appointments)
	out := tc.path("out.ics")

	stdout, _, err := tc.run(t, "", "convert", "-i", in, "-o", out, "--print")
	require.NoError(t, err)

	header := strings.Index(stdout, "Contents of the generated ICS file:")
	body := strings.Index(stdout, "BEGIN:VCALENDAR")
	footer := strings.Index(stdout, "End of ICS file contents")
	require.NotEqual(t, -1, header)
	require.NotEqual(t, -1, body)
	require.NotEqual(t, -1, footer)
	assert.Less(t, header, body)
	assert.Less(t, body, footer)
}

func TestConvert_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"Print to stdout", []string{"convert", "-o", "-", "--print"}},
		{"Unknown timezone", []string{"convert", "--tz", "Mars/Olympus_Mons"}},
		{"Unknown inverted policy", []string{"convert", "--inverted", "explode"}},
		{"Unknown flag", []string{"convert", "--no-such-flag"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestCLI(t)
			in := tc.writeInput(t, appointments)
			args := append([]string{}, tt.args...)
			args = append(args, "-i", in)

			_, _, err := tc.run(t, "", args...)
			require.Error(t, err)
			assert.Equal(t, config.ExitCodeUsage, ExitCode(err))
		})
	}
}

func TestConvert_French(t *testing.T) {
	tc := newTestCLI(t)
	in := tc.writeInput(t, appointments)
	out := tc.path("out.ics")

	stdout, _, err := tc.run(t, "", "convert", "-i", in, "-o", out, "--lang", "fr")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Le fichier ICS a été créé avec succès")
	assert.Contains(t, stdout, "Exécution terminée.")
}

func TestConvert_RemoteInputWithStoredPassword(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "alice" || pass != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, appointments)
	}))
	defer ts.Close()

	tc := newTestCLI(t)
	tc.lookupPass = func(user string) string {
		if user == "alice" {
			return "s3cret"
		}
		return ""
	}
	out := tc.path("out.ics")

	_, _, err := tc.run(t, "", "convert", "-i", ts.URL+"/appts.txt", "-o", out, "--web-user", "alice")
	require.NoError(t, err)
	assert.FileExists(t, out)

	// Wrong user: the fetch fails, which is a generic conversion error.
	stdout, _, err := tc.run(t, "", "convert", "-i", ts.URL+"/appts.txt", "-o", out, "--web-user", "bob")
	require.Error(t, err)
	assert.Equal(t, config.ExitCodeError, ExitCode(err))
	assert.Contains(t, stdout, "Conversion failed.")
}

func TestResolveOptions_Precedence(t *testing.T) {
	tc := newTestCLI(t)
	cfgPath := tc.path("chronos.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"timezone: Europe/Paris\ninput: from-file.txt\noutput: from-file.ics\ninverted: swap\nserve:\n  refresh: '@hourly'\n",
	), 0o600))
	tc.env[config.EnvInput] = "from-env.txt"
	tc.env[config.EnvPrint] = "true"

	root := tc.rootCommand()
	require.NoError(t, root.ParseFlags([]string{"--config", cfgPath, "-o", "from-flag.ics", "--inverted", "REJECT"}))

	got, err := resolveOptions(root, &tc.flags, tc.getenv)
	require.NoError(t, err)

	assert.Equal(t, "Europe/Paris", got.Timezone) // file
	assert.Equal(t, "from-env.txt", got.Input)    // env beats file
	assert.Equal(t, "from-flag.ics", got.Output)   // flag beats file
	assert.Equal(t, config.InvertedReject, got.Inverted)
	assert.True(t, got.Print)
	assert.Equal(t, "@hourly", got.Refresh)
	assert.Equal(t, config.DefaultPort, got.Port)
	assert.Equal(t, cfgPath, got.ConfigPath)
}

func TestResolveOptions_Defaults(t *testing.T) {
	tc := newTestCLI(t)
	root := tc.rootCommand()
	require.NoError(t, root.ParseFlags(nil))

	got, err := resolveOptions(root, &tc.flags, tc.getenv)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTimezone, got.Timezone)
	assert.Equal(t, config.DefaultInputFile, got.Input)
	assert.Equal(t, config.DefaultOutputFile, got.Output)
	assert.Equal(t, config.InvertedPass, got.Inverted)
	assert.False(t, got.Print)
}

func TestConvert_UnknownInvertedInConfigFile(t *testing.T) {
	for _, name := range []string{"chronos.yaml", "chronos.toml"} {
		t.Run(name, func(t *testing.T) {
			tc := newTestCLI(t)
			in := tc.writeInput(t, appointments)
			out := tc.path("out.ics")
			cfgPath := tc.path(name)
			content := "inverted: rejct\n"
			if strings.HasSuffix(name, ".toml") {
				content = "inverted = 'rejct'\n"
			}
			require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

			_, _, err := tc.run(t, "", "convert", "--config", cfgPath, "-i", in, "-o", out)
			require.Error(t, err)
			assert.Equal(t, config.ExitCodeUsage, ExitCode(err))
			assert.ErrorIs(t, err, engine.ErrInvertedPolicy)
			assert.NoFileExists(t, out)
		})
	}
}

func TestServe_UnknownInvertedInConfigFile(t *testing.T) {
	tc := newTestCLI(t)
	cfgPath := tc.path("chronos.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("inverted: rejct\n"), 0o600))

	_, _, err := tc.run(t, "", "serve", "--config", cfgPath)
	require.Error(t, err)
	assert.Equal(t, config.ExitCodeUsage, ExitCode(err))
}

func TestResolveOptions_BadConfigFile(t *testing.T) {
	tc := newTestCLI(t)
	_, _, err := tc.run(t, "", "convert", "--config", tc.path("missing.toml"))
	require.Error(t, err)
	assert.Equal(t, config.ExitCodeUsage, ExitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, config.ExitCodeSuccess, ExitCode(nil))
	assert.Equal(t, config.ExitCodeError, ExitCode(errors.New("boom")))
	assert.Equal(t, config.ExitCodeUsage, ExitCode(Wrap(config.ExitCodeUsage, errors.New("bad flag"))))
	assert.Equal(t, config.ExitCodeNoEvents, ExitCode(fmt.Errorf("outer: %w", WrapPrinted(config.ExitCodeNoEvents, engine.ErrNoEvents))))
	assert.NoError(t, Wrap(config.ExitCodeError, nil))
}

func TestConversionExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{engine.ErrNoEvents, config.ExitCodeNoEvents},
		{fmt.Errorf("%w: appts.txt", engine.ErrInputNotFound), config.ExitCodeInputAbsent},
		{fmt.Errorf("%w: disk full", engine.ErrOutputWrite), config.ExitCodeOutputWrite},
		{engine.ErrUnknownTimezone, config.ExitCodeUsage},
		{engine.ErrInvertedPolicy, config.ExitCodeUsage},
		{engine.ErrInputRead, config.ExitCodeError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, conversionExitCode(tt.err))
		})
	}
}

func TestVersionCommand(t *testing.T) {
	tc := newTestCLI(t)
	stdout, _, err := tc.run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, config.AppName+" version "+config.Version))
}

func TestCredentialsCommand(t *testing.T) {
	tc := newTestCLI(t)

	stdout, _, err := tc.run(t, "s3cret\n", "credentials", "set", "--web-user", "alice")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", tc.saved["alice"])
	assert.Contains(t, stdout, "alice")

	_, _, err = tc.run(t, "", "credentials", "delete", "--web-user", "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, tc.deleted)
}

func TestCredentialsCommand_Errors(t *testing.T) {
	tc := newTestCLI(t)

	_, _, err := tc.run(t, "s3cret\n", "credentials", "set")
	assert.Equal(t, config.ExitCodeUsage, ExitCode(err))

	_, _, err = tc.run(t, "\n", "credentials", "set", "--web-user", "alice")
	assert.Equal(t, config.ExitCodeUsage, ExitCode(err))
	assert.Empty(t, tc.saved)

	_, _, err = tc.run(t, "", "credentials", "delete")
	assert.Equal(t, config.ExitCodeUsage, ExitCode(err))
}

func TestServe_InvalidSchedule(t *testing.T) {
	tc := newTestCLI(t)
	_, _, err := tc.run(t, "", "serve", "--refresh", "not a schedule")
	require.Error(t, err)
	assert.Equal(t, config.ExitCodeUsage, ExitCode(err))
}

// TestServe_Lifecycle runs the real server until the context is cancelled.
func TestServe_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping serve lifecycle in short mode")
	}

	tc := newTestCLI(t)
	in := tc.writeInput(t, appointments)
	out := tc.path("served.ics")
	port := "18098"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := tc.runContext(t, ctx, "", "serve", "-i", in, "-o", out, "--port", port, "--refresh", "@every 1h")
		done <- err
	}()

	url := "http://" + config.LocalhostBindAddr + ":" + port + "/"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && strings.Contains(string(body), "SUMMARY:Dentist")
	}, 5*time.Second, 50*time.Millisecond)

	// The refresh also keeps the file output current.
	assert.FileExists(t, out)

	resp, err := http.Get(url + "healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop after cancellation")
	}
}
