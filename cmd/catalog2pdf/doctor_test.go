package main

// Notes:
// - checkChrome depends on the host; we only test it through the report
//   shape. Environment and storage checks use injected getenv and config.

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestIsContainer - Container detection signals
// ---------------------------------------------------------------------------

func TestIsContainer(t *testing.T) {
	t.Parallel()

	none := func(string) bool { return false }

	tests := []struct {
		name     string
		vars     map[string]string
		exists   func(string) bool
		want     bool
		wantHint string
	}{
		{name: "nothing", exists: none, want: false},
		{name: "explicit override", vars: map[string]string{"CATALOG2PDF_CONTAINER": "1"}, exists: none, want: true, wantHint: "CATALOG2PDF_CONTAINER=1"},
		{name: "dockerenv", exists: func(p string) bool { return p == "/.dockerenv" }, want: true, wantHint: "/.dockerenv"},
		{name: "podman", vars: map[string]string{"container": "podman"}, exists: none, want: true, wantHint: "container=podman"},
		{name: "kubernetes", vars: map[string]string{"KUBERNETES_SERVICE_HOST": "10.0.0.1"}, exists: none, want: true, wantHint: "KUBERNETES_SERVICE_HOST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, hint := isContainer(mapGetenv(tt.vars), tt.exists)
			if got != tt.want || hint != tt.wantHint {
				t.Errorf("isContainer() = %v, %q, want %v, %q", got, hint, tt.want, tt.wantHint)
			}
		})
	}
}

func TestCheckEnvironment_SandboxWarning(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		vars     map[string]string
		wantWarn bool
	}{
		{name: "plain host", wantWarn: false},
		{name: "ci with sandbox", vars: map[string]string{"CI": "true"}, wantWarn: true},
		{name: "ci without sandbox", vars: map[string]string{"CI": "true", "ROD_NO_SANDBOX": "1"}, wantWarn: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			getenv := mapGetenv(tt.vars)
			r := &doctorResult{Env: envInfo{NoSandbox: getenv("ROD_NO_SANDBOX")}}
			checkEnvironment(r, getenv, func(string) bool { return false })
			if got := len(r.Warnings) > 0; got != tt.wantWarn {
				t.Errorf("warnings = %v, want warning %v", r.Warnings, tt.wantWarn)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestCheckStorage - Store reachability
// ---------------------------------------------------------------------------

func TestCheckStorage(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	te.mustRun(t, "add", "--name", "Gorra")

	r := &doctorResult{}
	checkStorage(context.Background(), r, te.Environment, &commonFlags{})

	if !r.Storage.Reachable || r.Storage.Products != 1 || r.Storage.Store != "file" {
		t.Errorf("Storage = %+v", r.Storage)
	}
	if len(r.Errors) != 0 {
		t.Errorf("Errors = %v", r.Errors)
	}
}

func TestCheckStorage_EmptyCatalogWarns(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	r := &doctorResult{}
	checkStorage(context.Background(), r, te.Environment, &commonFlags{})

	if len(r.Warnings) == 0 || !strings.Contains(r.Warnings[0], "no products") {
		t.Errorf("Warnings = %v", r.Warnings)
	}
}

func TestCheckStorage_BadConfig(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	te.Config.Blobs.Driver = "ftp"

	r := &doctorResult{}
	checkStorage(context.Background(), r, te.Environment, &commonFlags{})
	if len(r.Errors) == 0 {
		t.Error("expected a storage error for an unknown blob driver")
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd - Report output
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_JSON(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	code := runDoctorCmd(context.Background(), []string{"--json"}, te.Environment)

	var r doctorResult
	if err := json.Unmarshal(te.stdout.Bytes(), &r); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, te.stdout.String())
	}
	switch r.Status {
	case statusReady, statusWarnings:
		if code != ExitSuccess {
			t.Errorf("exit = %d for status %s", code, r.Status)
		}
	case statusErrors:
		if code != ExitGeneral {
			t.Errorf("exit = %d for status %s", code, r.Status)
		}
	default:
		t.Errorf("Status = %q", r.Status)
	}
	if !r.Storage.Reachable {
		t.Errorf("Storage = %+v", r.Storage)
	}
}

func TestRunDoctorCmd_BadFlag(t *testing.T) {
	t.Parallel()

	te := newTestEnv(t)
	if code := runDoctorCmd(context.Background(), []string{"--bogus"}, te.Environment); code != ExitUsage {
		t.Errorf("exit = %d, want %d", code, ExitUsage)
	}
}

func TestPrintDoctorResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		r    *doctorResult
		want []string
	}{
		{
			name: "ready",
			r: &doctorResult{
				Status:  statusReady,
				Chrome:  chromeInfo{Found: true, Path: "/usr/bin/chromium", Version: "Chromium 120", Sandbox: true},
				Env:     envInfo{OS: "linux", Arch: "amd64"},
				System:  systemInfo{TempWritable: true, OutputDir: "/tmp/out", OutputWritable: true},
				Storage: storageInfo{Store: "file", Blobs: "local(/tmp/b)", Reachable: true, Products: 4},
			},
			want: []string{"[OK] Found at /usr/bin/chromium", "file store, 4 product(s)", "Status: Ready to export"},
		},
		{
			name: "errors",
			r: &doctorResult{
				Status: statusErrors,
				Errors: []string{"Chrome/Chromium not found"},
			},
			want: []string{"[ERROR] Not found", "[ERROR] Catalog: not reachable", "Status: Not ready"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			printDoctorResult(&buf, tt.r)
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q\n%s", want, buf.String())
				}
			}
		})
	}
}
