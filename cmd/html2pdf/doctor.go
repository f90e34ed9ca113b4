package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"slices"
	"strings"
	"time"

	html2pdf "github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/config"
	"github.com/alnah/go-html2pdf/internal/fileutil"
)

// versionTimeout bounds "engine --version"; some builds hang on exit.
const versionTimeout = 5 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Engine   engineInfo `json:"engine"`
	Config   configInfo `json:"config"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// engineInfo holds rendering engine detection results.
type engineInfo struct {
	Found     bool   `json:"found"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	PatchedQt bool   `json:"patched_qt"`
}

// configInfo reports which config file convert would load.
type configInfo struct {
	Path     string   `json:"path,omitempty"`
	Searched []string `json:"searched"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	EngineVar     string `json:"html2pdf_engine,omitempty"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	result := runDoctor(env)

	if slices.Contains(args, "--json") {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			EngineVar: env.Getenv("HTML2PDF_ENGINE"),
		},
	}

	checkEngine(result)
	checkConfig(result)
	checkEnvironment(result, env.Getenv)
	checkSystem(result)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkEngine resolves the engine and reads its version.
func checkEngine(result *doctorResult) {
	name := result.Env.EngineVar
	if name == "" {
		name = html2pdf.DefaultExecutable
	}

	path, err := html2pdf.ResolveExecutable(name)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("%s not found. Install it or set HTML2PDF_ENGINE", name))
		return
	}
	result.Engine.Found = true
	result.Engine.Path = path

	ctx, cancel := context.WithTimeout(context.Background(), versionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "--version").Output() // #nosec G204 -- resolved engine path
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get engine version: %v", err))
		return
	}

	result.Engine.Version = strings.TrimSpace(string(out))
	result.Engine.PatchedQt = strings.Contains(result.Engine.Version, "patched qt")
	if !result.Engine.PatchedQt {
		result.Warnings = append(result.Warnings,
			"Engine built without patched Qt may not exit after writing the PDF. Use --ensure-termination")
	}
}

// checkConfig reports the config file convert would load by default.
func checkConfig(result *doctorResult) {
	result.Config.Searched = config.SearchPaths(config.DefaultName())
	for _, p := range result.Config.Searched {
		if fileutil.FileExists(p) {
			result.Config.Path = p
			break
		}
	}
	if result.Config.Path == "" {
		return
	}
	if _, err := config.LoadConfig(result.Config.Path); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Config %s is invalid: %v", result.Config.Path, err))
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, getenv func(string) string) {
	result.Env.Container, result.Env.ContainerHint = isContainer(getenv)

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if (result.Env.Container || result.Env.CI) && !result.Engine.PatchedQt && result.Engine.Found {
		result.Warnings = append(result.Warnings,
			"Headless engine builds without patched Qt need an X server (e.g. xvfb-run)")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	if getenv("HTML2PDF_CONTAINER") == "1" {
		return true, "HTML2PDF_CONTAINER=1"
	}
	if fileutil.FileExists("/.dockerenv") {
		return true, "/.dockerenv"
	}
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory used for detached generations.
func checkSystem(result *doctorResult) {
	_, cleanup, err := fileutil.ReserveTempFile("pdf")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", os.TempDir()))
		return
	}
	cleanup()
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "html2pdf doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Engine")
	if r.Engine.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Engine.Path)
		if r.Engine.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Engine.Version)
		}
	} else {
		fmt.Fprintln(w, "  [ERROR] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Config")
	if r.Config.Path != "" {
		fmt.Fprintf(w, "  [OK] Using %s\n", r.Config.Path)
	} else {
		fmt.Fprintln(w, "  [OK] No config file, using defaults")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to convert")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
