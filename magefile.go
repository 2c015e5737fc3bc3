//go:build mage

package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	ServerDir = "cmd/server"
	CLIDir    = "cmd/formsctl"
	BuildDir  = "bin"
)

// tools installed by Tools and required by Lint, Fmt and Vuln.
var tools = map[string]string{
	"goimports":     "golang.org/x/tools/cmd/goimports@latest",
	"golangci-lint": "github.com/golangci/golangci-lint/cmd/golangci-lint@latest",
	"govulncheck":   "golang.org/x/vuln/cmd/govulncheck@latest",
}

func sh(env map[string]string, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stdout, cmd.Stderr, cmd.Stdin = os.Stdout, os.Stderr, os.Stdin
	return cmd.Run()
}

func goCmd(args ...string) error { return sh(nil, "go", args...) }

func capture(name string, args ...string) string {
	var buf bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout, cmd.Stderr = &buf, &buf
	_ = cmd.Run()
	return strings.TrimSpace(buf.String())
}

func requireTool(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s not found; run 'mage tools'", name)
	}
	return nil
}

func binary(dir string) string {
	name := filepath.Base(dir)
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(BuildDir, name)
}

// Tools installs goimports, golangci-lint and govulncheck.
func Tools() error {
	for _, pkg := range tools {
		if err := goCmd("install", pkg); err != nil {
			return err
		}
	}
	return nil
}

// Build compiles the server and formsctl into ./bin.
func Build() error {
	if err := os.MkdirAll(BuildDir, 0o755); err != nil {
		return err
	}
	for _, dir := range []string{ServerDir, CLIDir} {
		if err := goCmd("build", "-trimpath", "-ldflags", "-s -w", "-o", binary(dir), "./"+dir); err != nil {
			return err
		}
	}
	return nil
}

// Run starts the intake server from source.
func Run() error {
	return goCmd("run", "./"+ServerDir)
}

// Health checks SharePoint connectivity for HEALTH_PROVINCE with formsctl.
func Health() error {
	return goCmd("run", "./"+CLIDir, "health")
}

// Test runs the test suite with the race detector; NO_RACE=1 skips it.
func Test() error {
	if os.Getenv("NO_RACE") == "1" {
		return goCmd("test", "./...")
	}
	return sh(map[string]string{"CGO_ENABLED": "1"}, "go", "test", "-race", "./...")
}

// Cover writes coverage.out and coverage.html.
func Cover() error {
	if err := goCmd("test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return goCmd("tool", "cover", "-html=coverage.out", "-o", "coverage.html")
}

// Lint runs go vet and golangci-lint.
func Lint() error {
	if err := requireTool("golangci-lint"); err != nil {
		return err
	}
	if err := goCmd("vet", "./..."); err != nil {
		return err
	}
	return sh(nil, "golangci-lint", "run")
}

// Fmt rewrites sources with gofmt and goimports.
func Fmt() error {
	if err := requireTool("goimports"); err != nil {
		return err
	}
	if err := goCmd("fmt", "./..."); err != nil {
		return err
	}
	return sh(nil, "goimports", "-w", ".")
}

// FmtCheck fails when any file needs formatting.
func FmtCheck() error {
	if files := capture("gofmt", "-l", "."); files != "" {
		return errors.New("needs gofmt:\n" + files)
	}
	return nil
}

// TidyCheck fails when go mod tidy would change go.mod or go.sum.
func TidyCheck() error {
	before := capture("git", "status", "--porcelain", "--", "go.mod", "go.sum")
	if err := goCmd("mod", "tidy"); err != nil {
		return err
	}
	if after := capture("git", "status", "--porcelain", "--", "go.mod", "go.sum"); after != before {
		return fmt.Errorf("go.mod/go.sum not tidy:\n%s", capture("git", "--no-pager", "diff", "--", "go.mod", "go.sum"))
	}
	return nil
}

// Vuln checks dependencies for known vulnerabilities.
func Vuln() error {
	if err := requireTool("govulncheck"); err != nil {
		return err
	}
	return sh(nil, "govulncheck", "./...")
}

// Clean removes binaries and coverage output.
func Clean() {
	_ = os.RemoveAll(BuildDir)
	_ = os.Remove("coverage.out")
	_ = os.Remove("coverage.html")
}

// Verify runs every check followed by the build and the tests.
func Verify() error {
	for _, step := range []func() error{FmtCheck, TidyCheck, Lint, Vuln, Build, Test} {
		if err := step(); err != nil {
			return err
		}
	}
	fmt.Println("verify: ok")
	return nil
}
