package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/bindkit/internal/config"
	"github.com/vango-dev/bindkit/pkg/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bindkit.json"), `{"name": "demo", "components": {"dir": "components"}}`)
	writeFile(t, filepath.Join(dir, "components", "user-card.html"), `<b bind-text="name"></b>`)
	writeFile(t, filepath.Join(dir, "page.html"), `<div><h1 bind-text="title"></h1><span bind-component="'user-card'" bind-param-vm="user"></span></div>`)
	writeFile(t, filepath.Join(dir, "model.json"), `{"title": "Users", "user": {"name": "ann"}}`)

	out, err := execute(t, "render",
		"--config", filepath.Join(dir, "bindkit.json"),
		"--template", filepath.Join(dir, "page.html"),
		"--model", filepath.Join(dir, "model.json"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{`<h1 bind-text="title">Users</h1>`, `<b bind-text="name">ann</b>`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderRequiresTemplate(t *testing.T) {
	if _, err := execute(t, "render"); err == nil {
		t.Fatal("expected missing flag error")
	}
}

func TestReadModel(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, `[1, 2]`)

	if _, err := readModel(bad); errors.CodeOf(err) != errors.CodeConfigInvalid {
		t.Errorf("err = %v, want %s", err, errors.CodeConfigInvalid)
	}
	m, err := readModel("")
	if err != nil || len(m) != 0 {
		t.Errorf("readModel(\"\") = %v, %v", m, err)
	}
}

func TestServeOptionsApply(t *testing.T) {
	cfg := config.New()
	serveOptions{
		components: "ui",
		bucket:     "assets",
		prefix:     "components/",
		region:     "eu-west-1",
	}.apply(cfg)

	want := config.ComponentsConfig{
		Dir: "ui",
		Ext: cfg.Components.Ext,
		S3: config.S3Config{
			Bucket: "assets",
			Prefix: "components/",
			Region: "eu-west-1",
		},
	}
	if diff := cmp.Diff(want, cfg.Components); diff != "" {
		t.Errorf("components mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestRuntimeConfig(t *testing.T) {
	cfg := config.New()
	cfg.Prefix = "data-"
	cfg.IgnoredTags = []string{"pre"}

	rc := runtimeConfig(cfg, nil, nil)
	if rc.Prefix != "data-" {
		t.Errorf("Prefix = %q", rc.Prefix)
	}
	if diff := cmp.Diff([]string{"pre"}, rc.IgnoredTags); diff != "" {
		t.Errorf("IgnoredTags mismatch (-want +got):\n%s", diff)
	}
}

func TestVersionShort(t *testing.T) {
	out, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version = %q, want %q", out, version)
	}
}
