package main

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 6, 4))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTemplatesCommand(t *testing.T) {
	out, err := execute(t, "templates", "--category", "camera")
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	if !strings.Contains(out, "canon-r5") || !strings.Contains(out, "sony-a7iv") {
		t.Errorf("missing camera templates:\n%s", out)
	}
	if strings.Contains(out, "iphone-15-pro") {
		t.Errorf("mobile template listed under camera:\n%s", out)
	}

	if _, err := execute(t, "templates", "--category", "drone"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestProcessCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	outDir := filepath.Join(dir, "out")

	good := writePNG(t, dir, "photo.png")
	bad := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(bad, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "process", good, "--template", "pixel-8", "--out", outDir)
	if err != nil {
		t.Fatalf("process: %v\n%s", err, out)
	}
	if !strings.Contains(out, "ok    photo.png -> shifted_photo.png [pixel-8]") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(outDir, "shifted_photo.png")); err != nil {
		t.Errorf("output not saved: %v", err)
	}

	out, err = execute(t, "process", good, bad, "--out", outDir)
	if !errors.Is(err, errFilesFailed) {
		t.Fatalf("err = %v, want errFilesFailed\n%s", err, out)
	}
	if !strings.Contains(out, "fail  notes.txt") {
		t.Errorf("failure not reported:\n%s", out)
	}
}

func TestProcessCommand_UnknownTemplate(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	good := writePNG(t, dir, "photo.png")

	if _, err := execute(t, "process", good, "--template", "nokia-3310", "--out", dir); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestInspectCommand(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "photo.png")

	out, err := execute(t, "inspect", path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out, "photo.png") || !strings.Contains(out, "no metadata found") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}
