// SPDX-License-Identifier: MIT

package validate

import (
	"strings"
	"testing"
)

func TestValidatorAccumulates(t *testing.T) {
	v := New()
	v.Positive("Width", -1)
	v.NotEmpty("Name", "  ")
	v.Range("Take", 9999, 0, 999)

	if v.IsValid() {
		t.Fatal("expected validator to be invalid")
	}
	if got := len(v.Errors()); got != 3 {
		t.Fatalf("expected 3 errors, got %d", got)
	}

	err := v.Err()
	if err == nil {
		t.Fatal("expected non-nil error")
	}
	if !strings.Contains(err.Error(), "Width") || !strings.Contains(err.Error(), "Take") {
		t.Fatalf("joined error missing fields: %v", err)
	}
}

func TestValidatorErrNilWhenValid(t *testing.T) {
	v := New()
	v.Positive("Width", 1920)
	v.FrameRate("FrameRate", 30)
	v.Resolution("Resolution", 1920, 1080)

	if !v.IsValid() {
		t.Fatalf("unexpected errors: %v", v.Errors())
	}
	if err := v.Err(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestFrameRate(t *testing.T) {
	tests := []struct {
		name    string
		fps     float64
		wantErr bool
	}{
		{"zero", 0, true},
		{"negative", -24, true},
		{"one", 1, false},
		{"film", 23.976, false},
		{"ceiling", 120, false},
		{"above ceiling", 121, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.FrameRate("FrameRate", tt.fps)
			if got := !v.IsValid(); got != tt.wantErr {
				t.Fatalf("fps=%g wantErr=%v got=%v", tt.fps, tt.wantErr, got)
			}
		})
	}
}

func TestResolution(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		wantErr bool
	}{
		{"hd", 1920, 1080, false},
		{"square", 512, 512, false},
		{"zero width", 0, 1080, true},
		{"zero height", 1920, 0, true},
		{"negative", -1, -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Resolution("Resolution", tt.w, tt.h)
			if got := !v.IsValid(); got != tt.wantErr {
				t.Fatalf("%dx%d wantErr=%v got=%v", tt.w, tt.h, tt.wantErr, got)
			}
		})
	}
}

func TestDirectoryCreatesWhenAllowed(t *testing.T) {
	dir := t.TempDir()
	v := New()
	v.Directory("OutputPath", dir+"/renders/take1", false)
	if !v.IsValid() {
		t.Fatalf("unexpected errors: %v", v.Errors())
	}
}

func TestDirectoryRejectsTraversal(t *testing.T) {
	v := New()
	v.Directory("OutputPath", "../escape", false)
	if v.IsValid() {
		t.Fatal("expected traversal rejection")
	}
}
