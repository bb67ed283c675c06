// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fsutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfineRelPath(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		target  string
		wantErr bool
	}{
		{name: "plain file", target: "Level1_Intro_001"},
		{name: "nested path", target: "renders/Level1/take_002"},
		{name: "dotdot in segment name", target: "takes..v2/frame"},
		{name: "escape via dotdot", target: "../outside", wantErr: true},
		{name: "escape deep", target: "a/../../outside", wantErr: true},
		{name: "absolute target", target: "/etc/passwd", wantErr: true},
		{name: "backslash", target: `..\outside`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConfineRelPath(root, tt.target)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, filepath.IsAbs(got))
			rel, err := filepath.Rel(root, got)
			require.NoError(t, err)
			assert.False(t, filepath.IsAbs(rel))
		})
	}
}
