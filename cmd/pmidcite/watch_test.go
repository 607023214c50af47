package main

import (
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
)

func TestIsInputChange(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write", fsnotify.Event{Name: "docs/paper.md", Op: fsnotify.Write}, true},
		{"create after rename save", fsnotify.Event{Name: "docs/paper.md", Op: fsnotify.Create}, true},
		{"unclean path", fsnotify.Event{Name: "docs/./paper.md", Op: fsnotify.Write}, true},
		{"chmod", fsnotify.Event{Name: "docs/paper.md", Op: fsnotify.Chmod}, false},
		{"remove", fsnotify.Event{Name: "docs/paper.md", Op: fsnotify.Remove}, false},
		{"other file", fsnotify.Event{Name: "docs/notes.md", Op: fsnotify.Write}, false},
		{"own output", fsnotify.Event{Name: "docs/paper_cited.md", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isInputChange(tt.event, "docs/paper.md", "docs/paper_cited.md"); got != tt.want {
				t.Errorf("isInputChange(%v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}

func TestWatchOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "paper.md")

	tests := []struct {
		name    string
		in      string
		out     string
		want    string
		wantErr bool
	}{
		{name: "default", in: in, want: filepath.Join(dir, "paper_cited.md")},
		{name: "directory", in: in, out: filepath.Join(dir, "build") + "/", want: filepath.Join(dir, "build", "paper_cited.md")},
		{name: "stdin", in: "-", wantErr: true},
		{name: "stdout", in: in, out: "-", wantErr: true},
		{name: "output is input", in: in, out: in, wantErr: true},
		{name: "output is input, unclean", in: in, out: filepath.Join(dir, ".", "paper.md"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := watchOutput(tt.in, tt.out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("watchOutput() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("watchOutput() = %q, want %q", got, tt.want)
			}
		})
	}
}
