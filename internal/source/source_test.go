package source

import (
	"errors"
	"testing"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		raw        string
		wantScheme string
		wantBucket string
		wantPrefix string
		wantErr    bool
	}{
		{"s3://walls/landscapes/", "s3", "walls", "landscapes/", false},
		{"S3://walls", "s3", "walls", "", false},
		{"gs://public-walls/4k", "gs", "public-walls", "4k", false},
		{"az://container/sub/dir", "az", "container", "sub/dir", false},
		{"b2://bucket/prefix", "b2", "bucket", "prefix", false},
		{"https://example.com/img/day.jpg", "https", "example.com", "img/day.jpg", false},
		{"https://example.com/", "", "", "", true},
		{"s3:///nobucket", "", "", "", true},
		{"ftp://host/file.png", "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, err := ParseURI(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseURI error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if u.Scheme != tt.wantScheme || u.Bucket != tt.wantBucket || u.Prefix != tt.wantPrefix {
				t.Fatalf("ParseURI = %+v", u)
			}
			if u.String() != tt.raw {
				t.Fatalf("String() = %q, want %q", u.String(), tt.raw)
			}
		})
	}
}

func TestParseURIUnsupportedScheme(t *testing.T) {
	_, err := ParseURI("ftp://host/x.png")
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("err = %v, want ErrUnsupportedScheme", err)
	}
}

func TestIsRemote(t *testing.T) {
	tests := map[string]bool{
		"s3://bucket":        true,
		"https://x/y.png":    true,
		"file:///walls":      true,
		"/home/me/walls":     false,
		`C:\Users\me\walls`:  false,
		"relative/walls.jpg": false,
		"c://not-a-scheme":   false,
	}
	for in, want := range tests {
		if got := IsRemote(in); got != want {
			t.Errorf("IsRemote(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsImageKey(t *testing.T) {
	for _, k := range []string{"a.jpg", "dir/B.JPEG", "x.png", "y.webp", "z.tiff", "w.bmp", "v.gif"} {
		if !IsImageKey(k) {
			t.Errorf("IsImageKey(%q) = false", k)
		}
	}
	for _, k := range []string{"readme.txt", "dir/", "noext", "archive.tar.gz"} {
		if IsImageKey(k) {
			t.Errorf("IsImageKey(%q) = true", k)
		}
	}
}

func TestContainedPath(t *testing.T) {
	base := t.TempDir()
	if _, err := containedPath(base, "a/b.png"); err != nil {
		t.Fatalf("nested path rejected: %v", err)
	}
	if _, err := containedPath(base, "../escape.png"); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
	if _, err := containedPath(base, "a/../../escape.png"); err == nil {
		t.Fatal("expected nested traversal to be rejected")
	}
}

func TestRelativeKey(t *testing.T) {
	tests := []struct{ prefix, key, want string }{
		{"walls/", "walls/a.png", "a.png"},
		{"walls", "walls/sub/a.png", "sub/a.png"},
		{"", "a.png", "a.png"},
		{"walls/a.png", "walls/a.png", "a.png"},
	}
	for _, tt := range tests {
		if got := relativeKey(tt.prefix, tt.key); got != tt.want {
			t.Errorf("relativeKey(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
		}
	}
}
