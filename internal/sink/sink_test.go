package sink

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestDir_Save(t *testing.T) {
	dir := t.TempDir()
	d := NewDir(dir)

	path, err := d.Save(context.Background(), "report.pdf", "application/pdf", []byte("one"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if path != filepath.Join(dir, "report.pdf") {
		t.Errorf("unexpected path %s", path)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "one" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestDir_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	d := NewDir(dir)

	names := []string{"report.pdf", "report (1).pdf", "report (2).pdf"}
	for i, want := range names {
		path, err := d.Save(context.Background(), "report.pdf", "", []byte{byte(i)})
		if err != nil {
			t.Fatalf("Save #%d: %v", i, err)
		}
		if filepath.Base(path) != want {
			t.Errorf("Save #%d: expected %s, got %s", i, want, filepath.Base(path))
		}
	}

	data, _ := os.ReadFile(filepath.Join(dir, "report.pdf"))
	if len(data) != 1 || data[0] != 0 {
		t.Errorf("original file was overwritten: %v", data)
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{`..\..\boot.ini`, "boot.ini"},
		{"dir/", fallbackName},
		{"..", fallbackName},
		{"  ", fallbackName},
	}
	for _, tt := range tests {
		if got := SafeName(tt.in); got != tt.want {
			t.Errorf("SafeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDir_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewDir(t.TempDir()).Save(ctx, "a.txt", "", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type fakePut struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePut) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3_Save(t *testing.T) {
	fake := &fakePut{}
	s := newS3WithClient(fake, "downloads", "/team/reports/")

	loc, err := s.Save(context.Background(), "q1.pdf", "application/pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if loc != "s3://downloads/team/reports/q1.pdf" {
		t.Errorf("unexpected location %s", loc)
	}
	if aws.ToString(fake.input.Key) != "team/reports/q1.pdf" {
		t.Errorf("unexpected key %s", aws.ToString(fake.input.Key))
	}
	if aws.ToString(fake.input.ContentType) != "application/pdf" {
		t.Errorf("unexpected content type %s", aws.ToString(fake.input.ContentType))
	}
	if string(fake.body) != "%PDF" {
		t.Errorf("unexpected body %q", fake.body)
	}
}

func TestS3_SaveError(t *testing.T) {
	s := newS3WithClient(&fakePut{err: errors.New("access denied")}, "b", "")
	if _, err := s.Save(context.Background(), "x", "", nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseS3URL(t *testing.T) {
	bucket, prefix, err := parseS3URL("s3://my-bucket/some/prefix/")
	if err != nil {
		t.Fatal(err)
	}
	if bucket != "my-bucket" || prefix != "some/prefix" {
		t.Errorf("got bucket=%q prefix=%q", bucket, prefix)
	}
	if _, _, err := parseS3URL("s3:///nobucket"); err == nil {
		t.Error("expected error for missing bucket")
	}
}

func TestOpen_Dir(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), dir, S3Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*Dir); !ok {
		t.Errorf("expected *Dir, got %T", s)
	}
}
