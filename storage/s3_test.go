package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

type fakeS3 struct {
	s3iface.S3API
	puts    []*s3.PutObjectInput
	deletes []*s3.DeleteObjectInput
}

func (f *fakeS3) PutObject(in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(in *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, in)
	return &s3.DeleteObjectOutput{}, nil
}

func TestReportKey(t *testing.T) {
	now := time.Date(2024, time.May, 3, 10, 0, 0, 0, time.UTC)
	key := ReportKey("summary", "Summary_05-2024.pdf", now)
	if !strings.HasPrefix(key, "reports/summary/2024/05/Summary_05-2024-") {
		t.Fatalf("unexpected key prefix: %s", key)
	}
	if !strings.HasSuffix(key, ".pdf") {
		t.Fatalf("expected .pdf suffix, got %s", key)
	}
}

func TestContentType(t *testing.T) {
	cases := map[string]string{
		"a.pdf":  "application/pdf",
		"b.XLSX": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"c.bin":  "application/octet-stream",
	}
	for in, want := range cases {
		if got := ContentType(in); got != want {
			t.Fatalf("ContentType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUploadReportAndDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Statement_Ana_05-2024.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.3"), 0o644); err != nil {
		t.Fatal(err)
	}

	fake := &fakeS3{}
	svc := NewStorageServiceWithClient(fake, "chess", "us-east-1")

	url, err := svc.UploadReport(path, "statements")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(fake.puts) != 1 {
		t.Fatalf("expected one put, got %d", len(fake.puts))
	}
	key := aws.StringValue(fake.puts[0].Key)
	if url != "https://chess.s3.us-east-1.amazonaws.com/"+key {
		t.Fatalf("url %s does not match key %s", url, key)
	}
	if ct := aws.StringValue(fake.puts[0].ContentType); ct != "application/pdf" {
		t.Fatalf("content type = %s", ct)
	}

	if err := svc.DeleteFile(url); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := aws.StringValue(fake.deletes[0].Key); got != key {
		t.Fatalf("deleted key %s, want %s", got, key)
	}
	if err := svc.DeleteFile("not-a-url"); err == nil {
		t.Fatal("expected error for invalid url")
	}
}
