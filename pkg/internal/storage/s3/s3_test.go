package s3_test

import (
	"testing"

	"github.com/yeisme/mediavault/pkg/configs"
	s3c "github.com/yeisme/mediavault/pkg/internal/storage/s3"
)

// TestBucket 测试标签到存储桶的映射.
func TestBucket(t *testing.T) {
	cli, err := s3c.New(configs.S3Config{
		Endpoint:     "http://localhost:9000",
		Region:       "us-east-1",
		BucketPrefix: "mv-",
		Buckets:      map[string]string{"avatars": "profile-pictures"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := cli.Bucket("attachments"); got != "mv-attachments" {
		t.Errorf("Bucket(attachments) = %q", got)
	}

	if got := cli.Bucket("avatars"); got != "profile-pictures" {
		t.Errorf("Bucket(avatars) = %q", got)
	}

	if cli.EndpointURL().Host != "localhost:9000" {
		t.Errorf("endpoint = %s", cli.EndpointURL())
	}
}
