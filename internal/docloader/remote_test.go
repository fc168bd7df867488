package docloader

import "testing"

func TestSplitS3URLBucketAndKey(t *testing.T) {
	bucket, key, err := splitS3URL("s3://hackeval-decks/teams/rocket.pdf")
	if err != nil {
		t.Fatalf("splitS3URL: %v", err)
	}
	if bucket != "hackeval-decks" || key != "teams/rocket.pdf" {
		t.Fatalf("bucket=%q key=%q", bucket, key)
	}
}

func TestSplitS3URLBucketOnlyNoTrailingSlash(t *testing.T) {
	bucket, key, err := splitS3URL("s3://hackeval-decks")
	if err != nil {
		t.Fatalf("splitS3URL: %v", err)
	}
	if bucket != "hackeval-decks" || key != "" {
		t.Fatalf("bucket=%q key=%q, want hackeval-decks/\"\"", bucket, key)
	}
}

func TestSplitS3URLRejectsEmptyBucket(t *testing.T) {
	if _, _, err := splitS3URL("s3:///teams/rocket.pdf"); err == nil {
		t.Fatal("expected error for empty bucket")
	}
}

func TestDownloadS3ToTempRejectsMissingKey(t *testing.T) {
	if _, err := downloadS3ToTemp(nil, "s3://hackeval-decks"); err == nil {
		t.Fatal("expected error when s3 url names a bucket with no key")
	}
}
