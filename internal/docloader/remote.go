package docloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"

	"github.com/local/hackeval/internal/storage"
)

// resolveLocal materializes ref as a local filesystem path, downloading it
// first if it names a remote location. The returned cleanup func removes any
// temp file created; it is a no-op for paths that were already local.
//
// Supports file://path or bare filesystem paths, http(s):// URLs, and
// s3://bucket/key (via the AWS SDK v2 client in internal/storage).
func resolveLocal(ctx context.Context, ref string) (path string, cleanup func(), err error) {
	switch {
	case strings.HasPrefix(ref, "s3://"):
		p, derr := downloadS3ToTemp(ctx, ref)
		if derr != nil {
			return "", func() {}, derr
		}
		return p, func() { os.Remove(p) }, nil
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		p, derr := downloadHTTPToTemp(ctx, ref)
		if derr != nil {
			return "", func() {}, derr
		}
		return p, func() { os.Remove(p) }, nil
	case strings.HasPrefix(ref, "file://"):
		return strings.TrimPrefix(ref, "file://"), func() {}, nil
	default:
		return ref, func() {}, nil
	}
}

// DetermineTotalPages returns the number of pages for a PDF referenced by ref,
// downloading it to a temp file first when ref is remote.
func DetermineTotalPages(ctx context.Context, ref string) (int, error) {
	localPath, cleanup, err := resolveLocal(ctx, ref)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	n, err := api.PageCountFile(localPath)
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, nil
}

func downloadHTTPToTemp(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("http %d", resp.StatusCode)
	}
	f, err := os.CreateTemp("", "deckdl-*"+filepath.Ext(url))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", err
	}
	return f.Name(), nil
}

// splitS3URL parses an s3://bucket/key[...] reference into its bucket and
// key parts. key may be empty (a bucket-root prefix), but bucket may not.
func splitS3URL(s3url string) (bucket, key string, err error) {
	path := strings.TrimPrefix(s3url, "s3://")
	slash := strings.Index(path, "/")
	if slash <= 0 {
		if slash < 0 && path != "" {
			return path, "", nil
		}
		return "", "", fmt.Errorf("invalid s3 url: %s", s3url)
	}
	return path[:slash], path[slash+1:], nil
}

func downloadS3ToTemp(ctx context.Context, s3url string) (string, error) {
	bucket, key, err := splitS3URL(s3url)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", fmt.Errorf("invalid s3 url: %s", s3url)
	}

	s3Client, err := storage.NewS3Client(ctx, bucket)
	if err != nil {
		return "", fmt.Errorf("failed to create S3 client: %w", err)
	}

	data, metadata, err := s3Client.DownloadFilePlain(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to download from S3: %w", err)
	}

	filename := metadata.OriginalName
	if filename == "" {
		parts := strings.Split(key, "/")
		filename = parts[len(parts)-1]
	}

	var f *os.File
	if filename != "" && strings.Contains(filename, ".") {
		f, err = os.CreateTemp("", "s3deck-*"+filepath.Ext(filename))
	} else {
		f, err = os.CreateTemp("", "s3deck-*")
	}
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}

	log.Info().
		Str("bucket", bucket).
		Str("key", key).
		Str("original_name", filename).
		Str("temp_file", filepath.Base(f.Name())).
		Int("size", len(data)).
		Msg("downloaded deck from S3 to temp")

	return f.Name(), nil
}

// ExpandS3Glob lists all objects under an s3://bucket/prefix reference whose
// key has one of the allowed extensions, returning s3:// refs.
func ExpandS3Glob(ctx context.Context, s3URLPrefix string, allowedExt map[string]bool) ([]string, error) {
	bucket, prefix, err := splitS3URL(s3URLPrefix)
	if err != nil {
		return nil, err
	}

	s3Client, err := storage.NewS3Client(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	keys, err := s3Client.ListKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, k := range keys {
		ext := strings.ToLower(filepath.Ext(k))
		if allowedExt[ext] {
			out = append(out, "s3://"+bucket+"/"+k)
		}
	}
	return out, nil
}
