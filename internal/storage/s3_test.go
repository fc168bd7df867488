package storage

import "testing"

func TestBuildMetadataExtractsFilenameAndCustomHeaders(t *testing.T) {
	contentLength := int64(4096)
	headers := map[string]string{
		"name":              "pitch.pdf",
		"encryption-format": "GCM3NCR0",
		"team":              "rocket",
	}

	meta := buildMetadata(headers, &contentLength)

	if meta.OriginalName != "pitch.pdf" {
		t.Fatalf("OriginalName = %q, want pitch.pdf", meta.OriginalName)
	}
	if meta.EncryptionFormat != "GCM3NCR0" {
		t.Fatalf("EncryptionFormat = %q", meta.EncryptionFormat)
	}
	if meta.Size != 4096 {
		t.Fatalf("Size = %d, want 4096", meta.Size)
	}
	if meta.Metadata["team"] != "rocket" {
		t.Fatalf("Metadata[team] = %q, want rocket", meta.Metadata["team"])
	}
}

func TestBuildMetadataFallsBackToCapitalizedNameKey(t *testing.T) {
	headers := map[string]string{"Name": "Deck.pptx"}
	meta := buildMetadata(headers, nil)
	if meta.OriginalName != "Deck.pptx" {
		t.Fatalf("OriginalName = %q, want Deck.pptx", meta.OriginalName)
	}
	if meta.Size != 0 {
		t.Fatalf("Size = %d, want 0 for nil content length", meta.Size)
	}
}

func TestBuildMetadataNilHeaders(t *testing.T) {
	meta := buildMetadata(nil, nil)
	if meta.OriginalName != "" || meta.EncryptionFormat != "" {
		t.Fatalf("expected zero-value metadata, got %+v", meta)
	}
}

func TestDecryptDataRoundTripsLegacyCBC(t *testing.T) {
	client := &S3Client{}
	plaintext := []byte("%PDF-1.4 fake pitch deck bytes")

	encrypted, err := client.encryptLegacyCBC(plaintext, "s3cr3t")
	if err != nil {
		t.Fatalf("encryptLegacyCBC: %v", err)
	}

	decrypted, format, err := client.decryptData(encrypted, "s3cr3t")
	if err != nil {
		t.Fatalf("decryptData: %v", err)
	}
	if format != "3NCR0PTD" {
		t.Fatalf("format = %q, want 3NCR0PTD", format)
	}
	if string(decrypted) != string(plaintext) {
		t.Fatalf("decrypted = %q, want %q", decrypted, plaintext)
	}
}

func TestDecryptDataRejectsPlainBytesWithWrongPassword(t *testing.T) {
	client := &S3Client{}
	// A plain, unencrypted PDF has no magic number match, so decryptData
	// falls into decryptLegacyGCM and must fail rather than return garbage.
	plainPDF := []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\nreal deck bytes that are not encrypted")

	_, _, err := client.decryptData(plainPDF, "")
	if err == nil {
		t.Fatal("expected decryptData to fail on plain, non-encrypted bytes")
	}
}
