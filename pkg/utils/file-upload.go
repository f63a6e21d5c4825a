package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

const MaxAvatarFileSize = 2 << 20 // 2MB

var allowedAvatarExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

var allowedAvatarContentTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
}

// ValidateAvatarFile checks extension, size limit and sniffed content
// type of an uploaded avatar before it is staged for storage.
func ValidateAvatarFile(fileHeader *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedAvatarExtensions[ext] {
		return fmt.Errorf("file type %s not allowed, expected jpg, jpeg, png or webp", ext)
	}

	if fileHeader.Size > MaxAvatarFileSize {
		return fmt.Errorf("file too large: %d bytes, limit is %d", fileHeader.Size, MaxAvatarFileSize)
	}

	_, err := ValidateFileTypeFromContent(fileHeader, allowedAvatarContentTypes)
	return err
}

// ValidateFileTypeFromContent extracts and validates file type based on actual file content.
// It reads the first 512 bytes of the file to detect the content type using http.DetectContentType.
// Returns the validated content type and an error if validation fails.
func ValidateFileTypeFromContent(fileHeader *multipart.FileHeader, allowedTypes []string) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if n == 0 {
		return "", fmt.Errorf("file is empty")
	}

	contentType := http.DetectContentType(buffer[:n])

	allowedMap := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowedMap[t] = true
	}

	if !allowedMap[contentType] {
		return "", fmt.Errorf("invalid file type: %s", contentType)
	}

	// the file handle is closed here, gin reopens it when SaveUploadedFile is called
	_, _ = file.Seek(0, 0)

	return contentType, nil
}
