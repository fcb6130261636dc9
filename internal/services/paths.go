package services

import "strings"

// StorageRoot is the top-level prefix for uploaded paper objects.
const StorageRoot = "papers"

// StoragePath is the decomposed object name of an uploaded paper:
// papers/{userId}/{paperId}/{fileName}.
type StoragePath struct {
	UserID   string
	PaperID  string
	FileName string
}

// Object reassembles the GCS object name.
func (p StoragePath) Object() string {
	return strings.Join([]string{StorageRoot, p.UserID, p.PaperID, p.FileName}, "/")
}

// ParseStoragePath decomposes a GCS object name into its structured parts.
// The second return value is false for anything that is not a well-formed
// four-segment paper path; callers skip such objects rather than erroring,
// since buckets can hold unrelated artifacts.
func ParseStoragePath(objectName string) (StoragePath, bool) {
	parts := strings.Split(objectName, "/")
	if len(parts) != 4 || parts[0] != StorageRoot {
		return StoragePath{}, false
	}
	for _, part := range parts[1:] {
		if part == "" {
			return StoragePath{}, false
		}
	}
	return StoragePath{UserID: parts[1], PaperID: parts[2], FileName: parts[3]}, true
}
