// internal/utils/crypto.go
package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// HashFile returns the hex sha256 digest and byte size of the file at path.
func HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	hasher := sha256.New()
	size, err := io.Copy(hasher, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(hasher.Sum(nil)), size, nil
}

func ValidateFileHash(fileData []byte, expectedHash string) bool {
	sum := sha256.Sum256(fileData)
	return hex.EncodeToString(sum[:]) == expectedHash
}
