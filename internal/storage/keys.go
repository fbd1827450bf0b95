package storage

import (
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalKeyPrefix marks keys written by LocalStore.
const LocalKeyPrefix = "/uploads/"

type KeyKind int

const (
	KeyRemote KeyKind = iota
	KeyLocal
	KeyURL
)

// Classify inspects the key shape. Older rows may hold absolute URLs to the
// object store instead of bare keys.
func Classify(key string) KeyKind {
	switch {
	case strings.HasPrefix(key, LocalKeyPrefix):
		return KeyLocal
	case strings.HasPrefix(key, "http://"), strings.HasPrefix(key, "https://"):
		return KeyURL
	default:
		return KeyRemote
	}
}

// BuildKey returns folder/<unixnano>-<random>-<sanitized name>.
func BuildKey(folder, originalName string, now time.Time) string {
	name := sanitizeFileName(path.Base(strings.ReplaceAll(originalName, "\\", "/")))
	if name == "" || name == "." {
		name = "document"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	key := strconv.FormatInt(now.UnixNano(), 10) + "-" + suffix + "-" + name

	folder = strings.Trim(folder, "/")
	if folder == "" {
		return key
	}
	return folder + "/" + key
}

// objectKeyFromURL extracts the object key from an absolute object-store URL.
// Path-style URLs carry the bucket as the first segment.
func objectKeyFromURL(raw, bucket string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidKey
	}
	key := strings.TrimPrefix(parsed.Path, "/")
	if bucket != "" && !strings.HasPrefix(parsed.Host, bucket+".") {
		key = strings.TrimPrefix(key, bucket+"/")
	}
	key, err = url.PathUnescape(key)
	if err != nil || key == "" {
		return "", ErrInvalidKey
	}
	return key, nil
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_', r == '.':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-.")
}
