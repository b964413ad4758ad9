package givehub

import (
	"encoding/base64"
	"errors"
	"net/http"
)

// EncodeImage encodes an in-memory image as a base64 data URI suitable
// for the media endpoint, sniffing the MIME type from the leading
// bytes. The whole payload is held in memory during encoding, so the
// caller is responsible for keeping uploads to a size the process can
// afford; nothing here guards against oversized files.
func EncodeImage(image ImageUpload) (string, error) {
	if len(image.Data) == 0 {
		return "", errors.New("empty image payload")
	}

	mimeType := http.DetectContentType(image.Data)

	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image.Data), nil
}
