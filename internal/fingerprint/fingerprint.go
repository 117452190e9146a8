// Package fingerprint derives a coarse content fingerprint from an uploaded
// image payload. The fingerprint is an md5 digest over the raw decoded bytes,
// so only byte-identical uploads match: any resize, recompress or crop yields
// an unrelated value. This is a deliberate placeholder for a perceptual hash,
// not an approximation of one.
package fingerprint

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// Length of the hex fingerprint exposed to the rest of the system.
const Length = 16

// FromBase64 computes the fingerprint of a base64 image payload as submitted
// by the browser, tolerating an optional data-URL prefix
// ("data:image/png;base64,...."). It returns "" for an empty or unreadable
// payload so item creation can proceed without a fingerprint.
func FromBase64(payload string) string {
	if payload == "" {
		return ""
	}

	// Strip the data-URL prefix if present.
	if idx := strings.IndexByte(payload, ','); idx != -1 {
		payload = payload[idx+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return ""
	}

	return FromBytes(raw)
}

// FromBytes computes the fingerprint of raw image bytes. It returns "" for an
// empty input.
func FromBytes(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:])[:Length]
}
