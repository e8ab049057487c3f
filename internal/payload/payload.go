// Package payload generates the synthetic saga request bodies sent to the target service.
package payload

import (
	"math/rand/v2"
	"strconv"
)

const (
	fieldLength = 10
	refCount    = 3
	charset     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Payload is the JSON body of a create request.
type Payload struct {
	Target    string   `json:"target"`
	TargetID  string   `json:"target_id"`
	TargetRef []string `json:"target_ref"`
}

// Generate returns a payload with random content. It never fails and holds no state,
// so it is safe to call from any number of workers.
func Generate() Payload {
	refs := make([]string, refCount)
	for i := range refs {
		refs[i] = randomString(fieldLength)
	}
	return Payload{
		Target:    randomString(fieldLength),
		TargetID:  strconv.FormatUint(rand.Uint64(), 10),
		TargetRef: refs,
	}
}

func randomString(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = charset[rand.IntN(len(charset))]
	}
	return string(buf)
}
