// Package signing issues signed direct-upload grants.
//
// The server never proxies media bytes. Instead it hands the client a grant:
// a fresh object identifier plus a signature the object store will verify
// before accepting an authenticated upload into the granted folder. The
// signature scheme is the storage vendor's: SHA-1 over the alphabetically
// sorted request parameters concatenated with the API secret. Expiry is
// enforced by the store from the signed timestamp.
package signing

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// deliveryType marks grants as authenticated uploads; it is part of the
// signed parameter set and of the stored attachment metadata.
const deliveryType = "authenticated"

// Grant is an ephemeral, single-use upload authorization. It is returned to
// the client verbatim and never persisted; each issuance carries a fresh
// object id and signature.
type Grant struct {
	UploadURL string `json:"upload_url"`
	APIKey    string `json:"api_key"`
	Folder    string `json:"folder"`
	PublicID  string `json:"public_id"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

// Signer computes upload grant signatures with a server-held secret.
type Signer struct {
	uploadURL string
	apiKey    string
	apiSecret string

	// now and randomID are test seams.
	now      func() time.Time
	randomID func(now time.Time) (string, error)
}

// NewSigner constructs a Signer for the given vendor endpoint and credentials.
func NewSigner(uploadURL, apiKey, apiSecret string) *Signer {
	return &Signer{
		uploadURL: uploadURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		now:       time.Now,
		randomID:  newPublicID,
	}
}

// Issue produces a grant for one authenticated upload into folder.
func (s *Signer) Issue(folder string) (*Grant, error) {
	now := s.now().UTC()
	publicID, err := s.randomID(now)
	if err != nil {
		return nil, err
	}
	ts := now.Unix()

	sig := s.signature(map[string]string{
		"timestamp": fmt.Sprintf("%d", ts),
		"folder":    folder,
		"public_id": publicID,
		"type":      deliveryType,
	})

	return &Grant{
		UploadURL: s.uploadURL,
		APIKey:    s.apiKey,
		Folder:    folder,
		PublicID:  publicID,
		Timestamp: ts,
		Signature: sig,
	}, nil
}

// signature implements the vendor scheme: parameters sorted by key, joined
// as key=value pairs with '&', the API secret appended, SHA-1, hex.
func (s *Signer) signature(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	payload := strings.Join(pairs, "&") + s.apiSecret

	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// newPublicID builds a fresh object identifier: the issuance unix time plus
// six random base36 characters, e.g. "1735600000-k3x9qt".
func newPublicID(now time.Time) (string, error) {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

	var buf [6]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	suffix := make([]byte, len(buf))
	for i, b := range buf {
		suffix[i] = alphabet[int(b)%len(alphabet)]
	}
	return fmt.Sprintf("%d-%s", now.Unix(), suffix), nil
}
