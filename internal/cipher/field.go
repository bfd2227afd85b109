// Package cipher implements the deterministic partial field encryption used
// to tokenize column values in place.
//
// A value is split after ceil(len*0.6) code points. The head is encrypted with
// AES-256-CBC/PKCS7 under a fixed key and IV and base64-encoded; the tail stays
// readable. The result is "<base64 head>:<tail>".
//
// The IV is shared by every value, so equal heads produce equal ciphertext.
// The format is kept as is because already-tokenized data depends on it.
package cipher

import (
	"bytes"
	"crypto/aes"
	gocipher "crypto/cipher"
	"encoding/base64"
	"math"
	"strings"

	"tablesync/internal/syncerr"
)

const (
	// Delimiter separates the encrypted head from the plaintext tail.
	Delimiter = ":"

	KeySize = 32
	IVSize  = aes.BlockSize

	headRatio = 0.6
)

// FieldCipher encrypts and decrypts single column values.
type FieldCipher struct {
	key []byte
	iv  []byte
}

// New returns a FieldCipher for the given key and IV. Sizes are checked on
// every transform so a misconfigured cipher fails as AlgorithmIncompatibility.
func New(key, iv []byte) *FieldCipher {
	return &FieldCipher{
		key: append([]byte(nil), key...),
		iv:  append([]byte(nil), iv...),
	}
}

// IsEncrypted reports whether value looks tokenized. Any value containing the
// delimiter counts, including plaintext that happens to contain one.
func (c *FieldCipher) IsEncrypted(value string) bool {
	return strings.Contains(value, Delimiter)
}

// Encrypt tokenizes plaintext. Empty and already-tokenized values are
// returned unchanged.
func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" || c.IsEncrypted(plaintext) {
		return plaintext, nil
	}

	runes := []rune(plaintext)
	split := int(math.Ceil(float64(len(runes)) * headRatio))
	head, tail := string(runes[:split]), string(runes[split:])

	block, err := c.block()
	if err != nil {
		return "", err
	}

	padded := pkcs7Pad([]byte(head), block.BlockSize())
	out := make([]byte, len(padded))
	gocipher.NewCBCEncrypter(block, c.iv).CryptBlocks(out, padded)

	return base64.StdEncoding.EncodeToString(out) + Delimiter + tail, nil
}

// Decrypt restores a tokenized value. Values that do not split into exactly
// two parts, or whose head does not decrypt, are returned unchanged. Only a
// key or IV problem is reported as an error.
func (c *FieldCipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return ciphertext, nil
	}
	parts := strings.Split(ciphertext, Delimiter)
	if len(parts) != 2 {
		return ciphertext, nil
	}

	block, err := c.block()
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(raw) == 0 || len(raw)%block.BlockSize() != 0 {
		return ciphertext, nil
	}

	out := make([]byte, len(raw))
	gocipher.NewCBCDecrypter(block, c.iv).CryptBlocks(out, raw)

	head, ok := pkcs7Unpad(out, block.BlockSize())
	if !ok {
		return ciphertext, nil
	}
	return string(head) + parts[1], nil
}

func (c *FieldCipher) block() (gocipher.Block, error) {
	if len(c.key) != KeySize {
		return nil, syncerr.New(syncerr.AlgorithmIncompatibility,
			"Encryption failed due to incompatible algorithm or key: key must be %d bytes, got %d", KeySize, len(c.key))
	}
	if len(c.iv) != IVSize {
		return nil, syncerr.New(syncerr.AlgorithmIncompatibility,
			"Encryption failed due to incompatible algorithm or key: IV must be %d bytes, got %d", IVSize, len(c.iv))
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, syncerr.Wrap(err, syncerr.AlgorithmIncompatibility, "Encryption failed due to incompatible algorithm or key")
	}
	return block, nil
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, bool) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, false
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}
