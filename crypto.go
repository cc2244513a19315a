package growthbook

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"strings"
)

var (
	ErrCryptoInvalidEncryptedFormat = errors.New("growthbook: encrypted data is in invalid format")
	ErrCryptoInvalidIVLength        = errors.New("growthbook: invalid IV length")
	ErrCryptoInvalidPadding         = errors.New("growthbook: invalid padding")
	ErrNoDecryptionKey              = errors.New("growthbook: no decryption key configured")
)

// SubtleCrypto is the replaceable decryption primitive the repository uses
// for encryptedFeatures/encryptedExperiments payloads (spec §6: "borrowed
// from the host environment"). The wire format is AES-128/256-CBC with the
// IV and ciphertext base64-encoded and dot-joined: "<iv>.<ciphertext>".
type SubtleCrypto interface {
	Decrypt(cipherText string, base64Key string) (plainText string, err error)
}

type defaultSubtleCrypto struct{}

// DefaultSubtleCrypto returns the package's built-in AES-CBC SubtleCrypto
// implementation, for callers (such as an Instance) that need to decrypt
// outside of the repository's own ingest path but still want the same
// wire format and algorithm.
func DefaultSubtleCrypto() SubtleCrypto { return defaultSubtleCrypto{} }

func (defaultSubtleCrypto) Decrypt(encrypted string, encKey string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(encKey)
	if err != nil {
		return "", err
	}

	splits := strings.SplitN(encrypted, ".", 2)
	if len(splits) != 2 {
		return "", ErrCryptoInvalidEncryptedFormat
	}

	iv, err := base64.StdEncoding.DecodeString(splits[0])
	if err != nil {
		return "", err
	}

	cipherText, err := base64.StdEncoding.DecodeString(splits[1])
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	if len(iv) != block.BlockSize() || len(cipherText)%block.BlockSize() != 0 || len(cipherText) == 0 {
		return "", ErrCryptoInvalidIVLength
	}

	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(cipherText, cipherText)

	plain, err := unpadPKCS7(cipherText, block.BlockSize())
	if err != nil {
		return "", err
	}

	return string(plain), nil
}

// unpadPKCS7 removes PKCS#7 padding, grounded on the teacher's crypto.go
// unpad helper.
func unpadPKCS7(buf []byte, blockSize int) ([]byte, error) {
	bufLen := len(buf)
	if bufLen == 0 {
		return nil, ErrCryptoInvalidPadding
	}

	pad := buf[bufLen-1]
	if pad == 0 {
		return nil, ErrCryptoInvalidPadding
	}

	padLen := int(pad)
	if padLen > bufLen || padLen > blockSize {
		return nil, ErrCryptoInvalidPadding
	}

	for _, v := range buf[bufLen-padLen : bufLen-1] {
		if v != pad {
			return nil, ErrCryptoInvalidPadding
		}
	}

	return buf[:bufLen-padLen], nil
}
