package demo

import (
	"encoding/json"

	"github.com/ate-darren/growthbook"
)

func jsonUnmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// decrypt decodes cipherText using subtle if provided, falling back to the
// default AES-CBC shim the repository itself uses.
func decrypt(cipherText, key string, subtle growthbook.SubtleCrypto) ([]byte, error) {
	if subtle == nil {
		subtle = growthbook.DefaultSubtleCrypto()
	}
	plain, err := subtle.Decrypt(cipherText, key)
	if err != nil {
		return nil, err
	}
	return []byte(plain), nil
}
