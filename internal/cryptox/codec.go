package cryptox

import (
	"encoding/json"
	"fmt"
)

// Codec encrypts with a fixed iteration count. Decryption always uses the
// count stored in the packet, so packets written with other settings stay
// readable.
type Codec struct {
	Iterations int
}

// NewCodec returns a Codec using iterations, or DefaultIterations when
// iterations is not positive.
func NewCodec(iterations int) *Codec {
	if iterations < 1 {
		iterations = DefaultIterations
	}
	return &Codec{Iterations: iterations}
}

func (c *Codec) Encrypt(plainText, passphrase string) (*Packet, error) {
	return EncryptStringWithIterations(plainText, passphrase, c.Iterations)
}

func (c *Codec) Decrypt(p *Packet, passphrase string) (string, error) {
	return DecryptString(p, passphrase)
}

func (c *Codec) Verify(p *Packet, passphrase string) bool {
	return VerifyPassphrase(p, passphrase)
}

// Seal encrypts the JSON encoding of v, e.g. the props of a locked record.
func (c *Codec) Seal(v any, passphrase string) (*Packet, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode sealed value: %w", err)
	}
	return c.Encrypt(string(data), passphrase)
}

// Unseal decrypts p and decodes the JSON inside into dst. A packet that
// opens but does not hold valid JSON fails with ErrDecryptionFailed.
func (c *Codec) Unseal(p *Packet, passphrase string, dst any) error {
	plain, err := c.Decrypt(p, passphrase)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(plain), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return nil
}
