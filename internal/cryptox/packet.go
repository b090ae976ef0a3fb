// Package cryptox implements the self-describing encrypted packet used for
// locked journal entries: PBKDF2-SHA256 key derivation and AES-256-GCM.
//
// A Packet carries everything needed to decrypt it except the passphrase.
// Packets are never modified in place; re-encrypting produces a new packet
// with a fresh salt and IV.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pwbjournal/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	Version    = 1
	AlgoAESGCM = "AES-GCM"
	KDFPBKDF2  = "PBKDF2"

	DefaultIterations = 200_000
	// MaxIterations caps the work factor a packet header may demand.
	MaxIterations = 10 * DefaultIterations

	SaltSize = 16
	IVSize   = 12
	KeySize  = 32
)

var (
	// ErrUnsupportedFormat is returned for packets whose header declares a
	// version, algorithm or KDF this implementation does not understand.
	ErrUnsupportedFormat = errors.New("unsupported packet format")

	// ErrDecryptionFailed covers both a wrong passphrase and corrupted
	// packet content. The two cases are intentionally indistinguishable.
	ErrDecryptionFailed = errors.New("decryption failed")

	ErrInvalidIterations = fmt.Errorf("iterations must be between 1 and %d", MaxIterations)
)

// Header describes how a packet was produced.
type Header struct {
	V          int    `json:"v"`
	Algo       string `json:"algo"`
	KDF        string `json:"kdf"`
	Iterations int    `json:"iterations"`
	Salt       string `json:"salt"`
	IV         string `json:"iv"`
}

// Packet is the encrypted envelope. Binary fields are standard base64.
type Packet struct {
	Header     Header `json:"header"`
	Ciphertext string `json:"ciphertext"`
}

// EncryptString encrypts plainText under passphrase with DefaultIterations.
func EncryptString(plainText, passphrase string) (*Packet, error) {
	return EncryptStringWithIterations(plainText, passphrase, DefaultIterations)
}

// EncryptStringWithIterations encrypts the UTF-8 bytes of plainText with
// AES-256-GCM under a key derived from passphrase.
//
// A new random 16-byte salt and 12-byte IV are generated for every call, so
// two packets for the same input never share salt, IV or ciphertext. The
// ciphertext includes the GCM authentication tag.
//
// Returns common.ErrNoEntropy if the system random source fails.
func EncryptStringWithIterations(plainText, passphrase string, iterations int) (*Packet, error) {
	if iterations < 1 || iterations > MaxIterations {
		return nil, ErrInvalidIterations
	}

	salt, err := common.GenerateRandByteArray(SaltSize)
	if err != nil {
		return nil, err
	}
	iv, err := common.GenerateRandByteArray(IVSize)
	if err != nil {
		return nil, err
	}

	aesgcm, err := newGCM(passphrase, salt, iterations)
	if err != nil {
		return nil, err
	}

	ciphertext := aesgcm.Seal(nil, iv, []byte(plainText), nil)

	return &Packet{
		Header: Header{
			V:          Version,
			Algo:       AlgoAESGCM,
			KDF:        KDFPBKDF2,
			Iterations: iterations,
			Salt:       base64.StdEncoding.EncodeToString(salt),
			IV:         base64.StdEncoding.EncodeToString(iv),
		},
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// DecryptString recovers the plain text of p.
//
// Header checks come first and fail with ErrUnsupportedFormat. Everything
// after that (undecodable fields, bad lengths, failed authentication) fails
// with ErrDecryptionFailed.
func DecryptString(p *Packet, passphrase string) (string, error) {
	if err := p.checkHeader(); err != nil {
		return "", err
	}

	salt, err := base64.StdEncoding.DecodeString(p.Header.Salt)
	if err != nil || len(salt) != SaltSize {
		return "", ErrDecryptionFailed
	}
	iv, err := base64.StdEncoding.DecodeString(p.Header.IV)
	if err != nil || len(iv) != IVSize {
		return "", ErrDecryptionFailed
	}
	ciphertext, err := base64.StdEncoding.DecodeString(p.Ciphertext)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	aesgcm, err := newGCM(passphrase, salt, p.Header.Iterations)
	if err != nil {
		return "", err
	}

	plaintext, err := aesgcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// VerifyPassphrase reports whether passphrase opens p. The recovered plain
// text is discarded.
func VerifyPassphrase(p *Packet, passphrase string) bool {
	_, err := DecryptString(p, passphrase)
	return err == nil
}

// ParsePacket decodes a packet from its JSON form. Only the JSON shape is
// checked here; header support is checked on decryption.
func ParsePacket(data []byte) (*Packet, error) {
	var p Packet
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return &p, nil
}

// Marshal returns the JSON form of p.
func (p *Packet) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

func (p *Packet) checkHeader() error {
	if p == nil {
		return ErrUnsupportedFormat
	}
	h := p.Header
	if h.V != Version || h.Algo != AlgoAESGCM || h.KDF != KDFPBKDF2 {
		return fmt.Errorf("%w: v=%d algo=%q kdf=%q", ErrUnsupportedFormat, h.V, h.Algo, h.KDF)
	}
	if h.Iterations < 1 || h.Iterations > MaxIterations {
		return fmt.Errorf("%w: iterations=%d", ErrUnsupportedFormat, h.Iterations)
	}
	return nil
}

// deriveKey runs PBKDF2-HMAC-SHA256. Every call pays the full iteration
// count; keys are never cached.
func deriveKey(passphrase string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, iterations, KeySize, sha256.New)
}

// newGCM derives the key and builds the AEAD. The key bytes are wiped once
// the cipher owns its expanded schedule.
func newGCM(passphrase string, salt []byte, iterations int) (cipher.AEAD, error) {
	key := deriveKey(passphrase, salt, iterations)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
