package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/util"
	"golang.org/x/crypto/scrypt"
	"golang.org/x/crypto/sha3"
)

// encryptMnemonic encrypts a mnemonic using Ethereum keystore v3 format
//
//nolint:varnamelen // iv is a common abbreviation for initialization vector
func (s *service) encryptMnemonic(mnemonic string, password string) (*KeystoreJSON, error) {
	//nolint:mnd // 32 is the standard salt size for scrypt
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "failed to generate salt")
	}

	//nolint:mnd // 16 is the standard IV size for AES-128-CTR
	iv := make([]byte, 16)
	if _, err := rand.Read(iv); err != nil {
		return nil, errors.Wrap(err, "failed to generate IV")
	}

	params := s.params
	derivedKey, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, params.DKLen)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive key")
	}
	defer util.ZeroBytes(derivedKey)

	plaintext := []byte(mnemonic)
	defer util.ZeroBytes(plaintext)

	// First 16 bytes encrypt, last 16 authenticate
	ciphertext, err := xorAES128CTR(derivedKey[:16], iv, plaintext)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encrypt mnemonic")
	}

	mac := calculateMAC(derivedKey[16:32], ciphertext)

	keystoreJSON := &KeystoreJSON{
		Version: keystoreVersion,
		ID:      uuid.New().String(),
	}

	keystoreJSON.Crypto.Ciphertext = hex.EncodeToString(ciphertext)
	keystoreJSON.Crypto.CipherParams.IV = hex.EncodeToString(iv)
	keystoreJSON.Crypto.Cipher = cipherName
	keystoreJSON.Crypto.KDF = kdfName
	keystoreJSON.Crypto.KDFParams.DKLen = params.DKLen
	keystoreJSON.Crypto.KDFParams.Salt = hex.EncodeToString(salt)
	keystoreJSON.Crypto.KDFParams.N = params.N
	keystoreJSON.Crypto.KDFParams.R = params.R
	keystoreJSON.Crypto.KDFParams.P = params.P
	keystoreJSON.Crypto.MAC = hex.EncodeToString(mac)

	return keystoreJSON, nil
}

// xorAES128CTR encrypts and decrypts with AES-128-CTR
//
//nolint:varnamelen // iv is a common abbreviation for initialization vector
func xorAES128CTR(key []byte, iv []byte, in []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}

	out := make([]byte, len(in))
	cipher.NewCTR(block, iv).XORKeyStream(out, in)

	return out, nil
}

// calculateMAC is Keccak-256(derivedKey[16:32] || ciphertext)
func calculateMAC(key []byte, ciphertext []byte) []byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(key)
	hasher.Write(ciphertext)
	return hasher.Sum(nil)
}
