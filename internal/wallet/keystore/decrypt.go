package keystore

import (
	"crypto/subtle"
	"encoding/hex"

	"github.com/pkg/errors"
	"github/chapool/go-rollup/internal/util"
	"golang.org/x/crypto/scrypt"
)

// ErrInvalidPassword is returned when the keystore MAC does not match
var ErrInvalidPassword = errors.New("invalid password: MAC mismatch")

// decryptMnemonic decrypts a mnemonic from Ethereum keystore v3 format
func decryptMnemonic(keystoreJSON *KeystoreJSON, password string) (string, error) {
	if keystoreJSON.Crypto.Cipher != cipherName || keystoreJSON.Crypto.KDF != kdfName {
		return "", errors.Errorf("unsupported keystore cipher %q / kdf %q", keystoreJSON.Crypto.Cipher, keystoreJSON.Crypto.KDF)
	}

	salt, err := hex.DecodeString(keystoreJSON.Crypto.KDFParams.Salt)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode salt")
	}

	//nolint:varnamelen // iv is a common abbreviation for initialization vector
	iv, err := hex.DecodeString(keystoreJSON.Crypto.CipherParams.IV)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode IV")
	}

	ciphertext, err := hex.DecodeString(keystoreJSON.Crypto.Ciphertext)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode ciphertext")
	}

	expectedMAC, err := hex.DecodeString(keystoreJSON.Crypto.MAC)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode MAC")
	}

	//nolint:mnd // AES-128 key plus MAC key
	if keystoreJSON.Crypto.KDFParams.DKLen < 32 {
		return "", errors.Errorf("derived key length %d too short", keystoreJSON.Crypto.KDFParams.DKLen)
	}

	derivedKey, err := scrypt.Key(
		[]byte(password),
		salt,
		keystoreJSON.Crypto.KDFParams.N,
		keystoreJSON.Crypto.KDFParams.R,
		keystoreJSON.Crypto.KDFParams.P,
		keystoreJSON.Crypto.KDFParams.DKLen,
	)
	if err != nil {
		return "", errors.Wrap(err, "failed to derive key")
	}
	defer util.ZeroBytes(derivedKey)

	mac := calculateMAC(derivedKey[16:32], ciphertext)
	if subtle.ConstantTimeCompare(mac, expectedMAC) != 1 {
		return "", ErrInvalidPassword
	}

	plaintext, err := xorAES128CTR(derivedKey[:16], iv, ciphertext)
	if err != nil {
		return "", errors.Wrap(err, "failed to decrypt mnemonic")
	}
	defer util.ZeroBytes(plaintext)

	return string(plaintext), nil
}
