package config

import (
	"errors"

	"github.com/fernet/fernet-go"
)

// ErrNoSecretKey is returned when an encrypted value is configured without WEALTH_SECRET_KEY.
var ErrNoSecretKey = errors.New("WEALTH_SECRET_KEY is not set")

// GenerateKey returns a new base64 encoded fernet key.
func GenerateKey() (string, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return "", err
	}
	return k.Encode(), nil
}

// Encrypt seals value with the encoded fernet key.
func Encrypt(key, value string) (string, error) {
	if key == "" {
		return "", ErrNoSecretKey
	}
	k, err := fernet.DecodeKey(key)
	if err != nil {
		return "", err
	}
	tok, err := fernet.EncryptAndSign([]byte(value), k)
	if err != nil {
		return "", err
	}
	return string(tok), nil
}

// Decrypt opens a token produced by Encrypt. Tokens do not expire.
func Decrypt(key, token string) (string, error) {
	if key == "" {
		return "", ErrNoSecretKey
	}
	keys, err := fernet.DecodeKeys(key)
	if err != nil {
		return "", err
	}
	msg := fernet.VerifyAndDecrypt([]byte(token), 0, keys)
	if msg == nil {
		return "", errors.New("invalid or tampered token")
	}
	return string(msg), nil
}
