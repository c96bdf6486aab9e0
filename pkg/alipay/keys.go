package alipay

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"strings"

	"github.com/pkg/errors"
)

// ParsePrivateKey parses an RSA private key from PEM, accepting both PKCS#1
// and PKCS#8 encodings. Keys exported from the Alipay console often come as
// a bare base64 body without PEM armor; those are accepted too.
func ParsePrivateKey(pemStr string) (*rsa.PrivateKey, error) {
	der, err := decodeKeyMaterial(pemStr)
	if err != nil {
		return nil, err
	}

	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}

	keyAny, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, errors.Wrap(err, "parse private key")
	}
	key, ok := keyAny.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("not an RSA private key")
	}
	return key, nil
}

// ParsePublicKey parses a PKIX RSA public key from PEM or a bare base64 body
func ParsePublicKey(pemStr string) (*rsa.PublicKey, error) {
	der, err := decodeKeyMaterial(pemStr)
	if err != nil {
		return nil, err
	}

	keyAny, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, errors.Wrap(err, "parse public key")
	}
	key, ok := keyAny.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return key, nil
}

// decodeKeyMaterial returns the DER bytes of a key given either a PEM block
// or a raw base64 string (whitespace tolerated)
func decodeKeyMaterial(s string) ([]byte, error) {
	if block, _ := pem.Decode([]byte(s)); block != nil {
		return block.Bytes, nil
	}

	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
	der, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, errors.New("key material is neither PEM nor base64")
	}
	return der, nil
}
