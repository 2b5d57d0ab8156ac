package session

import (
	"bytes"
	"crypto/des" //nolint:staticcheck // VNCAuth is defined in terms of DES; RFB §7.2.2.
	"crypto/rand"

	"github.com/lattice-io/vncd/rfberr"
)

// vncAuthKey mirrors fixDesKeyByte/fixDesKey from
// other_examples/…hduplooy-gorfb__gorfb.go: the RFB spec's VNCAuth treats
// the password as a DES key with each byte's bits mirrored, truncated or
// zero-padded to exactly 8 bytes.
func vncAuthKey(secret []byte) []byte {
	key := make([]byte, 8)
	copy(key, secret)
	for i, b := range key {
		var m byte
		for bit := 0; bit < 8; bit++ {
			m <<= 1
			m |= b & 1
			b >>= 1
		}
		key[i] = m
	}
	return key
}

// Challenge is the 16-byte VNCAuth challenge sent to the client.
type Challenge [16]byte

// NewChallenge generates a fresh random challenge.
func NewChallenge() (Challenge, error) {
	var c Challenge
	_, err := rand.Read(c[:])
	return c, err
}

// Verify checks a client's 16-byte DES-encrypted response against the
// expected encryption of challenge under secret, two 8-byte ECB blocks as
// RFB §7.2.2 and the reference implementation both perform.
func Verify(challenge Challenge, response []byte, secret []byte) error {
	if len(response) != 16 {
		return rfberr.Protocol("session.auth", errWrongResponseLength)
	}
	block, err := des.NewCipher(vncAuthKey(secret))
	if err != nil {
		return rfberr.Internal("session.auth", err)
	}
	var want [16]byte
	block.Encrypt(want[:8], challenge[:8])
	block.Encrypt(want[8:], challenge[8:])
	if !bytes.Equal(want[:], response) {
		return rfberr.Protocol("session.auth", errAuthFailed)
	}
	return nil
}

var (
	errWrongResponseLength = authErr("response must be 16 bytes")
	errAuthFailed          = authErr("VNCAuth response did not match challenge")
)

type authErr string

func (e authErr) Error() string { return string(e) }
