package netio

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// offlineUUID derives the offline-mode player UUID the way vanilla's
// server does: a version-3 UUID of the raw MD5 digest of
// "OfflinePlayer:<name>", with no RFC 4122 namespace concatenation.
// github.com/google/uuid's NewMD5 always prepends a namespace, so this
// sets the version/variant bits on the bare digest directly instead.
func offlineUUID(username string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + username))
	var id uuid.UUID
	copy(id[:], sum[:])
	id[6] = (id[6] & 0x0F) | 0x30 // version 3
	id[8] = (id[8] & 0x3F) | 0x80 // RFC 4122 variant
	return id
}

// randomServerID returns a random ASCII string for the EncryptionRequest
// server id field; vanilla sends an empty string in modern versions,
// but this server fills it to exercise the field and to give
// sessionHash a non-trivial input.
func randomServerID() string {
	b := make([]byte, 10)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// sessionHash computes Mojang's join-session hash: SHA-1 over the
// server id, shared secret, and DER public key, rendered as the
// signed hex digest Mojang's session server expects (a BigInteger
// two's-complement hex string, not a plain hex digest).
func sessionHash(serverID string, sharedSecret, publicKeyDER []byte) string {
	h := sha1.New()
	h.Write([]byte(serverID))
	h.Write(sharedSecret)
	h.Write(publicKeyDER)
	return mojangHexDigest(h.Sum(nil))
}

func mojangHexDigest(sum []byte) string {
	negative := sum[0]&0x80 != 0
	if negative {
		sum = twosComplement(sum)
	}
	digest := strings.TrimLeft(hex.EncodeToString(sum), "0")
	if digest == "" {
		digest = "0"
	}
	if negative {
		return "-" + digest
	}
	return digest
}

func twosComplement(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	carry := true
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = ^out[i]
		if carry {
			out[i]++
			carry = out[i] == 0
		}
	}
	return out
}
