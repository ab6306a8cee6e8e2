package tor

import (
	"encoding/base32"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Onion address constants.
const (
	// OnionV3Length is the length of a v3 onion address without the ".onion"
	// suffix. V3 addresses are 56 characters of base32-encoded data.
	OnionV3Length = 56

	// OnionV3Version is the version byte for v3 onion addresses.
	OnionV3Version = 0x03

	// OnionSuffix is the common suffix for all onion addresses.
	OnionSuffix = ".onion"
)

// onionV3Pattern matches v3 onion addresses (56 base32 characters + .onion).
// Base32 uses lowercase a-z and digits 2-7.
var onionV3Pattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)

// onionV2Pattern matches v2 onion addresses (16 base32 characters + .onion).
// V2 stopped working on the Tor network in October 2021; the pattern is
// kept only to give a precise error for outdated seeds.
var onionV2Pattern = regexp.MustCompile(`^[a-z2-7]{16}\.onion$`)

// checksumPrefix is the prefix used in v3 onion address checksum
// calculation, as specified in the Tor rendezvous specification.
var checksumPrefix = []byte(".onion checksum")

// IsOnionHost reports whether the host name ends in ".onion". Such
// hosts are only reachable through Tor.
func IsOnionHost(host string) bool {
	return strings.HasSuffix(strings.ToLower(host), OnionSuffix)
}

// ValidateOnionHost checks a .onion seed host before a crawl starts.
// It returns ErrV2AddressDeprecated for retired v2 addresses and
// ErrInvalidOnionAddress for anything that fails v3 checksum
// verification, so a mistyped address is rejected up front instead of
// wasting minutes of Tor circuit building.
func ValidateOnionHost(host string) error {
	host = strings.ToLower(host)
	if IsValidV3Address(host) {
		return nil
	}
	if IsV2Address(host) {
		return ErrV2AddressDeprecated
	}
	return ErrInvalidOnionAddress
}

// IsValidV3Address checks if the given address is a valid v3 onion
// address: format check plus full checksum verification, the same
// validation Tor itself performs when connecting.
func IsValidV3Address(address string) bool {
	address = strings.ToLower(address)

	if !onionV3Pattern.MatchString(address) {
		return false
	}

	onionPart := strings.TrimSuffix(address, OnionSuffix)

	// The Tor spec uses standard base32 encoding (RFC 4648).
	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(onionPart))
	if err != nil {
		return false
	}

	// 32 bytes ed25519 public key + 2 bytes checksum + 1 byte version.
	if len(decoded) != 35 {
		return false
	}

	pubkey := decoded[:32]
	checksum := decoded[32:34]
	version := decoded[34]

	if version != OnionV3Version {
		return false
	}

	expectedChecksum := computeV3Checksum(pubkey, version)

	return checksum[0] == expectedChecksum[0] && checksum[1] == expectedChecksum[1]
}

// computeV3Checksum returns the first 2 bytes of
// SHA3-256(".onion checksum" || pubkey || version).
func computeV3Checksum(pubkey []byte, version byte) []byte {
	data := make([]byte, 0, len(checksumPrefix)+len(pubkey)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pubkey...)
	data = append(data, version)

	hash := sha3.Sum256(data)

	return hash[:2]
}

// IsV2Address checks if the given address matches the v2 onion address
// format. V2 addresses no longer work; this exists only to produce a
// clear error message.
func IsV2Address(address string) bool {
	return onionV2Pattern.MatchString(strings.ToLower(address))
}

// Onion address validation errors.
var (
	// ErrInvalidOnionAddress is returned when an address is not a valid onion address.
	ErrInvalidOnionAddress = newOnionError("invalid onion address")

	// ErrV2AddressDeprecated is returned when a v2 address is provided.
	// V2 addresses stopped working in October 2021.
	ErrV2AddressDeprecated = newOnionError("v2 onion addresses are deprecated and no longer functional")
)

// onionError is a custom error type for onion address errors.
type onionError struct {
	message string
}

func newOnionError(message string) *onionError {
	return &onionError{message: message}
}

// Error implements the error interface.
func (e *onionError) Error() string {
	return e.message
}
