// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ledger

import (
	"encoding/binary"

	"github.com/Fantom-foundation/Nabucco/go/nabucco"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/sha3"
)

// The storage slots of the ledger's fields, assigned in declaration order
// of the contract layout. Mapping slots hold no data themselves; the slot
// index only seeds the key derivation of the entries.
const (
	balancesSlot    uint64 = iota // mapping(address => uint256)
	allowancesSlot                // mapping(address => mapping(address => uint256))
	nameSlot                      // string
	symbolSlot                    // string
	metadataSlot                  // uint8 decimals, packed with the init flag
	totalSupplySlot               // uint256
)

// Byte positions within the metadata slot. Small fields share a slot and
// are packed from the least significant byte upwards.
const (
	decimalsByte    = 31
	initializedByte = 30
)

// slotCacheCapacity bounds the number of cached mapping-slot derivations.
// Each entry maps a 64-byte hash preimage to its derived slot key, so the
// cache holds at most 96 bytes per entry plus bookkeeping. Account slots
// repeat across calls, making even a small cache effective.
const slotCacheCapacity = 1 << 12

var slotCache = func() *lru.Cache[[64]byte, nabucco.Key] {
	cache, err := lru.New[[64]byte, nabucco.Key](slotCacheCapacity)
	if err != nil {
		panic(err)
	}
	return cache
}()

func keccak(data []byte) (res nabucco.Key) {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	copy(res[:], hasher.Sum(nil))
	return
}

// slotKey converts a field's slot index into its storage key.
func slotKey(slot uint64) (key nabucco.Key) {
	binary.BigEndian.PutUint64(key[24:], slot)
	return
}

// addressWord left-pads an address to a full 32-byte word, the form in
// which addresses enter mapping-key derivations and event topics.
func addressWord(addr nabucco.Address) (word [32]byte) {
	copy(word[12:], addr[:])
	return
}

// derivedSlot computes the storage key of a mapping entry, the keccak hash
// of the entry key concatenated with the mapping's slot. Results are
// cached since the derivation is pure.
func derivedSlot(entry [32]byte, slot [32]byte) nabucco.Key {
	var preimage [64]byte
	copy(preimage[:32], entry[:])
	copy(preimage[32:], slot[:])

	if key, exists := slotCache.Get(preimage); exists {
		return key
	}
	key := keccak(preimage[:])
	slotCache.Add(preimage, key)
	return key
}

// balanceSlot returns the storage key holding the balance of an account.
func balanceSlot(account nabucco.Address) nabucco.Key {
	return derivedSlot(addressWord(account), slotKey(balancesSlot))
}

// allowanceSlot returns the storage key holding the allowance granted by
// owner to spender. The nested mapping derives the inner slot from the
// owner first and keys the spender within it.
func allowanceSlot(owner, spender nabucco.Address) nabucco.Key {
	inner := derivedSlot(addressWord(owner), slotKey(allowancesSlot))
	return derivedSlot(addressWord(spender), [32]byte(inner))
}

func readValue(store nabucco.Storage, key nabucco.Key) nabucco.Value {
	return nabucco.Value(store.GetStorage(key))
}

func writeValue(store nabucco.Storage, key nabucco.Key, value nabucco.Value) {
	store.SetStorage(key, nabucco.Word(value))
}

func readMetadata(store nabucco.Storage) (decimals uint8, initialized bool) {
	word := store.GetStorage(slotKey(metadataSlot))
	return word[decimalsByte], word[initializedByte] != 0
}

func writeMetadata(store nabucco.Storage, decimals uint8, initialized bool) {
	var word nabucco.Word
	word[decimalsByte] = decimals
	if initialized {
		word[initializedByte] = 1
	}
	store.SetStorage(slotKey(metadataSlot), word)
}

// offsetKey adds an offset to a storage key, treating the key as a
// big-endian 256-bit number. Used to address the data chunks of long
// strings, which are laid out contiguously behind a hashed base key.
func offsetKey(base nabucco.Key, offset uint64) nabucco.Key {
	for i := 31; i >= 0 && offset > 0; i-- {
		sum := uint64(base[i]) + (offset & 0xff)
		base[i] = byte(sum)
		offset = (offset >> 8) + (sum >> 8)
	}
	return base
}

// readString decodes a string field. Strings of up to 31 bytes live inside
// their slot with twice the length in the lowest byte; longer strings
// store twice the length plus one in the slot and their data in 32-byte
// chunks starting at the hash of the slot key.
func readString(store nabucco.Storage, slot uint64) string {
	word := store.GetStorage(slotKey(slot))
	if word[31]&1 == 0 {
		length := int(word[31] / 2)
		return string(word[:length])
	}

	length := (binary.BigEndian.Uint64(word[24:]) - 1) / 2
	data := make([]byte, 0, length)
	key := slotKey(slot)
	base := keccak(key[:])
	for chunk := uint64(0); chunk*32 < length; chunk++ {
		part := store.GetStorage(offsetKey(base, chunk))
		data = append(data, part[:]...)
	}
	return string(data[:length])
}

// writeString encodes a string field, clearing any data chunks left over
// from a previously stored longer value.
func writeString(store nabucco.Storage, slot uint64, value string) {
	oldChunks := stringChunks(store.GetStorage(slotKey(slot)))

	var word nabucco.Word
	newChunks := uint64(0)
	if len(value) <= 31 {
		copy(word[:], value)
		word[31] = byte(2 * len(value))
	} else {
		binary.BigEndian.PutUint64(word[24:], uint64(2*len(value)+1))
		newChunks = (uint64(len(value)) + 31) / 32
	}
	store.SetStorage(slotKey(slot), word)

	key := slotKey(slot)
	base := keccak(key[:])
	for chunk := uint64(0); chunk < newChunks; chunk++ {
		var part nabucco.Word
		copy(part[:], value[chunk*32:])
		store.SetStorage(offsetKey(base, chunk), part)
	}
	for chunk := newChunks; chunk < oldChunks; chunk++ {
		store.SetStorage(offsetKey(base, chunk), nabucco.Word{})
	}
}

// stringChunks returns the number of out-of-slot data chunks used by the
// string encoded in the given slot word.
func stringChunks(word nabucco.Word) uint64 {
	if word[31]&1 == 0 {
		return 0
	}
	length := (binary.BigEndian.Uint64(word[24:]) - 1) / 2
	return (length + 31) / 32
}
