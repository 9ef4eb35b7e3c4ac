// Package dedup suppresses duplicate business records across search points,
// locations and runs. A Deduplicator owns its identity sets explicitly and is
// rehydrated from previously persisted records at startup, so a resumed run
// never re-emits a business it already collected.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/SilinPolicyAdvisor/Lead-gen/internal/models"
)

// corporateSuffixes are stripped from names before fuzzy hashing so that
// "Acme Inc." and "Acme" collapse to the same identity. Dotted variants come
// first so the bare variant does not leave the dot behind.
var corporateSuffixes = []string{"inc.", "inc", "ltd.", "ltd", "llc", "corp.", "corp"}

// nameDenylist marks obviously synthetic records that occasionally leak out
// of provider test data.
var nameDenylist = []string{"test", "example", "placeholder"}

// Deduplicator maintains two identity sets: exact (stable place identifier)
// and fuzzy (normalized name+address+phone hash). Both grow monotonically for
// the process lifetime. Accept is safe for concurrent use; the check and the
// registration happen under one lock so two workers cannot both accept the
// same business discovered in overlapping search radii.
type Deduplicator struct {
	mu         sync.Mutex
	seenIDs    map[string]struct{}
	seenHashes map[string]struct{}
}

// New builds a Deduplicator seeded from previously persisted records.
func New(snapshot []models.BusinessRecord) *Deduplicator {
	d := &Deduplicator{
		seenIDs:    make(map[string]struct{}),
		seenHashes: make(map[string]struct{}),
	}
	for _, rec := range snapshot {
		if rec.PlaceID != "" {
			d.seenIDs[rec.PlaceID] = struct{}{}
		}
		d.seenHashes[FuzzyHash(rec.Name, rec.Address, rec.Phone)] = struct{}{}
	}
	return d
}

// Accept reports whether the record is new and valid, registering its
// identifiers when it is. Validation short-circuits in order: name present,
// some contact signal present, name not on the denylist. Then the exact
// identifier and the fuzzy hash are checked against everything seen so far.
func (d *Deduplicator) Accept(rec models.BusinessRecord) bool {
	if !valid(rec) {
		return false
	}

	hash := FuzzyHash(rec.Name, rec.Address, rec.Phone)

	d.mu.Lock()
	defer d.mu.Unlock()

	if rec.PlaceID != "" {
		if _, dup := d.seenIDs[rec.PlaceID]; dup {
			return false
		}
	}
	if _, dup := d.seenHashes[hash]; dup {
		return false
	}

	if rec.PlaceID != "" {
		d.seenIDs[rec.PlaceID] = struct{}{}
	}
	d.seenHashes[hash] = struct{}{}
	return true
}

// Size returns the current cardinality of the identity sets, for logging.
func (d *Deduplicator) Size() (ids, hashes int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seenIDs), len(d.seenHashes)
}

func valid(rec models.BusinessRecord) bool {
	if rec.Name == "" {
		return false
	}
	if !rec.HasContactSignal() {
		return false
	}

	name := strings.ToLower(rec.Name)
	for _, token := range nameDenylist {
		if strings.Contains(name, token) {
			return false
		}
	}
	return true
}

// FuzzyHash digests the normalized name, address and phone of a business
// into its fuzzy identity. The hash is invariant to case, surrounding
// whitespace and corporate suffixes in the name.
func FuzzyHash(name, address, phone string) string {
	normName := strings.ToLower(strings.TrimSpace(name))
	for _, suffix := range corporateSuffixes {
		normName = strings.ReplaceAll(normName, suffix, "")
	}
	normName = strings.TrimSpace(normName)

	payload := normName + "|" + strings.ToLower(strings.TrimSpace(address)) + "|" + strings.TrimSpace(phone)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
