// Package password provides operator credential hashing and verification for herd.
//
// Stored credentials carry the key-derivation function and its cost parameters inline.
// Two textual forms are understood:
//
//	scrypt:<n>:<r>:<p>$<salt_b64>$<key_hex>   explicit costs (written for new credentials)
//	scrypt$<salt_b64>$<key_b64>               implicit costs n=16384, r=8, p=1 (legacy)
//
// Security notes:
// - Stored hashes are treated as untrusted input during Verify.
// - Verify never tells the caller why a hash was rejected; the reason is logged instead.
// - Verification refuses cost parameters above the configured limits.
package password
