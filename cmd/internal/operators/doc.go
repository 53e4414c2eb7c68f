// Package operators stores farm operator accounts and authenticates them.
//
// An operator row holds a username and an encoded scrypt credential (see package
// password). Authentication never distinguishes "unknown user" from "wrong password"
// to its caller.
package operators
