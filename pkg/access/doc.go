// Package access holds the upstream allow-list policy.
//
// A Policy is built once from the access section of a configuration
// snapshot and is read-only afterwards. Check is pure and must run before
// any outbound request is made.
package access
