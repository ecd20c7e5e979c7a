// Package jwt issues and verifies the signed identity tokens that carry a
// principal between the remote identity provider and session stores.
package jwt
