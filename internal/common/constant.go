// Package common contains shared constants and sentinel errors used across
// tripmate components.
package common

// AuthorizationHeader carries the bearer access token on HTTP requests and
// on the websocket subscription handshake.
const AuthorizationHeader = "Authorization"

// BearerPrefix is the scheme prefix expected in AuthorizationHeader.
const BearerPrefix = "Bearer "
