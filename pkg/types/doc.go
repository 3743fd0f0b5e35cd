// Package types defines the closed enumerations shared by every mesboard
// package, plus the zone-less timestamp the MES backend emits.
//
// Every enum is a string type whose JSON form is the backend's upper-case
// label (PASS, IN_PROGRESS, ALARM, ...). Decoding an unknown label fails
// instead of carrying free text through the program, so every switch over
// these types can be exhaustive.
//
// LocalDateTime accepts both RFC 3339 and the backend's
// "2006-01-02T15:04:05[.fffffffff]" form and always encodes the latter.
package types
