// Package oee computes Overall Equipment Effectiveness and the defect,
// pass-rate and progress figures shown next to it. Everything here is pure
// arithmetic over values already fetched from the backend.
package oee
