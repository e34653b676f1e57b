//go:build vexcl_strict

package vexcl

// strictEmptyContext makes the creation of a Context without devices panic.
const strictEmptyContext = true
