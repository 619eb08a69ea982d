package main

import "errors"

var (
	// errNoMatch makes find exit non-zero.
	errNoMatch = errors.New("no matching fonts")

	// errFontInstalled is returned when add would replace a font without --force.
	errFontInstalled = errors.New("font already installed")
)
