// Package domain contains the shared types of the solstice core and the
// repository interfaces implemented by the store package. Keeping them here
// lets the root package and the frontend consume the same contracts without
// importing the sqlite-backed implementation.
package domain
