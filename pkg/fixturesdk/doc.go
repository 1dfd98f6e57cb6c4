// Package fixturesdk embeds fixture building into Go test suites: declare a
// repository layout once, materialize it under a test's temporary directory,
// and verify afterwards that the test left it in the declared state.
package fixturesdk
