// Package testrunner runs compiled tests with the JUnit Platform console
// launcher and reads back the legacy XML reports it writes.
//
// The launcher runs as a child process. Its exit code only tells whether any
// test failed; the per-case outcomes always come from the XML reports.
package testrunner
