// Package logs reads the tallyd daemon log for the CLI.
//
// The daemon writes to a single file under the project runtime directory;
// Tail prints the last lines of that file and can keep following it while
// the daemon appends.
package logs
