// Package processor contains the logic behind each svxaux command. It
// turns flags and config into audio providers, catalog operations and
// history records, and prints the results for the user.
package processor
