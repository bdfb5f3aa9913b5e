// Package store keeps a local sqlite history of synthesized clips and
// catalog check runs.
package store
