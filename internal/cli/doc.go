// Package cli provides command-line interface setup and configuration
// for svxaux. It builds the cobra command tree, binds flags into viper,
// reads MARY_* environment defaults and sets up logging.
package cli
