// Package catalog reads, checks and rewrites Qt Linguist translation
// catalogs (.ts files). A catalog is a list of contexts, each holding
// messages keyed by their source string (plus the optional disambiguating
// comment), and a translation whose state is finished, unfinished or
// obsolete.
package catalog
