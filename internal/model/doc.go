// Package model defines the data structures shared across linkscan:
// crawl targets, visit outcomes, link states, and the crawl report
// consumed by the report writers and the compare command.
package model
