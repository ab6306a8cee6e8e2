// Package config provides configuration structures and utilities for linkscan.
// It defines the crawl options populated from CLI flags, the YAML config
// file with per-site overrides, and startup validation.
package config
