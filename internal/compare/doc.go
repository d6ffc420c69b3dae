// Package compare detects significant score changes between two audits of
// the same URL.
package compare
