// Package ratelimit implements sliding-window admission control for the
// endpoints that trigger paid generation calls. Each caller key owns an
// ordered list of request times kept in an ephemeral store.
package ratelimit
