// Package watch is the optional directory intake. It watches the live root
// for finished recordings and submits them to the gateway once they stop
// growing, for recorders that cannot post webhooks.
package watch
