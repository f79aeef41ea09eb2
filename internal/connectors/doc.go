// Package connectors provides image sources for recall.
// Each connector knows how to enumerate and watch photos in one kind of
// location. The filesystem connector is the only one today.
package connectors
