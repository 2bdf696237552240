// Package observation dispatches events to listeners.
//
// Listeners declare the events they are interested in. An event fired
// through Manager.Notify reaches every listener holding at least one
// registered event that matches it. Document events carry an optional
// reference filter, so a listener can follow a single document, every
// document of a space, or documents whose names match a pattern.
package observation
