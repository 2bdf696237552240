// Package store persists wiki documents.
//
// Store prepares documents for saving: it validates them, assigns the
// document id (probing collision counts until a free id is found), assigns
// ids to new objects and fires the document events. The actual persistence is
// delegated to a Backend, either the JSON file backend of this package or
// the SQL backend of package sqlstore.
package store
