// Package reference models hierarchical wiki addresses.
//
// An EntityReference is an immutable node naming one level (wiki, space,
// document, attachment, object or object property) together with its parent
// chain. The typed references (WikiReference, DocumentReference, ...) wrap a
// node whose chain is complete up to a parentless wiki; they can only be
// obtained through constructors or converters that validate the chain.
//
// Relative references are handled with RefBuilder and the combination helpers:
//
//	doc, ok, err := reference.CompleteRef[reference.DocumentReference](pageRef, spaceRef, wikiRef)
//
// For every level the first reference supplying it wins. Serialize, Resolve and
// SerializeUID convert references to and from their string forms.
package reference
