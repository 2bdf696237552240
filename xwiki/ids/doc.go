// Package ids computes the 64-bit primary keys of documents and their objects.
//
// An id is a pure function of the document address, so any node can mint it
// without a central counter:
//
//	[ docHash : 50 bits ][ collisionCount : 2 bits ][ objectCount : 12 bits ]
//
// The hash input is the local uid of the document: the length prefixed local
// serialization of its reference followed by the trimmed language, e.g.
// "5:space3:doc" or "5:space3:doc2:de". The first eight bytes of its MD5 digest
// form docHash; a docHash whose upper 50 bits are all zero is remapped so ids
// never collapse into the small sentinel range.
//
// Two documents hashing to the same 50 bits are told apart by the collision
// count. The storage layer probes the four possible collision slots with
// DocumentIDIterator and fails the save once they are exhausted. Objects reuse
// the document bits and count upwards from 1 in the low 12 bits.
//
// This layout must stay byte stable: changing the local uid format or the bit
// widths re-hashes every stored document.
package ids
