package ids

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"hash"
	"strings"

	"github.com/celements/wikibridge/reference"
)

// IDVersion identifies the algorithm an id was computed with.
type IDVersion int

const (
	// XWiki2 ids are the 64-bit truncated MD5 of the full local uid.
	XWiki2 IDVersion = iota + 1
	// Celements3 ids carry collision and object counts in their low bits.
	Celements3
)

func (v IDVersion) String() string {
	switch v {
	case XWiki2:
		return "XWIKI_2"
	case Celements3:
		return "CELEMENTS_3"
	default:
		return fmt.Sprintf("IDVersion(%d)", int(v))
	}
}

// ParseIDVersion parses the name returned by IDVersion.String.
func ParseIDVersion(s string) (IDVersion, error) {
	for _, v := range []IDVersion{XWiki2, Celements3} {
		if strings.EqualFold(v.String(), strings.TrimSpace(s)) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown id version %q", reference.ErrInvalidArgument, s)
}

// ObjectHolder is a document whose objects need ids.
type ObjectHolder interface {
	DocumentRef() reference.DocumentReference
	DocumentLanguage() string
	// DocumentID returns the id assigned to the document, if any.
	DocumentID() (int64, IDVersion, bool)
	// ExistingObjectIDs returns the ids of all objects of the document,
	// including objects pending removal.
	ExistingObjectIDs() []int64
}

// Computer computes ids for documents and their objects.
type Computer interface {
	IDVersion() IDVersion
	ComputeID(doc reference.DocumentReference, lang string, collisionCount, objectCount int) (int64, error)
	ComputeDocumentID(doc reference.DocumentReference, lang string) (int64, error)
	ComputeMaxDocumentID(doc reference.DocumentReference, lang string) (int64, error)
	DocumentIDIterator(doc reference.DocumentReference, lang string, startCollisionCount int) (*DocumentIDIterator, error)
	ComputeNextObjectID(holder ObjectHolder) (int64, error)
}

// Option configures a UniqueHashComputer.
type Option func(*UniqueHashComputer)

// WithHashFunc replaces the MD5 digest, mainly for tests. The function must
// return a fresh hash on every call.
func WithHashFunc(fn func() hash.Hash) Option {
	return func(c *UniqueHashComputer) {
		c.newHash = fn
	}
}

// UniqueHashComputer computes Celements3 ids. It holds no mutable state and is
// safe for concurrent use.
type UniqueHashComputer struct {
	newHash func() hash.Hash
}

var _ Computer = (*UniqueHashComputer)(nil)

func NewUniqueHashComputer(opts ...Option) *UniqueHashComputer {
	c := &UniqueHashComputer{newHash: md5.New}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *UniqueHashComputer) IDVersion() IDVersion {
	return Celements3
}

// LocalUID returns the hash input of a document: the local uid serialization
// of doc, followed by a token for the trimmed language if it is not empty.
func LocalUID(doc reference.DocumentReference, lang string) string {
	uid := reference.SerializeLocalUID(doc)
	if lang = strings.TrimSpace(lang); lang != "" {
		uid = reference.AppendUIDToken(uid, lang)
	}
	return uid
}

// ComputeID packs the document hash with the given collision and object
// counts. Counts outside their bit width fail with ErrCountOutOfRange.
func (c *UniqueHashComputer) ComputeID(doc reference.DocumentReference, lang string, collisionCount, objectCount int) (int64, error) {
	fail := func(err error) (int64, error) {
		return 0, &IDComputationError{
			Op:             "compute id",
			Document:       doc.String(),
			Language:       lang,
			CollisionCount: collisionCount,
			ObjectCount:    objectCount,
			Err:            err,
		}
	}
	if doc.EntityReference == nil {
		return fail(fmt.Errorf("%w: missing document reference", reference.ErrInvalidArgument))
	}
	if err := verifyCount(collisionCount, BitsCollisionCount); err != nil {
		return fail(err)
	}
	if err := verifyCount(objectCount, BitsObjectCount); err != nil {
		return fail(err)
	}
	docHash := unzero(c.hashLocalUID(LocalUID(doc, lang)), BitsCount)
	counts := uint64(collisionCount)<<BitsObjectCount + uint64(objectCount)
	return int64(andifyRight(docHash, BitsCount) & andifyLeft(counts, BitsCount)), nil
}

func (c *UniqueHashComputer) hashLocalUID(uid string) uint64 {
	h := c.newHash()
	h.Write([]byte(uid))
	sum := h.Sum(nil)
	var buf [8]byte
	copy(buf[:], sum)
	return binary.BigEndian.Uint64(buf[:])
}

func (c *UniqueHashComputer) ComputeDocumentID(doc reference.DocumentReference, lang string) (int64, error) {
	return c.ComputeID(doc, lang, 0, 0)
}

// ComputeMaxDocumentID returns the document id at the highest collision count,
// the upper bound when probing for a free id.
func (c *UniqueHashComputer) ComputeMaxDocumentID(doc reference.DocumentReference, lang string) (int64, error) {
	return c.ComputeID(doc, lang, MaxCollisionCount, 0)
}

func (c *UniqueHashComputer) DocumentIDIterator(doc reference.DocumentReference, lang string, startCollisionCount int) (*DocumentIDIterator, error) {
	if startCollisionCount < 0 {
		return nil, &IDComputationError{
			Op:             "iterate document ids",
			Document:       doc.String(),
			Language:       lang,
			CollisionCount: startCollisionCount,
			Err:            fmt.Errorf("%w: negative start collision count", ErrCountOutOfRange),
		}
	}
	return &DocumentIDIterator{computer: c, doc: doc, lang: lang, next: startCollisionCount}, nil
}

// ComputeNextObjectID returns the first unused object id of holder, counting
// objects from 1. The collision count is taken from the document id when it
// was computed with the same version.
func (c *UniqueHashComputer) ComputeNextObjectID(holder ObjectHolder) (int64, error) {
	doc, lang := holder.DocumentRef(), holder.DocumentLanguage()
	collisionCount := 0
	if id, version, ok := holder.DocumentID(); ok && id != 0 && version == c.IDVersion() {
		collisionCount = ExtractCollisionCount(id)
	}
	existing := map[int64]struct{}{}
	for _, id := range holder.ExistingObjectIDs() {
		existing[id] = struct{}{}
	}
	for objectCount := 1; objectCount <= MaxObjectCount; objectCount++ {
		id, err := c.ComputeID(doc, lang, collisionCount, objectCount)
		if err != nil {
			return 0, err
		}
		if _, used := existing[id]; !used {
			return id, nil
		}
	}
	return 0, &IDComputationError{
		Op:             "compute next object id",
		Document:       doc.String(),
		Language:       lang,
		CollisionCount: collisionCount,
		ObjectCount:    MaxObjectCount,
		Err:            ErrObjectsExhausted,
	}
}
