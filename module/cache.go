package module

import (
	"fmt"
	"hash/fnv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ffishim/dustr/rust"
)

// ParseCache holds parsed files keyed by file name and content, so that
// rebuilding a crate only parses files that changed. It is safe for
// concurrent use.
//
// A nil *ParseCache parses every time.
type ParseCache struct {
	files *lru.Cache[string, *rust.File]
}

func NewParseCache(size int) (*ParseCache, error) {
	c, err := lru.New[string, *rust.File](size)
	if err != nil {
		return nil, err
	}
	return &ParseCache{files: c}, nil
}

func contentKey(filename string, src []byte) string {
	h := fnv.New64a()
	h.Write(src)
	return fmt.Sprintf("%v@%016x", filename, h.Sum64())
}

// Parse returns the parsed file, reusing a previous result for identical
// content. The returned file must not be modified.
func (c *ParseCache) Parse(filename string, src []byte) (*rust.File, error) {
	if c == nil {
		return rust.ParseFile(filename, src)
	}
	key := contentKey(filename, src)
	if f, ok := c.files.Get(key); ok {
		return f, nil
	}
	f, err := rust.ParseFile(filename, src)
	if err != nil {
		return nil, err
	}
	c.files.Add(key, f)
	return f, nil
}

// Len returns the number of cached files.
func (c *ParseCache) Len() int {
	if c == nil {
		return 0
	}
	return c.files.Len()
}
