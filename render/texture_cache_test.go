package render

import (
	"testing"

	"github.com/gogpu/gputypes"
)

type stubTexture struct{ destroyed bool }

func (s *stubTexture) Width() uint32                       { return 0 }
func (s *stubTexture) Height() uint32                      { return 0 }
func (s *stubTexture) Format() gputypes.TextureFormat      { return gputypes.TextureFormatRGBA8Unorm }
func (s *stubTexture) CreateView() TextureView             { return nil }
func (s *stubTexture) Destroy()                            { s.destroyed = true }

func TestTextureCacheReusesFreedEntry(t *testing.T) {
	c := NewTextureCache(1<<30, 1<<29)
	key := TextureKey{Width: 64, Height: 64, Format: 1}
	calls := 0
	create := func() (Texture, int64, error) {
		calls++
		return &stubTexture{}, 16 * 1024, nil
	}

	ct, err := c.RequestTexture(key, create)
	if err != nil {
		t.Fatalf("RequestTexture: %v", err)
	}
	c.Release(ct)

	ct2, err := c.RequestTexture(key, create)
	if err != nil {
		t.Fatalf("RequestTexture: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected cached texture to be reused, create called %d times", calls)
	}
	if ct2 != ct {
		t.Fatal("expected the same *CachedTexture to be returned on reuse")
	}
}

func TestTextureCacheShrinksAboveSoftCap(t *testing.T) {
	c := NewTextureCache(1000, 100)
	for i := 0; i < 10; i++ {
		key := TextureKey{Width: i, Height: 1, Format: 0}
		ct, err := c.RequestTexture(key, func() (Texture, int64, error) {
			return &stubTexture{}, 50, nil
		})
		if err != nil {
			t.Fatalf("RequestTexture: %v", err)
		}
		c.Release(ct)
	}
	if c.Size() > 500 {
		t.Fatalf("expected shrink to target hardCap/2=500, got size=%d", c.Size())
	}
}

func TestTextureCacheClearDestroysAll(t *testing.T) {
	c := NewTextureCache(1<<30, 1<<29)
	tex := &stubTexture{}
	key := TextureKey{Width: 1, Height: 1, Format: 0}
	ct, err := c.RequestTexture(key, func() (Texture, int64, error) { return tex, 10, nil })
	if err != nil {
		t.Fatalf("RequestTexture: %v", err)
	}
	c.Release(ct)
	c.Clear()
	if !tex.destroyed {
		t.Fatal("expected Clear to destroy cached textures")
	}
	if c.Size() != 0 || c.Len() != 0 {
		t.Fatal("expected cache to be empty after Clear")
	}
}
