package kvstore

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	bdg, err := OpenBadger("")
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	t.Cleanup(func() { _ = bdg.Close() })

	mr := miniredis.RunT(t)
	rds := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")
	t.Cleanup(func() { _ = rds.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"badger": bdg,
		"redis":  rds,
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get(missing) err = %v, want ErrNotFound", err)
			}

			if err := s.Set(ctx, "video_position_1", []byte(`{"time":90}`)); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := s.Set(ctx, "video_position_2", []byte(`{"time":120}`)); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := s.Set(ctx, "chat_chatOpen", []byte(`true`)); err != nil {
				t.Fatalf("Set: %v", err)
			}

			got, err := s.Get(ctx, "video_position_1")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(got) != `{"time":90}` {
				t.Errorf("Get = %s", got)
			}

			keys, err := s.Keys(ctx, "video_position_")
			if err != nil {
				t.Fatalf("Keys: %v", err)
			}
			if diff := cmp.Diff([]string{"video_position_1", "video_position_2"}, keys); diff != "" {
				t.Errorf("Keys(prefix) mismatch (-want +got):\n%s", diff)
			}

			all, err := s.Keys(ctx, "")
			if err != nil {
				t.Fatalf("Keys(all): %v", err)
			}
			if len(all) != 3 {
				t.Errorf("Keys(all) = %v, want 3 keys", all)
			}

			if err := s.Delete(ctx, "video_position_1"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Get(ctx, "video_position_1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after Delete err = %v", err)
			}
			// deleting an absent key is not an error
			if err := s.Delete(ctx, "video_position_1"); err != nil {
				t.Errorf("Delete(absent) = %v", err)
			}
		})
	}
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	v := []byte("abc")
	_ = m.Set(ctx, "k", v)
	v[0] = 'x'
	got, _ := m.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value aliased caller slice: %s", got)
	}
}

func TestGlobEscape(t *testing.T) {
	if got := globEscape("a*b?[c]"); got != `a\*b\?\[c\]` {
		t.Errorf("globEscape = %q", got)
	}
}
