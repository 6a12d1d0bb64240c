package cache_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KAIMAN-iOS/KStorage/pkg/cache"
	"github.com/KAIMAN-iOS/KStorage/pkg/export"
	"github.com/KAIMAN-iOS/KStorage/pkg/keys"
	"github.com/KAIMAN-iOS/KStorage/pkg/storage"
)

type binaryToken struct {
	value string
}

func (b binaryToken) MarshalBinary() ([]byte, error) {
	return []byte("tok:" + b.value), nil
}

type brokenToken struct{}

func (brokenToken) MarshalBinary() ([]byte, error) {
	return nil, errors.New("no binary form")
}

func waitForFile(t *testing.T, path string) []byte {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(path); err == nil {
			return data
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("file %s did not appear before deadline", path)
	return nil
}

func TestSaveBlob_FetchBlob_RoundTrip(t *testing.T) {
	c := testCache(t)

	ctx := context.Background()
	want := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0xff}

	path, err := c.SaveBlob(ctx, keys.PrimaryImage, want)
	if err != nil {
		t.Fatalf("SaveBlob() failed: %v", err)
	}
	if path == "" {
		t.Error("SaveBlob() returned empty path")
	}

	got, ok, err := c.FetchBlob(ctx, keys.PrimaryImage)
	if err != nil {
		t.Fatalf("FetchBlob() failed: %v", err)
	}
	if !ok {
		t.Fatal("FetchBlob() reported no data for a stored blob")
	}
	if !bytes.Equal(got, want) {
		t.Errorf("FetchBlob() = %v, want %v", got, want)
	}
}

func TestSaveBlob_BypassesCodec(t *testing.T) {
	c := testCache(t)

	ctx := context.Background()
	raw := []byte(`not "valid« json`)

	if _, err := c.SaveBlob(ctx, keys.Custom("raw-note"), raw); err != nil {
		t.Fatalf("SaveBlob() failed: %v", err)
	}

	got, ok, err := c.FetchBlob(ctx, keys.Custom("raw-note"))
	if err != nil || !ok {
		t.Fatalf("FetchBlob() = (%v, %v), want data", ok, err)
	}
	if !bytes.Equal(got, raw) {
		t.Errorf("FetchBlob() = %q, want the bytes untouched: %q", got, raw)
	}
}

func TestFetchBlob_Absent(t *testing.T) {
	c := testCache(t)

	data, ok, err := c.FetchBlob(context.Background(), keys.PrimaryImage)
	if err != nil {
		t.Fatalf("FetchBlob() on absent key failed: %v", err)
	}
	if ok {
		t.Error("FetchBlob() reported data for an absent key")
	}
	if data != nil {
		t.Errorf("FetchBlob() = %v, want nil", data)
	}
}

func TestSaveBlob_TooLarge(t *testing.T) {
	cfg := &cache.Config{
		Storage: storage.Config{
			BasePath:    tempCacheDir(t),
			MaxBlobSize: "1KB",
		},
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	c := newCache(t, cfg)

	ctx := context.Background()

	_, err := c.SaveBlob(ctx, keys.PrimaryImage, make([]byte, 1001))
	if !errors.Is(err, cache.ErrBlobTooLarge) {
		t.Errorf("SaveBlob() error = %v, want match for %v", err, cache.ErrBlobTooLarge)
	}
	if _, ok, _ := c.FetchBlob(ctx, keys.PrimaryImage); ok {
		t.Error("oversized blob reached disk")
	}

	// Exactly at the cap still stores.
	if _, err := c.SaveBlob(ctx, keys.PrimaryImage, make([]byte, 1000)); err != nil {
		t.Errorf("SaveBlob() at the cap failed: %v", err)
	}
}

func TestSaveBlobValue_DefaultConverter(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		value any
		want  []byte
	}{
		{"bytes", []byte{1, 2, 3}, []byte{1, 2, 3}},
		{"string", "plain text", []byte("plain text")},
		{"binary marshaler", binaryToken{value: "abc"}, []byte("tok:abc")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := keys.Custom("conv-" + tt.name)
			if _, err := c.SaveBlobValue(ctx, key, tt.value, nil); err != nil {
				t.Fatalf("SaveBlobValue() failed: %v", err)
			}

			got, ok, err := c.FetchBlob(ctx, key)
			if err != nil || !ok {
				t.Fatalf("FetchBlob() = (%v, %v), want data", ok, err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("FetchBlob() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSaveBlobValue_UnsupportedType(t *testing.T) {
	c := testCache(t)

	_, err := c.SaveBlobValue(context.Background(), keys.PrimaryImage, 42, nil)
	if !errors.Is(err, cache.ErrBlobConversion) {
		t.Errorf("SaveBlobValue() error = %v, want match for %v", err, cache.ErrBlobConversion)
	}
}

func TestSaveBlobValue_MarshalerFailure(t *testing.T) {
	c := testCache(t)

	_, err := c.SaveBlobValue(context.Background(), keys.PrimaryImage, brokenToken{}, nil)
	if !errors.Is(err, cache.ErrBlobConversion) {
		t.Errorf("SaveBlobValue() error = %v, want match for %v", err, cache.ErrBlobConversion)
	}
}

func TestSaveBlobValue_CustomConverter(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	upper := func(v any) ([]byte, error) {
		return []byte(strings.ToUpper(v.(string))), nil
	}

	if _, err := c.SaveBlobValue(ctx, keys.Custom("shout"), "hello", upper); err != nil {
		t.Fatalf("SaveBlobValue() failed: %v", err)
	}

	got, ok, err := c.FetchBlob(ctx, keys.Custom("shout"))
	if err != nil || !ok {
		t.Fatalf("FetchBlob() = (%v, %v), want data", ok, err)
	}
	if string(got) != "HELLO" {
		t.Errorf("FetchBlob() = %q, want %q", got, "HELLO")
	}
}

func TestSaveBlobValue_ConverterError(t *testing.T) {
	c := testCache(t)

	failing := func(any) ([]byte, error) {
		return nil, errors.New("converter exploded")
	}

	_, err := c.SaveBlobValue(context.Background(), keys.PrimaryImage, "x", failing)
	if !errors.Is(err, cache.ErrBlobConversion) {
		t.Errorf("SaveBlobValue() error = %v, want match for %v", err, cache.ErrBlobConversion)
	}
}

func TestSaveBlobValue_ConverterNoBytes(t *testing.T) {
	c := testCache(t)

	empty := func(any) ([]byte, error) { return nil, nil }

	_, err := c.SaveBlobValue(context.Background(), keys.PrimaryImage, "x", empty)
	if !errors.Is(err, cache.ErrBlobConversion) {
		t.Errorf("SaveBlobValue() error = %v, want match for %v", err, cache.ErrBlobConversion)
	}
}

func TestSaveBlob_WithExport(t *testing.T) {
	exportDir := tempCacheDir(t)
	cfg := &cache.Config{
		Storage: storage.Config{BasePath: tempCacheDir(t)},
		Export:  export.Config{Dir: exportDir},
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	c := newCache(t, cfg)

	want := []byte("shared image bytes")
	if _, err := c.SaveBlob(context.Background(), keys.PrimaryImage, want, cache.WithExport("photo.png")); err != nil {
		t.Fatalf("SaveBlob() failed: %v", err)
	}

	got := waitForFile(t, filepath.Join(exportDir, "photo.png"))
	if !bytes.Equal(got, want) {
		t.Errorf("exported file = %q, want %q", got, want)
	}
}

func TestSaveBlob_ExportFailureLeavesSaveIntact(t *testing.T) {
	cfg := &cache.Config{
		Storage: storage.Config{BasePath: tempCacheDir(t)},
		Export:  export.Config{Dir: filepath.Join(tempCacheDir(t), "never-created")},
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	c := newCache(t, cfg)

	ctx := context.Background()
	want := []byte("kept despite export failure")

	if _, err := c.SaveBlob(ctx, keys.PrimaryImage, want, cache.WithExport("photo.png")); err != nil {
		t.Fatalf("SaveBlob() failed: %v", err)
	}

	got, ok, err := c.FetchBlob(ctx, keys.PrimaryImage)
	if err != nil || !ok {
		t.Fatalf("FetchBlob() = (%v, %v), want data", ok, err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("FetchBlob() = %q, want %q", got, want)
	}
}

func TestSaveBlob_WithExport_NoDestinationConfigured(t *testing.T) {
	c := testCache(t)

	ctx := context.Background()
	if _, err := c.SaveBlob(ctx, keys.PrimaryImage, []byte("img"), cache.WithExport("photo.png")); err != nil {
		t.Fatalf("SaveBlob() failed without an export destination: %v", err)
	}

	if _, ok, _ := c.FetchBlob(ctx, keys.PrimaryImage); !ok {
		t.Error("blob missing after save")
	}
}

func TestSaveTemporary(t *testing.T) {
	c := testCache(t)

	ctx := context.Background()

	first, firstPath, err := c.SaveTemporary(ctx, []byte("draft one"))
	if err != nil {
		t.Fatalf("SaveTemporary() failed: %v", err)
	}
	second, _, err := c.SaveTemporary(ctx, []byte("draft two"))
	if err != nil {
		t.Fatalf("SaveTemporary() failed: %v", err)
	}

	if first == second {
		t.Errorf("SaveTemporary() reused key %q", first)
	}
	if !first.IsTemporary() || !second.IsTemporary() {
		t.Errorf("SaveTemporary() keys = %q, %q, want temporary namespace", first, second)
	}
	if !strings.HasPrefix(firstPath, c.Root()) {
		t.Errorf("path %q outside storage root %q", firstPath, c.Root())
	}

	got, ok, err := c.FetchBlob(ctx, first)
	if err != nil || !ok {
		t.Fatalf("FetchBlob() = (%v, %v), want data", ok, err)
	}
	if string(got) != "draft one" {
		t.Errorf("FetchBlob() = %q, want %q", got, "draft one")
	}
}

func TestSaveBlobAsync_DeliversPath(t *testing.T) {
	c := testCache(t)

	type result struct {
		path string
		err  error
	}
	done := make(chan result, 1)

	c.SaveBlobAsync(context.Background(), keys.PrimaryImage, []byte("async img"), func(path string, err error) {
		done <- result{path, err}
	})

	r := <-done
	if r.err != nil {
		t.Fatalf("SaveBlobAsync() callback error = %v", r.err)
	}
	if r.path == "" {
		t.Error("SaveBlobAsync() delivered empty path")
	}
}

func TestFetchBlobAsync_RoundTrip(t *testing.T) {
	c := testCache(t)

	ctx := context.Background()
	want := []byte("fetched async")
	if _, err := c.SaveBlob(ctx, keys.PrimaryImage, want); err != nil {
		t.Fatalf("SaveBlob() failed: %v", err)
	}

	type result struct {
		data []byte
		ok   bool
		err  error
	}
	done := make(chan result, 1)

	c.FetchBlobAsync(ctx, keys.PrimaryImage, func(data []byte, ok bool, err error) {
		done <- result{data, ok, err}
	})

	r := <-done
	if r.err != nil || !r.ok {
		t.Fatalf("FetchBlobAsync() = (%v, %v), want data", r.ok, r.err)
	}
	if !bytes.Equal(r.data, want) {
		t.Errorf("FetchBlobAsync() = %q, want %q", r.data, want)
	}
}

func TestSaveTemporaryAsync_DeliversKey(t *testing.T) {
	c := testCache(t)

	type result struct {
		key  keys.Key
		path string
		err  error
	}
	done := make(chan result, 1)

	c.SaveTemporaryAsync(context.Background(), []byte("async draft"), func(key keys.Key, path string, err error) {
		done <- result{key, path, err}
	})

	r := <-done
	if r.err != nil {
		t.Fatalf("SaveTemporaryAsync() callback error = %v", r.err)
	}
	if !r.key.IsTemporary() {
		t.Errorf("key = %q, want temporary namespace", r.key)
	}

	got, ok, err := c.FetchBlob(context.Background(), r.key)
	if err != nil || !ok {
		t.Fatalf("FetchBlob() = (%v, %v), want data", ok, err)
	}
	if string(got) != "async draft" {
		t.Errorf("FetchBlob() = %q, want %q", got, "async draft")
	}
}
