package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/KAIMAN-iOS/KStorage/pkg/cache"
	"github.com/KAIMAN-iOS/KStorage/pkg/keys"
)

func run(ctx context.Context, c *cache.Cache, command string, args []string, exportName string) error {
	switch command {
	case "save":
		return save(ctx, c, args)
	case "load":
		return load(ctx, c, args)
	case "put":
		return put(ctx, c, args)
	case "get":
		return get(ctx, c, args)
	case "blob-put":
		return blobPut(ctx, c, args, exportName)
	case "blob-get":
		return blobGet(ctx, c, args)
	case "temp":
		return temp(ctx, c, args, exportName)
	case "delete":
		return remove(ctx, c, args)
	case "keys":
		return listKeys(c)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func save(ctx context.Context, c *cache.Cache, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("save requires <key> and <json>")
	}

	var value map[string]any
	if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
		return fmt.Errorf("parse value: %w", err)
	}

	path, err := cache.Save(ctx, c, keys.Parse(args[0]), value)
	if err != nil {
		return err
	}

	fmt.Println(path)
	return nil
}

func load(ctx context.Context, c *cache.Cache, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("load requires <key>")
	}

	value, err := cache.Retrieve[map[string]any](ctx, c, keys.Parse(args[0]))
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}

	fmt.Println(string(out))
	return nil
}

func put(ctx context.Context, c *cache.Cache, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("put requires <key> and <text>")
	}

	path, err := c.SaveBlob(ctx, keys.Parse(args[0]), []byte(args[1]))
	if err != nil {
		return err
	}

	fmt.Println(path)
	return nil
}

func get(ctx context.Context, c *cache.Cache, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("get requires <key>")
	}

	data, ok, err := c.FetchBlob(ctx, keys.Parse(args[0]))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("key %q not found", args[0])
	}

	os.Stdout.Write(data)
	return nil
}

func blobPut(ctx context.Context, c *cache.Cache, args []string, exportName string) error {
	if len(args) != 2 {
		return fmt.Errorf("blob-put requires <key> and <file>")
	}

	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[1], err)
	}

	var opts []cache.SaveOption
	if exportName != "" {
		opts = append(opts, cache.WithExport(exportName))
	}

	path, err := c.SaveBlob(ctx, keys.Parse(args[0]), data, opts...)
	if err != nil {
		return err
	}

	fmt.Println(path)
	return nil
}

func blobGet(ctx context.Context, c *cache.Cache, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("blob-get requires <key> and an optional <file>")
	}

	data, ok, err := c.FetchBlob(ctx, keys.Parse(args[0]))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("key %q not found", args[0])
	}

	if len(args) == 2 {
		if err := os.WriteFile(args[1], data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", args[1], err)
		}
		return nil
	}

	os.Stdout.Write(data)
	return nil
}

func temp(ctx context.Context, c *cache.Cache, args []string, exportName string) error {
	if len(args) != 1 {
		return fmt.Errorf("temp requires <file>")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	var opts []cache.SaveOption
	if exportName != "" {
		opts = append(opts, cache.WithExport(exportName))
	}

	key, path, err := c.SaveTemporary(ctx, data, opts...)
	if err != nil {
		return err
	}

	fmt.Printf("%s\t%s\n", key, path)
	return nil
}

func remove(ctx context.Context, c *cache.Cache, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("delete requires <key>")
	}

	if err := c.Delete(ctx, keys.Parse(args[0])); err != nil {
		return err
	}

	fmt.Printf("deleted %s\n", args[0])
	return nil
}

// listKeys walks the storage root; the directory tree is the only
// enumeration the store has.
func listKeys(c *cache.Cache) error {
	root := c.Root()

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		fmt.Println(rel)
		return nil
	})
}
