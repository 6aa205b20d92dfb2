// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// ProgressFunc is invoked after each chunk is written to the store,
// with the bytes downloaded so far and the total: the response's
// Content-Length, or the body's length when that header is absent.
type ProgressFunc func(downloaded, total int64)

type blobMeta struct {
	TotalChunks int   `json:"totalChunks"`
	TotalSize   int64 `json:"totalSize"`
	Complete    bool  `json:"complete"`
	Timestamp   int64 `json:"timestamp"`
}

// ChunkedFetcher downloads a URL in fixed-size chunks through a
// BlobStore, so a completed download is served from the store on later
// calls. A download whose metadata is missing or not marked complete is
// fetched again from the start; partial caches are not resumed.
type ChunkedFetcher struct {
	Store  BlobStore
	Client *http.Client
}

// NewChunkedFetcher returns a fetcher backed by store, using
// http.DefaultClient.
func NewChunkedFetcher(store BlobStore) *ChunkedFetcher {
	return &ChunkedFetcher{Store: store, Client: http.DefaultClient}
}

func metaKey(url string) string {
	return "meta:" + url
}

func chunkKey(url string, index int) string {
	return fmt.Sprintf("chunk:%s:%d", url, index)
}

// Fetch downloads url in chunkSize-byte pieces under the given
// dbName/storeName namespace, reporting progress via onProgress (which
// may be nil). A prior complete download short-circuits to a
// reassemble-from-store path instead of re-fetching.
func (f *ChunkedFetcher) Fetch(ctx context.Context, url string, chunkSize int, dbName, storeName string, onProgress ProgressFunc) ([]byte, error) {
	ns := dbName + "/" + storeName + "/"
	if data, ok, err := f.reassembleIfComplete(ctx, ns, url); err != nil {
		return nil, err
	} else if ok {
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var total int64
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			total = n
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	chunks := 0
	var downloaded int64
	for offset := 0; offset < len(body); offset += chunkSize {
		end := offset + chunkSize
		if end > len(body) {
			end = len(body)
		}
		if err := f.Store.Put(ctx, ns+chunkKey(url, chunks), body[offset:end]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		chunks++
		downloaded = int64(end)
		if onProgress != nil {
			reportTotal := total
			if reportTotal <= 0 {
				reportTotal = int64(len(body))
			}
			onProgress(downloaded, reportTotal)
		}
	}
	if len(body) == 0 {
		chunks = 0
	}

	meta := blobMeta{
		TotalChunks: chunks,
		TotalSize:   int64(len(body)),
		Complete:    true,
		Timestamp:   time.Now().UnixMilli(),
	}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	if err := f.Store.Put(ctx, ns+metaKey(url), metaBytes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return body, nil
}

// reassembleIfComplete reassembles a previously fetched blob from the
// store if its metadata says the download completed, returning
// (nil, false, nil) when no complete record exists.
func (f *ChunkedFetcher) reassembleIfComplete(ctx context.Context, ns, url string) ([]byte, bool, error) {
	metaBytes, ok, err := f.Store.Get(ctx, ns+metaKey(url))
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, false, nil
	}
	var meta blobMeta
	if err := json.Unmarshal(metaBytes, &meta); err != nil || !meta.Complete {
		return nil, false, nil
	}

	out := make([]byte, 0, meta.TotalSize)
	for i := 0; i < meta.TotalChunks; i++ {
		chunk, ok, err := f.Store.Get(ctx, ns+chunkKey(url, i))
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if !ok {
			return nil, false, fmt.Errorf("%w: chunk %d of %s", ErrMissingChunk, i, url)
		}
		out = append(out, chunk...)
	}
	return out, true, nil
}
