// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

package file

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skyfile-dev/skyfile/cmd/skyfile/cli"
	"github.com/skyfile-dev/skyfile/lib/checksum"
	"github.com/skyfile-dev/skyfile/lib/config"
	"github.com/skyfile-dev/skyfile/lib/pds"
	"github.com/skyfile-dev/skyfile/lib/schema"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// testJWT builds an unsigned JWT whose exp claim is far in the future.
// Session setup only inspects the claims, never the signature.
func testJWT(t *testing.T) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"exp":9999999999}`))
	return header + "." + payload + "."
}

// isolateConfig points the config file at an empty temp location and
// clears the connection environment so only flags feed Resolve.
func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvConfig, filepath.Join(t.TempDir(), "config.json"))
	t.Setenv(config.EnvService, "")
	t.Setenv(config.EnvIdentifier, "")
	t.Setenv(config.EnvPassword, "")
	t.Setenv(config.EnvPasswordFile, "")
}

// newFakePDS starts a server that accepts any createSession call and
// routes other XRPC endpoints to the given handlers.
func newFakePDS(t *testing.T, handlers map[string]http.HandlerFunc) (*httptest.Server, Connection) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/xrpc/com.atproto.server.createSession", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"accessJwt": testJWT(t),
			"did":       "did:plc:testuser",
			"handle":    "alice.test",
		})
	})
	for path, handler := range handlers {
		mux.HandleFunc(path, handler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	connection := Connection{
		Service:    server.URL,
		Identifier: "alice.test",
		Password:   "app-pass",
	}
	return server, connection
}

// captureStdout runs fn with os.Stdout redirected to a pipe and
// returns everything written.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	read, write, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	original := os.Stdout
	os.Stdout = write
	defer func() { os.Stdout = original }()

	fn()

	write.Close()
	captured, err := io.ReadAll(read)
	if err != nil {
		t.Fatalf("reading captured output: %v", err)
	}
	return string(captured)
}

func assertCategory(t *testing.T, err error, category cli.ErrorCategory) {
	t.Helper()
	var cmdErr *cli.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected *cli.CommandError, got %T: %v", err, err)
	}
	if cmdErr.Category != category {
		t.Errorf("category = %q, want %q", cmdErr.Category, category)
	}
}

// storedRecordJSON is a valid record value as the server would return
// it from getRecord or listRecords.
func storedRecordJSON(name string, size int64) json.RawMessage {
	value := map[string]any{
		"$type": schema.Collection,
		"blob": map[string]any{
			"$type":    "blob",
			"ref":      map[string]any{"$link": "bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku"},
			"mimeType": "text/plain",
			"size":     size,
		},
		"createdAt": "2026-08-30T10:00:00Z",
		"file": map[string]any{
			"name":     name,
			"size":     size,
			"mimeType": "text/plain",
		},
	}
	encoded, _ := json.Marshal(value)
	return encoded
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 << 20, "5.0 MB"},
		{3 << 30, "3.0 GB"},
	}
	for _, test := range tests {
		if got := formatSize(test.bytes); got != test.want {
			t.Errorf("formatSize(%d) = %q, want %q", test.bytes, got, test.want)
		}
	}
}

func TestUpload(t *testing.T) {
	isolateConfig(t)

	path := filepath.Join(t.TempDir(), "notes.json")
	content := []byte(`{"topic":"meeting notes from tuesday"}`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	var uploadedBody []byte
	var uploadedContentType string
	var createdRecord map[string]any

	_, connection := newFakePDS(t, map[string]http.HandlerFunc{
		"/xrpc/com.atproto.repo.uploadBlob": func(w http.ResponseWriter, r *http.Request) {
			uploadedContentType = r.Header.Get("Content-Type")
			uploadedBody, _ = io.ReadAll(r.Body)
			json.NewEncoder(w).Encode(map[string]any{
				"blob": map[string]any{
					"$type":    "blob",
					"ref":      map[string]any{"$link": "bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku"},
					"mimeType": "text/plain",
					"size":     len(uploadedBody),
				},
			})
		},
		"/xrpc/com.atproto.repo.createRecord": func(w http.ResponseWriter, r *http.Request) {
			var request struct {
				Repo       string         `json:"repo"`
				Collection string         `json:"collection"`
				Record     map[string]any `json:"record"`
			}
			if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
				t.Errorf("decoding createRecord body: %v", err)
			}
			if request.Collection != schema.Collection {
				t.Errorf("collection = %q, want %q", request.Collection, schema.Collection)
			}
			createdRecord = request.Record
			json.NewEncoder(w).Encode(map[string]any{
				"uri": "at://did:plc:testuser/" + schema.Collection + "/3k2akfyhszc2a",
				"cid": "bafyreib2rxk3rw6lzcxi3nzlrhniqzsgnhs4wdcm4fvz3pkdo765nlcpsq",
			})
		},
	})

	params := &uploadParams{Connection: connection, ChecksumAlgo: string(checksum.Default)}
	output := captureStdout(t, func() {
		if err := runUpload(t.Context(), path, params, testLogger()); err != nil {
			t.Errorf("runUpload: %v", err)
		}
	})

	if !bytes.Equal(uploadedBody, content) {
		t.Errorf("uploaded body = %q, want %q", uploadedBody, content)
	}
	if uploadedContentType != "application/json" {
		t.Errorf("uploaded content type = %q", uploadedContentType)
	}

	if createdRecord["$type"] != schema.Collection {
		t.Errorf("record $type = %v", createdRecord["$type"])
	}
	fileField, ok := createdRecord["file"].(map[string]any)
	if !ok {
		t.Fatalf("record file field = %v", createdRecord["file"])
	}
	if fileField["name"] != "notes.json" {
		t.Errorf("file name = %v, want notes.json", fileField["name"])
	}
	checksumField, ok := createdRecord["checksum"].(map[string]any)
	if !ok {
		t.Fatalf("record checksum field = %v", createdRecord["checksum"])
	}
	if checksumField["algo"] != "sha256" {
		t.Errorf("checksum algo = %v, want sha256", checksumField["algo"])
	}

	if !strings.Contains(output, "3k2akfyhszc2a") {
		t.Errorf("output missing rkey: %q", output)
	}
}

func TestUpload_Compress(t *testing.T) {
	isolateConfig(t)

	path := filepath.Join(t.TempDir(), "access.log")
	content := bytes.Repeat([]byte("GET /index.html 200\n"), 100)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	var uploadedBody []byte
	var uploadedContentType string
	var createdRecord map[string]any

	_, connection := newFakePDS(t, map[string]http.HandlerFunc{
		"/xrpc/com.atproto.repo.uploadBlob": func(w http.ResponseWriter, r *http.Request) {
			uploadedContentType = r.Header.Get("Content-Type")
			uploadedBody, _ = io.ReadAll(r.Body)
			json.NewEncoder(w).Encode(map[string]any{
				"blob": map[string]any{
					"$type":    "blob",
					"ref":      map[string]any{"$link": "bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku"},
					"mimeType": "application/gzip",
					"size":     len(uploadedBody),
				},
			})
		},
		"/xrpc/com.atproto.repo.createRecord": func(w http.ResponseWriter, r *http.Request) {
			var request struct {
				Record map[string]any `json:"record"`
			}
			json.NewDecoder(r.Body).Decode(&request)
			createdRecord = request.Record
			json.NewEncoder(w).Encode(map[string]any{
				"uri": "at://did:plc:testuser/" + schema.Collection + "/3k2akfyhszc2b",
				"cid": "bafyreib2rxk3rw6lzcxi3nzlrhniqzsgnhs4wdcm4fvz3pkdo765nlcpsq",
			})
		},
	})

	params := &uploadParams{Connection: connection, ChecksumAlgo: string(checksum.Default), Compress: true}
	captureStdout(t, func() {
		if err := runUpload(t.Context(), path, params, testLogger()); err != nil {
			t.Errorf("runUpload: %v", err)
		}
	})

	if uploadedContentType != "application/gzip" {
		t.Errorf("uploaded content type = %q, want application/gzip", uploadedContentType)
	}

	// The uploaded bytes must decompress back to the original.
	reader, err := gzip.NewReader(bytes.NewReader(uploadedBody))
	if err != nil {
		t.Fatalf("uploaded body is not gzip: %v", err)
	}
	decompressed, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("decompressing uploaded body: %v", err)
	}
	if !bytes.Equal(decompressed, content) {
		t.Errorf("decompressed body does not match original")
	}

	fileField := createdRecord["file"].(map[string]any)
	if fileField["name"] != "access.log.gz" {
		t.Errorf("file name = %v, want access.log.gz", fileField["name"])
	}
	if size := fileField["size"].(float64); int(size) != len(uploadedBody) {
		t.Errorf("declared size = %v, want %d", size, len(uploadedBody))
	}
}

func TestUpload_MissingFile(t *testing.T) {
	params := &uploadParams{}
	err := runUpload(t.Context(), filepath.Join(t.TempDir(), "absent.txt"), params, testLogger())
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	assertCategory(t, err, cli.CategoryFileSystem)
}

func TestUpload_UnknownChecksumAlgorithm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, []byte("payload"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	params := &uploadParams{ChecksumAlgo: "md5"}
	err := runUpload(t.Context(), path, params, testLogger())
	if err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
	assertCategory(t, err, cli.CategoryValidation)
	if !strings.Contains(err.Error(), "md5") {
		t.Errorf("error should name the algorithm: %v", err)
	}
}

func TestUpload_ValidationFailure(t *testing.T) {
	isolateConfig(t)

	path := filepath.Join(t.TempDir(), "tagged.txt")
	if err := os.WriteFile(path, []byte("content"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	createRecordCalled := false
	_, connection := newFakePDS(t, map[string]http.HandlerFunc{
		"/xrpc/com.atproto.repo.uploadBlob": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"blob": map[string]any{
					"$type":    "blob",
					"ref":      map[string]any{"$link": "bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku"},
					"mimeType": "text/plain",
					"size":     7,
				},
			})
		},
		"/xrpc/com.atproto.repo.createRecord": func(w http.ResponseWriter, r *http.Request) {
			createRecordCalled = true
			json.NewEncoder(w).Encode(map[string]any{"uri": "", "cid": ""})
		},
	})

	// An attribution with spaces fails the actor format check, which
	// must abort before createRecord.
	params := &uploadParams{Connection: connection, ChecksumAlgo: string(checksum.Default), Attribution: "not a handle"}
	var err error
	captureStdout(t, func() {
		err = runUpload(t.Context(), path, params, testLogger())
	})
	if err == nil {
		t.Fatal("expected validation failure")
	}
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *cli.ExitError, got %T: %v", err, err)
	}
	if exitErr.Code != 1 {
		t.Errorf("exit code = %d, want 1", exitErr.Code)
	}
	if createRecordCalled {
		t.Error("createRecord must not be called after validation failure")
	}
}

func TestList(t *testing.T) {
	isolateConfig(t)

	var gotLimit string
	_, connection := newFakePDS(t, map[string]http.HandlerFunc{
		"/xrpc/com.atproto.repo.listRecords": func(w http.ResponseWriter, r *http.Request) {
			gotLimit = r.URL.Query().Get("limit")
			json.NewEncoder(w).Encode(map[string]any{
				"records": []map[string]any{
					{
						"uri":   "at://did:plc:testuser/" + schema.Collection + "/3k2aaaaaaaa2a",
						"cid":   "bafyreib2rxk3rw6lzcxi3nzlrhniqzsgnhs4wdcm4fvz3pkdo765nlcpsq",
						"value": json.RawMessage(storedRecordJSON("report.pdf", 2048)),
					},
					{
						"uri":   "at://did:plc:testuser/" + schema.Collection + "/3k2bbbbbbbb2b",
						"cid":   "bafyreib2rxk3rw6lzcxi3nzlrhniqzsgnhs4wdcm4fvz3pkdo765nlcpsq",
						"value": json.RawMessage(`{"unexpected":"shape","file":"not an object"}`),
					},
				},
			})
		},
	})

	params := &listParams{Connection: connection, Limit: 10}
	output := captureStdout(t, func() {
		if err := runList(t.Context(), params, testLogger()); err != nil {
			t.Errorf("runList: %v", err)
		}
	})

	if gotLimit != "10" {
		t.Errorf("limit query = %q, want 10", gotLimit)
	}
	if !strings.Contains(output, "report.pdf") {
		t.Errorf("output missing record name: %q", output)
	}
	// The malformed record still lists by rkey with blank metadata.
	if !strings.Contains(output, "3k2bbbbbbbb2b") {
		t.Errorf("output missing malformed record rkey: %q", output)
	}
}

func TestList_Empty(t *testing.T) {
	isolateConfig(t)

	_, connection := newFakePDS(t, map[string]http.HandlerFunc{
		"/xrpc/com.atproto.repo.listRecords": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"records": []any{}})
		},
	})

	params := &listParams{Connection: connection, Limit: 50}
	if err := runList(t.Context(), params, testLogger()); err != nil {
		t.Errorf("runList on empty collection: %v", err)
	}
}

func TestShow_Verify(t *testing.T) {
	isolateConfig(t)

	value := storedRecordJSON("report.pdf", 2048)
	var decoded any
	if err := json.Unmarshal(value, &decoded); err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}
	recordCID, err := pds.RecordCID(decoded)
	if err != nil {
		t.Fatalf("computing fixture CID: %v", err)
	}

	_, connection := newFakePDS(t, map[string]http.HandlerFunc{
		"/xrpc/com.atproto.repo.getRecord": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"uri":   "at://did:plc:testuser/" + schema.Collection + "/3k2akfyhszc2a",
				"cid":   recordCID,
				"value": json.RawMessage(value),
			})
		},
	})

	params := &showParams{Connection: connection, Verify: true}
	params.OutputJSON = true
	output := captureStdout(t, func() {
		if err := runShow(t.Context(), "3k2akfyhszc2a", params, testLogger()); err != nil {
			t.Errorf("runShow: %v", err)
		}
	})

	var result showResult
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("decoding --json output: %v\n%s", err, output)
	}
	if result.ComputedCID != recordCID {
		t.Errorf("computed CID = %q, want %q", result.ComputedCID, recordCID)
	}
	if result.CIDMatch == nil || !*result.CIDMatch {
		t.Error("expected cidMatch true")
	}
	if result.Record == nil || result.Record.File.Name != "report.pdf" {
		t.Errorf("record = %+v", result.Record)
	}
}

func TestShow_NotFound(t *testing.T) {
	isolateConfig(t)

	_, connection := newFakePDS(t, map[string]http.HandlerFunc{
		"/xrpc/com.atproto.repo.getRecord": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error":   "RecordNotFound",
				"message": "record not found",
			})
		},
	})

	params := &showParams{Connection: connection}
	err := runShow(t.Context(), "3k2missing2aa", params, testLogger())
	if err == nil {
		t.Fatal("expected not-found error")
	}
	assertCategory(t, err, cli.CategoryNotFound)
	if !strings.Contains(err.Error(), "3k2missing2aa") {
		t.Errorf("error should name the rkey: %v", err)
	}
}

func TestGet_Output(t *testing.T) {
	isolateConfig(t)

	content := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x01, 0x02}

	_, connection := newFakePDS(t, map[string]http.HandlerFunc{
		"/xrpc/com.atproto.repo.getRecord": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"uri":   "at://did:plc:testuser/" + schema.Collection + "/3k2akfyhszc2a",
				"cid":   "bafyreib2rxk3rw6lzcxi3nzlrhniqzsgnhs4wdcm4fvz3pkdo765nlcpsq",
				"value": json.RawMessage(storedRecordJSON("image.png", int64(len(content)))),
			})
		},
		"/xrpc/com.atproto.sync.getBlob": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("did"); got != "did:plc:testuser" {
				t.Errorf("did query = %q", got)
			}
			if got := r.URL.Query().Get("cid"); got == "" {
				t.Error("missing cid query parameter")
			}
			w.Write(content)
		},
	})

	target := filepath.Join(t.TempDir(), "downloaded.png")
	params := &getParams{Connection: connection, Output: target}
	if err := runGet(t.Context(), "3k2akfyhszc2a", params, testLogger()); err != nil {
		t.Fatalf("runGet: %v", err)
	}

	written, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if !bytes.Equal(written, content) {
		t.Errorf("downloaded bytes differ: got %x, want %x", written, content)
	}
}

func TestGet_Stdout(t *testing.T) {
	isolateConfig(t)

	content := []byte("plain text content\n")

	_, connection := newFakePDS(t, map[string]http.HandlerFunc{
		"/xrpc/com.atproto.repo.getRecord": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"uri":   "at://did:plc:testuser/" + schema.Collection + "/3k2akfyhszc2a",
				"cid":   "bafyreib2rxk3rw6lzcxi3nzlrhniqzsgnhs4wdcm4fvz3pkdo765nlcpsq",
				"value": json.RawMessage(storedRecordJSON("notes.txt", int64(len(content)))),
			})
		},
		"/xrpc/com.atproto.sync.getBlob": func(w http.ResponseWriter, r *http.Request) {
			w.Write(content)
		},
	})

	params := &getParams{Connection: connection}
	output := captureStdout(t, func() {
		if err := runGet(t.Context(), "3k2akfyhszc2a", params, testLogger()); err != nil {
			t.Errorf("runGet: %v", err)
		}
	})

	if output != string(content) {
		t.Errorf("stdout = %q, want %q", output, content)
	}
}

func TestDelete(t *testing.T) {
	isolateConfig(t)

	var deleteRequest map[string]any
	_, connection := newFakePDS(t, map[string]http.HandlerFunc{
		"/xrpc/com.atproto.repo.getRecord": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"uri":   "at://did:plc:testuser/" + schema.Collection + "/3k2akfyhszc2a",
				"cid":   "bafyreib2rxk3rw6lzcxi3nzlrhniqzsgnhs4wdcm4fvz3pkdo765nlcpsq",
				"value": json.RawMessage(storedRecordJSON("report.pdf", 2048)),
			})
		},
		"/xrpc/com.atproto.repo.deleteRecord": func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&deleteRequest)
			w.Write([]byte("{}"))
		},
	})

	params := &deleteParams{Connection: connection, Yes: true}
	captureStdout(t, func() {
		if err := runDelete(t.Context(), "3k2akfyhszc2a", params, testLogger()); err != nil {
			t.Errorf("runDelete: %v", err)
		}
	})

	if deleteRequest["collection"] != schema.Collection {
		t.Errorf("delete collection = %v", deleteRequest["collection"])
	}
	if deleteRequest["rkey"] != "3k2akfyhszc2a" {
		t.Errorf("delete rkey = %v", deleteRequest["rkey"])
	}
}

func TestDelete_NotFound(t *testing.T) {
	isolateConfig(t)

	_, connection := newFakePDS(t, map[string]http.HandlerFunc{
		"/xrpc/com.atproto.repo.getRecord": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error":   "RecordNotFound",
				"message": "record not found",
			})
		},
	})

	params := &deleteParams{Connection: connection, Yes: true}
	err := runDelete(t.Context(), "3k2missing2aa", params, testLogger())
	if err == nil {
		t.Fatal("expected not-found error")
	}
	assertCategory(t, err, cli.CategoryNotFound)
}

func TestSession_MissingIdentifier(t *testing.T) {
	isolateConfig(t)

	connection := Connection{Service: "https://pds.example.com"}
	_, _, err := connection.session(t.Context(), testLogger())
	if err == nil {
		t.Fatal("expected error without identifier")
	}
	assertCategory(t, err, cli.CategoryValidation)
	if !strings.Contains(err.Error(), "skyfile config setup") {
		t.Errorf("error should point at config setup: %v", err)
	}
}

func TestSession_BadCredentials(t *testing.T) {
	isolateConfig(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   "AuthenticationRequired",
			"message": "Invalid identifier or password",
		})
	}))
	defer server.Close()

	connection := Connection{
		Service:    server.URL,
		Identifier: "alice.test",
		Password:   "wrong",
	}
	_, _, err := connection.session(t.Context(), testLogger())
	if err == nil {
		t.Fatal("expected authentication error")
	}
	assertCategory(t, err, cli.CategoryAuth)
}
