package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPFSToHTTP(t *testing.T) {
	assert.Equal(t, "https://ipfs.io/ipfs/QmHash/1.json", IPFSToHTTP("ipfs://QmHash/1.json", "https://ipfs.io/ipfs/"))
	assert.Equal(t, "https://gw.example/ipfs/QmHash", IPFSToHTTP("ipfs://QmHash", "https://gw.example/ipfs"))
	assert.Equal(t, "https://cdn.example/1.png", IPFSToHTTP("https://cdn.example/1.png", "https://ipfs.io/ipfs/"))
	assert.Equal(t, "", IPFSToHTTP("", "https://ipfs.io/ipfs/"))
}

func TestMetadataClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/1.json":
			_, _ = w.Write([]byte(`{"name":"Bunny 1","image":"ipfs://QmImg/1.png"}`))
		case "/noname.json":
			_, _ = w.Write([]byte(`{"description":"no name here"}`))
		case "/broken.json":
			_, _ = w.Write([]byte(`{not json`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := NewMetadataClient("https://ipfs.io/ipfs/", 5*time.Second, 16)
	require.NoError(t, err)

	meta, err := client.Fetch(context.Background(), srv.URL+"/1.json")
	require.NoError(t, err)
	assert.Equal(t, "Bunny 1", meta.Name)
	assert.Equal(t, "ipfs://QmImg/1.png", meta.Image, "image rewrite is left to the caller")

	meta, err = client.Fetch(context.Background(), srv.URL+"/noname.json")
	require.NoError(t, err)
	assert.Empty(t, meta.Name)

	_, err = client.Fetch(context.Background(), srv.URL+"/broken.json")
	assert.Error(t, err)

	_, err = client.Fetch(context.Background(), srv.URL+"/missing.json")
	assert.Error(t, err)

	_, err = client.Fetch(context.Background(), "")
	assert.Error(t, err)
}

func TestMetadataClient_CachesIPFSDocuments(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/QmDoc/7.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"name":"Bunny 7"}`))
	}))
	defer srv.Close()

	client, err := NewMetadataClient(srv.URL+"/", 5*time.Second, 16)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		meta, err := client.Fetch(context.Background(), "ipfs://QmDoc/7.json")
		require.NoError(t, err)
		assert.Equal(t, "Bunny 7", meta.Name)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
