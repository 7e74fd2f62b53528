package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nft-bridge/internal/clients"
	"nft-bridge/internal/config"
	"nft-bridge/internal/models"
	"nft-bridge/internal/services"
	"nft-bridge/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeSession struct {
	mu          sync.Mutex
	view        services.SessionView
	inventories map[string][]models.NftItem
	refreshed   []string
	refreshErr  error
	toggleErr   error
	swapErr     error
	startErr    error
	selection   []uint64
	direction   utils.Direction
}

func (f *fakeSession) Status(ctx context.Context) services.SessionView { return f.view }

func (f *fakeSession) RefreshInventory(ctx context.Context, chainKey string) ([]models.NftItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, chainKey)
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.inventories[chainKey], nil
}

func (f *fakeSession) Inventory(chainKey string) ([]models.NftItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items, ok := f.inventories[chainKey]
	return items, ok && len(f.refreshed) > 0
}

func (f *fakeSession) Toggle(tokenID uint64) ([]uint64, error) {
	if f.toggleErr != nil {
		return f.selection, f.toggleErr
	}
	f.selection = append(f.selection, tokenID)
	return f.selection, nil
}

func (f *fakeSession) SelectAll() []uint64 { return f.selection }

func (f *fakeSession) SwapDirection() (utils.Direction, error) {
	if f.swapErr != nil {
		return f.direction, f.swapErr
	}
	f.direction = f.direction.Swap()
	return f.direction, nil
}

func (f *fakeSession) StartBridge(ctx context.Context) (*models.BridgeOperation, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	op := models.NewBridgeOperation(f.direction.From, f.direction.To, f.selection)
	op.Transition(models.PhaseValidating, time.Now())
	return op, nil
}

func (f *fakeSession) Direction() utils.Direction { return f.direction }

func newFakeSession() *fakeSession {
	return &fakeSession{
		direction:   utils.Direction{From: "base", To: "mega"},
		inventories: map[string][]models.NftItem{"base": {{TokenID: 1, Name: "Bad Bunnz #1"}}},
	}
}

func newBridgeEngine(s *fakeSession) *gin.Engine {
	r := gin.New()
	bh := NewBridgeHandler(s, quietLogger())
	ih := NewInventoryHandler(s, quietLogger())
	r.GET("/api/session", bh.GetSessionHandler)
	r.POST("/api/selection/toggle", bh.ToggleHandler)
	r.POST("/api/selection/all", bh.SelectAllHandler)
	r.POST("/api/direction/swap", bh.SwapDirectionHandler)
	r.POST("/api/bridge", bh.StartBridgeHandler)
	r.GET("/api/inventory/:chain", ih.GetInventoryHandler)
	return r
}

func serve(r http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestStatsProxy_NotConfigured(t *testing.T) {
	r := gin.New()
	h := NewStatsProxyHandler(clients.NewStatsBackendClient("", "", time.Second), quietLogger())
	r.GET("/api/stats", h.ProxyHandler)

	w, body := serve(r, http.MethodGet, "/api/stats", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Stats API not configured", body["error"])
}

func TestStatsProxy_PassThrough(t *testing.T) {
	var gotPath, gotQuery, gotKey string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotKey = r.URL.Path, r.URL.RawQuery, r.Header.Get("x-api-key")
		switch r.URL.Path {
		case "/api/stats/recent":
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `{"items":[{"tx":"0xabc"}]}`)
		case "/api/stats/missing":
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":"not found"}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, "upstream exploded")
		}
	}))
	defer upstream.Close()

	r := gin.New()
	h := NewStatsProxyHandler(clients.NewStatsBackendClient(upstream.URL+"/", "secret-key", time.Second), quietLogger())
	r.GET("/api/stats", h.ProxyHandler)
	r.GET("/api/stats/*path", h.ProxyHandler)

	w, body := serve(r, http.MethodGet, "/api/stats/recent?limit=5", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/api/stats/recent", gotPath)
	assert.Equal(t, "limit=5", gotQuery)
	assert.Equal(t, "secret-key", gotKey)
	assert.Len(t, body["items"], 1)

	w, body = serve(r, http.MethodGet, "/api/stats/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not found", body["error"])

	w, _ = serve(r, http.MethodGet, "/api/stats", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "/api/stats", gotPath)
	assert.JSONEq(t, `{}`, w.Body.String())
}

func TestStatsProxy_BadGateway(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	r := gin.New()
	h := NewStatsProxyHandler(clients.NewStatsBackendClient(url, "", time.Second), quietLogger())
	r.GET("/api/stats", h.ProxyHandler)

	w, body := serve(r, http.MethodGet, "/api/stats", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Failed to fetch stats", body["error"])
}

func TestBridgeHandler_Toggle(t *testing.T) {
	s := newFakeSession()
	r := newBridgeEngine(s)

	w, _ := serve(r, http.MethodPost, "/api/selection/toggle", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := serve(r, http.MethodPost, "/api/selection/toggle", `{"token_id": 0}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{float64(0)}, body["selection"])

	s.toggleErr = services.ErrTokenNotOwned
	w, _ = serve(r, http.MethodPost, "/api/selection/toggle", `{"token_id": 99}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBridgeHandler_SwapAndStart(t *testing.T) {
	s := newFakeSession()
	r := newBridgeEngine(s)

	w, body := serve(r, http.MethodPost, "/api/direction/swap", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mega", body["direction"].(map[string]interface{})["from"])

	s.swapErr = services.ErrBridgeInFlight
	w, _ = serve(r, http.MethodPost, "/api/direction/swap", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	s.selection = []uint64{4}
	w, body = serve(r, http.MethodPost, "/api/bridge", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	op := body["operation"].(map[string]interface{})
	assert.Equal(t, "validating", op["phase"])

	s.startErr = services.ErrBridgeInFlight
	w, _ = serve(r, http.MethodPost, "/api/bridge", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBridgeHandler_Session(t *testing.T) {
	s := newFakeSession()
	s.view = services.SessionView{ActionLabel: "Select NFTs to bridge", MaxBatchSize: 20, Selection: []uint64{}}
	w, body := serve(newBridgeEngine(s), http.MethodGet, "/api/session", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Select NFTs to bridge", body["action_label"])
	assert.Equal(t, float64(20), body["max_batch_size"])
}

func TestInventoryHandler(t *testing.T) {
	s := newFakeSession()
	r := newBridgeEngine(s)

	w, body := serve(r, http.MethodGet, "/api/inventory/base", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, []string{"base"}, s.refreshed)

	// cached now
	serve(r, http.MethodGet, "/api/inventory/base", "")
	assert.Len(t, s.refreshed, 1)

	serve(r, http.MethodGet, "/api/inventory/base?refresh=true", "")
	assert.Len(t, s.refreshed, 2)

	s.refreshErr = fmt.Errorf("%w: solana", services.ErrUnknownChain)
	w, _ = serve(r, http.MethodGet, "/api/inventory/solana", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.refreshErr = fmt.Errorf("failed to list inventory on mega: %w", io.ErrUnexpectedEOF)
	w, _ = serve(r, http.MethodGet, "/api/inventory/mega", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestChainConfigHandler(t *testing.T) {
	registry := utils.NewChainRegistry(map[string]config.NetworkConfig{
		"base": {ChainID: 84532, Name: "Base Sepolia", NFTContract: "0xcCc5D02de05A490D949A19be3685F371CB0F8543", BridgeContract: "0x713E2060eF942C3681225abf5e176fc1E5AFE31F"},
		"mega": {ChainID: 6343, Name: "MegaETH", NFTContract: "0xefE87bdC8A9eEBA823d530c6328E2A2E318fb41b"},
	})
	r := gin.New()
	r.GET("/api/chains", NewChainConfigHandler(registry, newFakeSession(), "wc-project").ListChainsHandler)

	w, body := serve(r, http.MethodGet, "/api/chains", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, "wc-project", body["wallet_connect_project_id"])

	chains := body["chains"].([]interface{})
	flags := map[string]bool{}
	for _, raw := range chains {
		c := raw.(map[string]interface{})
		flags[c["key"].(string)] = c["bridge_configured"].(bool)
	}
	assert.Equal(t, map[string]bool{"base": true, "mega": false}, flags)
}

func TestWebSocketHandler_StreamsStatus(t *testing.T) {
	push := services.NewStatusPushService(quietLogger())
	h := NewWebSocketHandler(push, quietLogger())
	server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello map[string]interface{}
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "connected", hello["type"])
	assert.Equal(t, 1, push.ClientCount())

	op := models.NewBridgeOperation("base", "mega", []uint64{1})
	op.Transition(models.PhaseCheckingApproval, time.Now())
	push.PublishBridgeStatus(*op)

	var msg services.PushMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "bridge_status", msg.Type)
	data := msg.Data.(map[string]interface{})
	assert.Equal(t, "checking_approval", data["phase"])
	assert.Equal(t, "Checking approval…", data["status"])
}

func TestChainConfigHandler_HidesRPCURL(t *testing.T) {
	registry := utils.NewChainRegistry(map[string]config.NetworkConfig{
		"base": {ChainID: 84532, Name: "Base Sepolia", RPCURL: "https://base-sepolia.g.alchemy.com/v2/secret"},
	})
	r := gin.New()
	r.GET("/api/chains", NewChainConfigHandler(registry, newFakeSession(), "").ListChainsHandler)

	w, _ := serve(r, http.MethodGet, "/api/chains", "")
	assert.NotContains(t, w.Body.String(), "secret")
}
