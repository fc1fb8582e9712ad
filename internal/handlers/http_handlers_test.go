package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"wallet_api/internal/repository"
	"wallet_api/internal/service"
	"wallet_api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type walletResp struct {
	ID            string  `json:"id"`
	Balance       string  `json:"balance"`
	LastOperation *string `json:"last_operation"`
	Amount        string  `json:"amount"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func setupIntegrationRouter(t *testing.T) (*gin.Engine, func()) {
	pool, teardown := testutil.SetupTestDB(t)
	repo := repository.NewWalletPGRepository(pool, testLogger)
	svc := service.NewWalletService(repo, testLogger)
	handler := NewWalletHTTPHandler(svc)
	r := gin.Default()
	handler.RegisterRoutes(r)
	return r, teardown
}

func createWallet(t *testing.T, r *gin.Engine) walletResp {
	req, _ := http.NewRequest("POST", "/api/v1/wallets", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
	var resp walletResp
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func doOperation(r *gin.Engine, walletID string, opType, amount string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]interface{}{
		"operation_type": opType,
		"amount":         amount,
	})
	req, _ := http.NewRequest("POST", "/api/v1/wallets/"+walletID+"/operation", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIntegration_CreateWallet(t *testing.T) {
	r, teardown := setupIntegrationRouter(t)
	defer teardown()

	resp := createWallet(t, r)
	assert.Equal(t, "0.00", resp.Balance)
	assert.Nil(t, resp.LastOperation)
	assert.NotEmpty(t, resp.CreatedAt)
	assert.NotEmpty(t, resp.UpdatedAt)
	_, err := uuid.Parse(resp.ID)
	assert.NoError(t, err)
}

func TestIntegration_Deposit_And_Withdraw(t *testing.T) {
	r, teardown := setupIntegrationRouter(t)
	defer teardown()

	created := createWallet(t, r)

	// DEPOSIT
	w := doOperation(r, created.ID, "DEPOSIT", "1000.00")
	assert.Equal(t, http.StatusCreated, w.Code)
	var resp walletResp
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1000.00", resp.Balance)
	assert.Equal(t, "1000.00", resp.Amount)
	if assert.NotNil(t, resp.LastOperation) {
		assert.Equal(t, "DEPOSIT", *resp.LastOperation)
	}

	// GET confirms the committed balance
	req, _ := http.NewRequest("GET", "/api/v1/wallets/"+created.ID, nil)
	get := httptest.NewRecorder()
	r.ServeHTTP(get, req)
	assert.Equal(t, http.StatusOK, get.Code)
	assert.Contains(t, get.Body.String(), "1000.00")

	// WITHDRAW
	w = doOperation(r, created.ID, "WITHDRAW", "500")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "500.00", resp.Balance)
	if assert.NotNil(t, resp.LastOperation) {
		assert.Equal(t, "WITHDRAW", *resp.LastOperation)
	}

	// WITHDRAW over the balance
	w = doOperation(r, created.ID, "WITHDRAW", "2000.00")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient funds")
}

func TestIntegration_Withdraw_EmptyWallet(t *testing.T) {
	r, teardown := setupIntegrationRouter(t)
	defer teardown()

	created := createWallet(t, r)

	w := doOperation(r, created.ID, "WITHDRAW", "1000.00")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient funds")

	req, _ := http.NewRequest("GET", "/api/v1/wallets/"+created.ID, nil)
	get := httptest.NewRecorder()
	r.ServeHTTP(get, req)
	assert.Contains(t, get.Body.String(), "0.00")
}

func TestIntegration_NegativeAmount(t *testing.T) {
	r, teardown := setupIntegrationRouter(t)
	defer teardown()

	created := createWallet(t, r)

	w := doOperation(r, created.ID, "DEPOSIT", "-1")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestIntegration_WrongScale(t *testing.T) {
	r, teardown := setupIntegrationRouter(t)
	defer teardown()

	created := createWallet(t, r)

	w := doOperation(r, created.ID, "DEPOSIT", "10.999")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestIntegration_InvalidOperationType(t *testing.T) {
	r, teardown := setupIntegrationRouter(t)
	defer teardown()

	created := createWallet(t, r)

	w := doOperation(r, created.ID, "TRANSFER", "100")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestIntegration_Operation_WalletNotFound(t *testing.T) {
	r, teardown := setupIntegrationRouter(t)
	defer teardown()

	w := doOperation(r, uuid.New().String(), "DEPOSIT", "100")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "wallet not found")
}

func TestIntegration_GetWallet_NotFound(t *testing.T) {
	r, teardown := setupIntegrationRouter(t)
	defer teardown()

	req, _ := http.NewRequest("GET", "/api/v1/wallets/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "wallet not found")
}

func TestIntegration_InvalidUUID(t *testing.T) {
	r, teardown := setupIntegrationRouter(t)
	defer teardown()

	req, _ := http.NewRequest("GET", "/api/v1/wallets/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
