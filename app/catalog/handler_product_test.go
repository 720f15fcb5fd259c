package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwatch/pricesync/models"
)

func TestHandleGetProduct(t *testing.T) {
	withHistory := mockProduct("PROD001", "3.50", "dairy", "milk")
	withHistory.Size = "2L"
	withHistory.UnitPrice = decimal.NewNullDecimal(decimal.RequireFromString("1.75"))
	withHistory.UnitName = "L"
	withHistory.OriginalUnitQuantity = decimal.NewNullDecimal(decimal.NewFromInt(2))
	withHistory.PriceHistory = []models.DatedPrice{
		{Date: checked.Add(-48 * time.Hour), Price: decimal.RequireFromString("3.99")},
		{Date: checked, Price: decimal.RequireFromString("3.50")},
	}

	bare := mockProduct("PROD100", "30.00")

	allMockProducts := []models.Product{withHistory, bare}

	testCases := []struct {
		name               string
		productID          string
		mockRepoSetup      func() *MockProductRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
		checkRepoCall      func(t *testing.T, repo *MockProductRepo)
	}{
		{
			name:      "Success with price history",
			productID: "PROD001",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp ProductDetail
				err := json.NewDecoder(rec.Body).Decode(&resp)
				require.NoError(t, err)
				assert.Equal(t, "PROD001", resp.ID)
				assert.Equal(t, 3.50, resp.Price)
				assert.Equal(t, "2L", resp.Size)
				assert.Equal(t, []string{"dairy", "milk"}, resp.Categories)
				require.NotNil(t, resp.UnitPrice)
				assert.Equal(t, 1.75, *resp.UnitPrice)
				assert.Equal(t, "L", resp.UnitName)
				require.NotNil(t, resp.OriginalUnitQuantity)
				assert.Equal(t, 2.0, *resp.OriginalUnitQuantity)
				require.Len(t, resp.PriceHistory, 2)
				assert.Equal(t, 3.99, resp.PriceHistory[0].Price)
				assert.True(t, resp.PriceHistory[1].Date.Equal(checked))
			},
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, "PROD001", repo.lastCalledID)
			},
		},
		{
			name:      "Product without unit fields or history",
			productID: "PROD100",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp map[string]any
				err := json.NewDecoder(rec.Body).Decode(&resp)
				require.NoError(t, err)
				assert.Equal(t, "PROD100", resp["id"])
				assert.Nil(t, resp["unitPrice"])
				assert.NotContains(t, resp, "size")
				assert.Equal(t, []any{}, resp["priceHistory"])
				assert.Equal(t, []any{}, resp["categories"])
			},
		},
		{
			name:      "Product not found",
			productID: "NONEXISTENT",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusNotFound,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "Product not found", errResp["error"])
			},
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, "NONEXISTENT", repo.lastCalledID)
			},
		},
		{
			name:      "Repository internal error",
			productID: "PROD-ERR",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{Err: errors.New("db connection lost")}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "Failed to retrieve product", errResp["error"])
			},
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, "PROD-ERR", repo.lastCalledID)
			},
		},
		{
			name:      "Empty product id in path",
			productID: "",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusNotFound,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "Product not found", errResp["error"])
			},
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, "", repo.lastCalledID, "GetByID should not be called")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			handler := NewCatalogHandler(mockRepo)
			req := httptest.NewRequest("GET", "/products/"+tc.productID, nil)
			req.SetPathValue("id", tc.productID)
			rec := httptest.NewRecorder()

			// Act
			handler.HandleGetProduct(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)

			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}

			if tc.checkRepoCall != nil {
				tc.checkRepoCall(t, mockRepo)
			}
		})
	}
}
