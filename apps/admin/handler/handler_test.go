package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-storefront/internal/event"
	"go-storefront/internal/model"
	"go-storefront/internal/repository"
	"go-storefront/internal/search"
	"go-storefront/internal/service"
	"go-storefront/internal/testutil"
	"go-storefront/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code   int               `json:"code"`
	Msg    string            `json:"msg"`
	Data   json.RawMessage   `json:"data"`
	Fields map[string]string `json:"fields"`
}

type testApp struct {
	router *gin.Engine
	db     *gorm.DB
	events *event.MemoryPublisher
	staff  *model.User
}

func newTestApp(t *testing.T) *testApp {
	db := testutil.DB(t)
	_, rdb := testutil.Redis(t)
	log := zap.NewNop()
	events := &event.MemoryPublisher{}
	tokens := jwt.NewManager("test-secret", time.Hour, "test")

	h := New(
		service.NewAdminService(db, search.NewDBSearcher(db), log),
		service.NewOrderService(repository.NewOrderRepo(db), events, log),
		service.NewAccountService(repository.NewUserRepo(db), tokens, service.NewRedisDenylist(rdb), log),
		log,
	)

	testutil.Category(t, db, "tea", "Tea")
	testutil.Product(t, db, testutil.ProductSpec{SKU: "SKU-A", Title: "Green Tea", Price: "10.00", Category: "tea", Stock: []int{5}})
	return &testApp{
		router: NewRouter(h, RouterOptions{}),
		db:     db,
		events: events,
		staff:  testutil.User(t, db, "staffer", model.RoleStaff),
	}
}

func (a *testApp) do(t *testing.T, token, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (a *testApp) login(t *testing.T, username string) string {
	t.Helper()
	code, env := a.do(t, "", http.MethodPost, "/admin/login/", gin.H{"username": username, "password": testutil.Password})
	require.Equal(t, http.StatusOK, code, env.Msg)
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	return body.Token
}

func (a *testApp) placeOrder(t *testing.T, sku string, qty int) *model.Order {
	t.Helper()
	addr := model.Address{
		FirstName: "Ana", LastName: "Cruz", Address: "1 Mango Ave", City: "Cebu",
		Province: "Cebu", Region: "VII", Zip: "6000", Phone: "+639171234567",
	}
	o := &model.Order{
		OrderNo:     fmt.Sprintf("order-%s-%d", sku, qty),
		Status:      model.OrderNew,
		Billing:     addr,
		Shipping:    addr,
		DeliveryFee: testutil.Money("3.00"),
		Items: []model.OrderItem{
			{ProductSKU: &sku, UnitPrice: testutil.Money("10.00"), Quantity: qty},
		},
	}
	require.NoError(t, a.db.Create(o).Error)
	return o
}

func TestAdminRequiresStaff(t *testing.T) {
	app := newTestApp(t)
	testutil.User(t, app.db, "shopper", model.RoleUser)

	code, _ := app.do(t, "", http.MethodGet, "/admin/", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = app.do(t, "", http.MethodPost, "/admin/login/", gin.H{"username": "shopper", "password": testutil.Password})
	assert.Equal(t, http.StatusForbidden, code)

	token := app.login(t, "staffer")
	code, env := app.do(t, token, http.MethodGet, "/admin/", nil)
	require.Equal(t, http.StatusOK, code)
	var d struct {
		Products int64 `json:"products"`
		Users    int64 `json:"users"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.Equal(t, int64(1), d.Products)
	assert.Equal(t, int64(2), d.Users)

	code, _ = app.do(t, token, http.MethodPost, "/admin/logout/", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = app.do(t, token, http.MethodGet, "/admin/", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAdminProducts(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t, "staffer")
	loc := testutil.Location(t, app.db, "Warehouse")

	code, env := app.do(t, token, http.MethodPost, "/admin/products/", gin.H{
		"sku": "SKU-N", "title": "Oolong", "category_slug": "tea",
		"unit_cost": "2.00", "unit_price": "6.50", "is_enabled": true,
		"images": []string{"oolong.jpg"},
		"inventory": []gin.H{{"location_id": loc.ID, "units_in_stock": 4}},
	})
	require.Equal(t, http.StatusCreated, code, env.Msg)

	code, env = app.do(t, token, http.MethodPost, "/admin/products/", gin.H{
		"sku": "SKU-X", "title": "No images", "unit_cost": "1", "unit_price": "1",
		"inventory": []gin.H{{"location_id": loc.ID, "units_in_stock": 1}},
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Fields, "images")

	code, env = app.do(t, token, http.MethodGet, "/admin/products/?search=oolong&enabled=true", nil)
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Products []service.ProductRow `json:"products"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Products, 1)
	assert.Equal(t, "oolong.jpg", list.Products[0].FirstImage)
	assert.Equal(t, 4, list.Products[0].AvailableStock)

	code, _ = app.do(t, token, http.MethodGet, "/admin/products/?enabled=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = app.do(t, token, http.MethodPut, "/admin/products/SKU-N/inventory/", gin.H{"location_id": loc.ID, "units_in_stock": 9})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []int{9}, testutil.Stock(t, app.db, "SKU-N"))

	code, _ = app.do(t, token, http.MethodDelete, "/admin/products/SKU-N/", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = app.do(t, token, http.MethodGet, "/admin/products/SKU-N/", nil)
	assert.Equal(t, http.StatusNotFound, code)

	// 已下单的商品不能删除
	app.placeOrder(t, "SKU-A", 1)
	code, _ = app.do(t, token, http.MethodDelete, "/admin/products/SKU-A/", nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestAdminRebuildSearchIndex(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t, "staffer")

	code, env := app.do(t, token, http.MethodPost, "/admin/search/reindex/", nil)
	require.Equal(t, http.StatusOK, code, env.Msg)
	var body struct {
		Indexed int `json:"indexed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, 1, body.Indexed)
}

func TestAdminCategorySlugImmutable(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t, "staffer")

	code, _ := app.do(t, token, http.MethodPut, "/admin/categories/tea/", gin.H{"slug": "teas", "name": "Teas"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = app.do(t, token, http.MethodPut, "/admin/categories/tea/", gin.H{"slug": "tea", "name": "Teas"})
	assert.Equal(t, http.StatusOK, code)

	code, _ = app.do(t, token, http.MethodPost, "/admin/categories/", gin.H{"slug": "Bad Slug", "name": "x"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAdminOrders(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t, "staffer")
	o := app.placeOrder(t, "SKU-A", 2)
	path := fmt.Sprintf("/admin/orders/%d/", o.ID)

	code, env := app.do(t, token, http.MethodGet, "/admin/orders/?status=NEW", nil)
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Orders []service.OrderRow `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Orders, 1)
	assert.Equal(t, "23.00", list.Orders[0].Total)

	code, _ = app.do(t, token, http.MethodGet, "/admin/orders/?status=LOST", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = app.do(t, token, http.MethodPut, path+"status/", gin.H{"status": "DONE"})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Fields, "status")

	code, env = app.do(t, token, http.MethodPut, path+"status/", gin.H{"status": "PROCESSING"})
	require.Equal(t, http.StatusOK, code, env.Msg)
	var detail struct {
		Status       string   `json:"status"`
		NextStatuses []string `json:"next_statuses"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "PROCESSING", detail.Status)
	assert.Equal(t, []string{"DELIVERING", "CANCELLED"}, detail.NextStatuses)
	require.Len(t, app.events.Events(), 1)
	assert.Equal(t, event.OrderStatusChangedKey, app.events.Events()[0].RoutingKey)

	code, _ = app.do(t, token, http.MethodGet, "/admin/orders/999/", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = app.do(t, token, http.MethodGet, "/admin/orders/abc/", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAdminUsers(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t, "staffer")
	shopper := testutil.User(t, app.db, "shopper", model.RoleUser)

	code, _ := app.do(t, token, http.MethodPut, fmt.Sprintf("/admin/users/%d/active/", app.staff.ID), gin.H{"is_active": false})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = app.do(t, token, http.MethodPut, fmt.Sprintf("/admin/users/%d/active/", shopper.ID), gin.H{"is_active": false})
	require.Equal(t, http.StatusOK, code)
	code, _ = app.do(t, "", http.MethodPost, "/admin/login/", gin.H{"username": "shopper", "password": testutil.Password})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = app.do(t, token, http.MethodPut, fmt.Sprintf("/admin/users/%d/role/", shopper.ID), gin.H{"role": "root"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, env := app.do(t, token, http.MethodPut, fmt.Sprintf("/admin/users/%d/role/", shopper.ID), gin.H{"role": "staff"})
	require.Equal(t, http.StatusOK, code)
	var u model.User
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, model.RoleStaff, u.Role)
}

func TestAdminAccessFollowsStoredUser(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t, "staffer")
	other := testutil.User(t, app.db, "manager", model.RoleStaff)
	otherToken := app.login(t, "manager")

	code, _ := app.do(t, otherToken, http.MethodGet, "/admin/", nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = app.do(t, token, http.MethodPut, fmt.Sprintf("/admin/users/%d/role/", other.ID), gin.H{"role": "user"})
	require.Equal(t, http.StatusOK, code)
	code, _ = app.do(t, otherToken, http.MethodGet, "/admin/", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = app.do(t, token, http.MethodPut, fmt.Sprintf("/admin/users/%d/role/", other.ID), gin.H{"role": "staff"})
	require.Equal(t, http.StatusOK, code)
	code, _ = app.do(t, token, http.MethodPut, fmt.Sprintf("/admin/users/%d/active/", other.ID), gin.H{"is_active": false})
	require.Equal(t, http.StatusOK, code)
	code, _ = app.do(t, otherToken, http.MethodGet, "/admin/", nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestAdminWishlistSearch(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t, "staffer")
	shopper := testutil.User(t, app.db, "shopper", model.RoleUser)
	require.NoError(t, app.db.Create(&model.WishlistItem{UserID: shopper.ID, ProductSKU: "SKU-A"}).Error)

	code, env := app.do(t, token, http.MethodGet, "/admin/wishlist/?search=green", nil)
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Items []service.WishlistRow `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Last shopper, First shopper", list.Items[0].User)
	assert.Equal(t, "Green Tea", list.Items[0].ProductTitle)
}
