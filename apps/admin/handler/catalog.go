package handler

import (
	"go-storefront/internal/repository"
	"go-storefront/internal/service"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

// ---- 分类 ----

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.admin.ListCategories(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, gin.H{"categories": categories})
}

func (h *Handler) GetCategory(c *gin.Context) {
	category, err := h.admin.GetCategory(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, category)
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req service.CategoryInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	category, err := h.admin.CreateCategory(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Created(c, category)
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	var req service.CategoryInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	category, err := h.admin.UpdateCategory(c.Request.Context(), c.Param("slug"), req)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, category)
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	if err := h.admin.DeleteCategory(c.Request.Context(), c.Param("slug")); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, nil)
}

// ---- 地点 ----

func (h *Handler) ListLocations(c *gin.Context) {
	locations, err := h.admin.ListLocations(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, gin.H{"locations": locations})
}

func (h *Handler) GetLocation(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	loc, err := h.admin.GetLocation(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, loc)
}

func (h *Handler) CreateLocation(c *gin.Context) {
	var req service.LocationInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	loc, err := h.admin.CreateLocation(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Created(c, loc)
}

func (h *Handler) UpdateLocation(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	var req service.LocationInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	loc, err := h.admin.UpdateLocation(c.Request.Context(), id, req)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, loc)
}

func (h *Handler) DeleteLocation(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	if err := h.admin.DeleteLocation(c.Request.Context(), id); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, nil)
}

// ---- 商品 ----

// ListProducts ?search= 匹配标题或 SKU, ?enabled=true|false 过滤上架状态
func (h *Handler) ListProducts(c *gin.Context) {
	enabled, err := optionalBool(c, "enabled")
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	rows, err := h.admin.ListProducts(c.Request.Context(), repository.AdminProductQuery{
		Search:  c.Query("search"),
		Enabled: enabled,
	})
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, gin.H{"products": rows})
}

func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.admin.GetProduct(c.Request.Context(), c.Param("sku"))
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, p)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req service.ProductInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	p, err := h.admin.CreateProduct(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Created(c, p)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	var req service.ProductUpdateInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	p, err := h.admin.UpdateProduct(c.Request.Context(), c.Param("sku"), req)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, p)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.admin.DeleteProduct(c.Request.Context(), c.Param("sku")); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, nil)
}

func (h *Handler) AddImage(c *gin.Context) {
	var req service.ImageInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	img, err := h.admin.AddImage(c.Request.Context(), c.Param("sku"), req)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Created(c, img)
}

func (h *Handler) DeleteImage(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	if err := h.admin.DeleteImage(c.Request.Context(), c.Param("sku"), id); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, nil)
}

func (h *Handler) ListInventory(c *gin.Context) {
	rows, err := h.admin.ListInventory(c.Request.Context(), c.Param("sku"))
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, gin.H{"inventory": rows})
}

// SetStock 设置某地点的库存数量, 没有库存行时新建
func (h *Handler) SetStock(c *gin.Context) {
	var req service.InventoryInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	inv, err := h.admin.SetStock(c.Request.Context(), c.Param("sku"), req)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, inv)
}

// RebuildSearchIndex 重建商品搜索索引
func (h *Handler) RebuildSearchIndex(c *gin.Context) {
	n, err := h.admin.RebuildSearchIndex(c.Request.Context())
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, gin.H{"indexed": n})
}
