package httpserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

// productFilter reads the listing filters from the query string.
func productFilter(c echo.Context) (repo.ProductFilter, error) {
	f := repo.ProductFilter{
		InStock:   c.QueryParam("inStock") == "true",
		Search:    c.QueryParam("search"),
		SortBy:    c.QueryParam("sortBy"),
		SortOrder: c.QueryParam("sortOrder"),
	}
	if v := c.QueryParam("category"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, fmt.Errorf("category: %w", err)
		}
		f.CategoryID = &id
	}
	if v := c.QueryParam("seller"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, fmt.Errorf("seller: %w", err)
		}
		f.SellerID = &id
	}
	for param, dst := range map[string]**decimal.Decimal{"minPrice": &f.MinPrice, "maxPrice": &f.MaxPrice} {
		v := c.QueryParam(param)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, fmt.Errorf("%s: %w", param, err)
		}
		*dst = &d
	}
	if v := c.QueryParam("rating"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, fmt.Errorf("rating: %w", err)
		}
		f.MinRating = &r
	}
	return f, nil
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list_products")

	filter, err := productFilter(c)
	if err != nil {
		return badRequest(l, "list_products_failed", "invalid filter", err)
	}
	page := pageFrom(c, util.ProductPageSize)

	total, items, err := h.Svc.ListProducts(ctx, filter, page)
	if err != nil {
		return fail(l, "list_products_failed", err)
	}
	return paged(c, items, total, page)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search_products")

	page := pageFrom(c, util.ProductPageSize)
	total, items, err := h.Svc.Search(ctx, c.QueryParam("q"), page)
	if err != nil {
		return fail(l, "search_products_failed", err)
	}
	return paged(c, items, total, page)
}

func (h *CatalogHTTP) Featured(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.featured")

	items, err := h.Svc.Featured(ctx)
	if err != nil {
		return fail(l, "featured_products_failed", err)
	}
	return c.JSON(http.StatusOK, transport.OK(items))
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "get_product_failed", "invalid product id", err)
	}
	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, transport.OK(product))
}

func (h *CatalogHTTP) SellerProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.seller_products")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	page := pageFrom(c, util.DefaultPageSize)
	total, items, err := h.Svc.SellerProducts(ctx, actor, page)
	if err != nil {
		return fail(l, "seller_products_failed", err)
	}
	return paged(c, items, total, page)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_product_failed", "invalid body", err)
	}
	product, err := h.Svc.CreateProduct(ctx, actor, req)
	if err != nil {
		return fail(l, "create_product_failed", err)
	}

	l.Info("create_product_success", "product_id", product.ID, "sku", product.SKU)
	return c.JSON(http.StatusCreated, transport.OK(product))
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update_product")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "update_product_failed", "invalid product id", err)
	}
	var req transport.UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_product_failed", "invalid body", err)
	}
	product, err := h.Svc.UpdateProduct(ctx, actor, id, req)
	if err != nil {
		return fail(l, "update_product_failed", err)
	}
	return c.JSON(http.StatusOK, transport.OK(product))
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "delete_product_failed", "invalid product id", err)
	}
	if err := h.Svc.DeleteProduct(ctx, actor, id); err != nil {
		return fail(l, "delete_product_failed", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.JSON(http.StatusOK, transport.Message("product deleted"))
}
