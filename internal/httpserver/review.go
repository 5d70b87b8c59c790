package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/internal/util"
)

type ReviewHTTP struct {
	Svc *service.ReviewService
}

func (h *ReviewHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.list")

	productID, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "list_reviews_failed", "invalid product id", err)
	}
	page := pageFrom(c, util.DefaultPageSize)
	total, items, err := h.Svc.List(ctx, productID, page)
	if err != nil {
		return fail(l, "list_reviews_failed", err)
	}
	return paged(c, items, total, page)
}

func (h *ReviewHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.create")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	productID, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "create_review_failed", "invalid product id", err)
	}
	var req transport.CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_review_failed", "invalid body", err)
	}
	rev, err := h.Svc.Create(ctx, actor.UserID, productID, req)
	if err != nil {
		return fail(l, "create_review_failed", err)
	}

	l.Info("create_review_success", "review_id", rev.ID, "product_id", productID)
	return c.JSON(http.StatusCreated, transport.OK(rev))
}

func (h *ReviewHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.update")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "update_review_failed", "invalid review id", err)
	}
	var req transport.UpdateReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_review_failed", "invalid body", err)
	}
	rev, err := h.Svc.Update(ctx, actor, id, req)
	if err != nil {
		return fail(l, "update_review_failed", err)
	}
	return c.JSON(http.StatusOK, transport.OK(rev))
}

func (h *ReviewHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.delete")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "delete_review_failed", "invalid review id", err)
	}
	if err := h.Svc.Delete(ctx, actor, id); err != nil {
		return fail(l, "delete_review_failed", err)
	}
	return c.JSON(http.StatusOK, transport.Message("review deleted"))
}

func (h *ReviewHTTP) Moderate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.moderate")

	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "moderate_review_failed", "invalid review id", err)
	}
	var req transport.ModerateReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "moderate_review_failed", "invalid body", err)
	}
	rev, err := h.Svc.Moderate(ctx, actor, id, req)
	if err != nil {
		return fail(l, "moderate_review_failed", err)
	}

	l.Info("moderate_review_success", "review_id", id, "status", rev.Status)
	return c.JSON(http.StatusOK, transport.OK(rev))
}

func (h *ReviewHTTP) Helpful(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.helpful")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "helpful_review_failed", "invalid review id", err)
	}
	rev, err := h.Svc.MarkHelpful(ctx, id)
	if err != nil {
		return fail(l, "helpful_review_failed", err)
	}
	return c.JSON(http.StatusOK, transport.OK(rev))
}
