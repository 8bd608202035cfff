package handlers

import "github.com/gofiber/fiber/v2"

const perPage = 25

func pageParams(c *fiber.Ctx) (page, limit, offset int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", perPage)
	if limit < 1 || limit > 100 {
		limit = perPage
	}
	return page, limit, (page - 1) * limit
}

func pagedJSON(c *fiber.Ctx, key string, items any, total, page, limit int) error {
	pages := (total + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}
	return c.JSON(fiber.Map{
		key:     items,
		"total": total,
		"page":  page,
		"pages": pages,
	})
}
