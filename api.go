package blockpress

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/blockpress/content"
)

func (a *App) handleAPIList(c echo.Context) error {
	page := queryInt(c, "page", 1)
	perPage := min(queryInt(c, "per_page", a.Config.PostsPerPage), a.Config.APIMaxPerPage)

	res, err := a.Blog.ListPosts(c.Request().Context(), page, perPage)
	if err != nil {
		return err
	}
	posts := res.Posts
	if posts == nil {
		posts = []content.PostSummary{}
	}
	return c.JSON(http.StatusOK, apiPostList{
		Posts: posts,
		Pagination: apiPagination{
			Page:       res.Page,
			PerPage:    res.PerPage,
			Total:      res.Total,
			TotalPages: res.TotalPages,
		},
	})
}

func (a *App) handleAPIPost(c echo.Context) error {
	post, err := a.Blog.GetPost(c.Request().Context(), c.Param("slug"))
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, apiError{Error: "Post not found"})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}
