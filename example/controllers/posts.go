// Package controllers holds the HTTP actions of the example blog.
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/pypehq/pype"
	"github.com/pypehq/pype/example/models"
	"github.com/pypehq/pype/pkg/model"
	"github.com/pypehq/pype/pkg/query"
	"github.com/pypehq/pype/pkg/storage"
)

const perPage = 10

var postRules = map[string]string{
	"title": "required|max:200",
	"body":  "required",
}

// coverRules mirror the accepted image formats; the type is checked on the
// bytes as well as the name.
var coverRules = storage.WithValidation(
	storage.MaxSize(2<<20),
	storage.AllowedExtensions("jpg", "jpeg", "png", "gif", "webp"),
	storage.ImageOnly(),
)

// PostController serves the posts resource. Register it under
// "PostController" and point routes at "PostController@index" and friends.
// Posts may carry a cover image kept in covers.
type PostController struct {
	posts  *model.Model
	covers storage.Storage
}

func NewPostController(db *query.DB, covers storage.Storage) *PostController {
	return &PostController{posts: models.Posts(db), covers: covers}
}

func (pc *PostController) Action(name string) (pype.HandlerFunc, bool) {
	return pype.Actions{
		"index":   pc.index,
		"show":    pc.show,
		"create":  pc.create,
		"store":   pc.store,
		"edit":    pc.edit,
		"update":  pc.update,
		"destroy": pc.destroy,
	}.Action(name)
}

func (pc *PostController) index(c pype.Context) error {
	page, err := pc.posts.Query().Latest("id").Paginate(c, perPage, pype.QueryDefault(c, "page", 1))
	if err != nil {
		return err
	}
	if c.WantsJSON() {
		return c.JSON(http.StatusOK, page)
	}
	status, _ := c.Flash("status")
	return c.View(http.StatusOK, "posts.index", map[string]any{
		"title":  "Posts",
		"page":   page,
		"status": status,
		"user":   c.UserID(),
	})
}

func (pc *PostController) show(c pype.Context) error {
	post, err := pc.posts.FindOrFail(c, pype.Param[int64](c, "id"))
	if err != nil {
		return err
	}
	if c.WantsJSON() {
		return c.JSON(http.StatusOK, post)
	}
	cover, err := pc.coverURL(c, post.String("cover"))
	if err != nil {
		return err
	}
	status, _ := c.Flash("status")
	return c.View(http.StatusOK, "posts.show", map[string]any{
		"title":  post.String("title"),
		"post":   post.ToMap(),
		"cover":  cover,
		"status": status,
		"owner":  pc.owns(c, post),
		"user":   c.UserID(),
	})
}

func (pc *PostController) create(c pype.Context) error {
	return pc.form(c, nil)
}

func (pc *PostController) store(c pype.Context) error {
	data, ok, err := pc.validate(c)
	if err != nil || !ok {
		return err
	}

	uid, err := strconv.ParseInt(c.UserID(), 10, 64)
	if err != nil {
		return pype.ErrForbidden("Unknown user", pype.WithError(err))
	}
	data["user_id"] = uid

	post, err := pc.posts.Create(c, data)
	if err != nil {
		return err
	}
	c.LogInfo("post created", "post_id", post.ID())

	if c.WantsJSON() {
		return c.JSON(http.StatusCreated, post)
	}
	return pc.redirectTo(c, post.ID(), "Post created.")
}

func (pc *PostController) edit(c pype.Context) error {
	post, err := pc.owned(c)
	if err != nil {
		return err
	}
	return pc.form(c, post)
}

func (pc *PostController) update(c pype.Context) error {
	post, err := pc.owned(c)
	if err != nil {
		return err
	}
	data, ok, err := pc.validate(c)
	if err != nil || !ok {
		return err
	}
	old := post.String("cover")
	if err := post.Fill(data).Save(c); err != nil {
		return err
	}
	if _, replaced := data["cover"]; replaced {
		pc.dropCover(c, old)
	}

	if c.WantsJSON() {
		return c.JSON(http.StatusOK, post)
	}
	return pc.redirectTo(c, post.ID(), "Post updated.")
}

func (pc *PostController) destroy(c pype.Context) error {
	post, err := pc.owned(c)
	if err != nil {
		return err
	}
	if err := post.Remove(c); err != nil {
		return err
	}
	pc.dropCover(c, post.String("cover"))

	if c.WantsJSON() {
		return c.NoContent(http.StatusNoContent)
	}
	if err := c.SetFlash("status", "Post deleted."); err != nil {
		return err
	}
	u, err := c.URL("posts.index", nil)
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, u)
}

// validate reports ok=false after it has already answered the request with
// the validation errors. A valid request also stores the cover upload.
func (pc *PostController) validate(c pype.Context) (map[string]any, bool, error) {
	res, err := c.Validate(postRules)
	if err != nil {
		return nil, false, err
	}
	errs := res.Errors()
	if res.Passes() {
		data := map[string]any{"title": c.Input("title"), "body": c.Input("body")}
		key, err := pc.storeCover(c)
		ve, invalid := storage.AsValidationError(err)
		switch {
		case invalid:
			errs = map[string][]string{"cover": {ve.Message}}
		case err != nil:
			return nil, false, err
		default:
			if key != "" {
				data["cover"] = key
			}
			return data, true, nil
		}
	}

	if c.WantsJSON() {
		return nil, false, c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"message": "The given data was invalid.",
			"errors":  errs,
		})
	}
	if err := c.SetFlash("errors", errs); err != nil {
		return nil, false, err
	}
	if err := c.SetFlash("old", map[string]any{"title": c.Form("title"), "body": c.Form("body")}); err != nil {
		return nil, false, err
	}
	return nil, false, c.Back("/posts")
}

// storeCover saves the optional "cover" upload and returns its key, or ""
// when none was sent.
func (pc *PostController) storeCover(c pype.Context) (string, error) {
	if pc.covers == nil {
		return "", nil
	}
	_, fh, err := c.FormFile("cover")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if fh.Size == 0 {
		return "", nil
	}
	info, err := storage.PutFile(c, pc.covers, fh, storage.WithPrefix("covers"), coverRules)
	if err != nil {
		return "", err
	}
	c.LogInfo("cover stored", "key", info.Key, "type", info.ContentType, "size", info.Size)
	return info.Key, nil
}

func (pc *PostController) coverURL(c pype.Context, key string) (string, error) {
	if key == "" || pc.covers == nil {
		return "", nil
	}
	return pc.covers.URL(c, key)
}

// dropCover removes a replaced or orphaned cover. Failures are logged.
func (pc *PostController) dropCover(c pype.Context, key string) {
	if key == "" || pc.covers == nil {
		return
	}
	if err := pc.covers.Delete(c, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		c.LogWarn("delete cover", "key", key, "error", err)
	}
}

func (pc *PostController) form(c pype.Context, post *model.Record) error {
	errs, _ := c.Flash("errors")
	old, _ := c.Flash("old")

	data := map[string]any{
		"title":  "New post",
		"errors": errs,
		"old":    old,
		"action": "/posts",
		"user":   c.UserID(),
	}
	if post != nil {
		data["title"] = "Edit post"
		data["post"] = post.ToMap()
		data["action"] = "/posts/" + post.String("id")
		if old == nil {
			data["old"] = post.ToMap()
		}
	}
	return c.View(http.StatusOK, "posts.form", data)
}

func (pc *PostController) owned(c pype.Context) (*model.Record, error) {
	post, err := pc.posts.FindOrFail(c, pype.Param[int64](c, "id"))
	if err != nil {
		return nil, err
	}
	if !pc.owns(c, post) {
		return nil, pype.ErrForbidden("This post belongs to someone else")
	}
	return post, nil
}

func (pc *PostController) owns(c pype.Context, post *model.Record) bool {
	uid := c.UserID()
	return uid != "" && post.String("user_id") == uid
}

func (pc *PostController) redirectTo(c pype.Context, id any, status string) error {
	if err := c.SetFlash("status", status); err != nil {
		return err
	}
	u, err := c.URL("posts.show", map[string]any{"id": id})
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, u)
}
