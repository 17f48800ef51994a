package httpx

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"blog/internal/app"
	"blog/internal/auth"
	"blog/internal/store"
	"blog/internal/util"
)

const maxUploadBytes = 10 << 20

func postURL(id int64) string {
	return "/posts/" + strconv.FormatInt(id, 10) + "/"
}

func (s *Server) handlePostDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.notFound(w, r)
		return
	}
	ctx := r.Context()
	post, err := s.Store.PostByID(ctx, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	comments, err := s.Store.CommentsForPost(ctx, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	postsCount, err := s.Store.CountPostsByAuthor(ctx, post.AuthorID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	uid, _ := auth.UserIDFrom(ctx)
	s.render(w, r, http.StatusOK, "posts/post_detail.html", util.Context{
		"post":        post,
		"title":       post.String(),
		"comments":    comments,
		"posts_count": postsCount,
		"can_edit":    uid != 0 && uid == post.AuthorID,
	})
}

type postForm struct {
	Text  string `json:"text"`
	Group string `json:"group"`
}

// readPostForm parses a create/edit submission. An uploaded image is saved
// right away; the returned cleanup removes it again if the post is not
// written.
func (s *Server) readPostForm(r *http.Request) (postForm, store.PostInput, func(), error) {
	noop := func() {}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return postForm{}, store.PostInput{}, noop, &store.ValidationError{Field: "image", Message: "could not read upload"}
	}
	form := postForm{
		Text:  r.FormValue("text"),
		Group: strings.TrimSpace(r.FormValue("group")),
	}
	in := store.PostInput{Text: form.Text}

	if form.Group != "" {
		gid, err := strconv.ParseInt(form.Group, 10, 64)
		if err != nil {
			return form, in, noop, &store.ValidationError{Field: "group", Message: "select a valid group"}
		}
		in.GroupID = &gid
	}

	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return form, in, noop, nil
	}
	if err != nil {
		return form, in, noop, &store.ValidationError{Field: "image", Message: "could not read upload"}
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return form, in, noop, errors.Wrap(err, "read upload")
	}
	rel, err := store.SaveImage(s.Cfg.MediaDir, data)
	if err != nil {
		return form, in, noop, err
	}
	in.Image = rel
	cleanup := func() {
		if err := os.Remove(filepath.Join(s.Cfg.MediaDir, filepath.FromSlash(rel))); err != nil {
			app.Log.WithError(err).WithField("image", rel).Warn("could not remove unused upload")
		}
	}
	return form, in, cleanup, nil
}

// renderPostForm shows the create/edit form, with field errors when err is
// a ValidationError.
func (s *Server) renderPostForm(w http.ResponseWriter, r *http.Request, status int, form postForm, postID int64, err error) {
	groups, gerr := s.Store.Groups(r.Context())
	if gerr != nil {
		s.fail(w, r, gerr)
		return
	}
	fieldErrors := map[string]string{}
	var verr *store.ValidationError
	if errors.As(err, &verr) {
		fieldErrors[verr.Field] = verr.Message
	}
	data := util.Context{
		"form":    form,
		"errors":  fieldErrors,
		"groups":  groups,
		"is_edit": postID != 0,
	}
	if postID != 0 {
		data["post_id"] = postID
	}
	s.render(w, r, status, "posts/create_post.html", data)
}

func (s *Server) handlePostCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.renderPostForm(w, r, http.StatusOK, postForm{}, 0, nil)
		return
	}

	ctx := r.Context()
	uid, _ := auth.UserIDFrom(ctx)
	form, in, cleanup, err := s.readPostForm(r)
	if err == nil {
		_, err = s.Store.CreatePost(ctx, uid, in)
		if err != nil {
			cleanup()
		}
	}
	var verr *store.ValidationError
	if errors.As(err, &verr) {
		s.renderPostForm(w, r, http.StatusBadRequest, form, 0, err)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	u, err := s.Store.UserByID(ctx, uid)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	app.Log.WithField("uid", uid).Info("post created")
	http.Redirect(w, r, profileURL(u.Username), http.StatusFound)
}

func (s *Server) handlePostEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.notFound(w, r)
		return
	}
	ctx := r.Context()
	uid, _ := auth.UserIDFrom(ctx)

	if r.Method != http.MethodPost {
		post, err := s.Store.PostByID(ctx, id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if post.AuthorID != uid {
			http.Redirect(w, r, postURL(id), http.StatusFound)
			return
		}
		form := postForm{Text: post.Text}
		if post.GroupID != nil {
			form.Group = strconv.FormatInt(*post.GroupID, 10)
		}
		s.renderPostForm(w, r, http.StatusOK, form, id, nil)
		return
	}

	form, in, cleanup, err := s.readPostForm(r)
	if err == nil {
		_, err = s.Store.UpdatePost(ctx, uid, id, in)
		if err != nil {
			cleanup()
		}
	}
	var verr *store.ValidationError
	switch {
	case err == nil:
		http.Redirect(w, r, postURL(id), http.StatusFound)
	case errors.Is(err, store.ErrForbidden):
		http.Redirect(w, r, postURL(id), http.StatusFound)
	case errors.As(err, &verr):
		s.renderPostForm(w, r, http.StatusBadRequest, form, id, err)
	default:
		s.fail(w, r, err)
	}
}

func (s *Server) handlePostDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.notFound(w, r)
		return
	}
	ctx := r.Context()
	uid, _ := auth.UserIDFrom(ctx)

	err := s.Store.DeletePost(ctx, uid, id)
	if errors.Is(err, store.ErrForbidden) {
		http.Redirect(w, r, postURL(id), http.StatusFound)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.Store.UserByID(ctx, uid)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, profileURL(u.Username), http.StatusFound)
}

// handleAddComment stores a comment and returns to the post. An empty
// comment is dropped without an error page.
func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.notFound(w, r)
		return
	}
	uid, _ := auth.UserIDFrom(r.Context())

	_, err := s.Store.CreateComment(r.Context(), id, uid, r.FormValue("text"))
	var verr *store.ValidationError
	if err != nil && !errors.As(err, &verr) {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, postURL(id), http.StatusFound)
}

func (s *Server) handleCommentDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.notFound(w, r)
		return
	}
	uid, _ := auth.UserIDFrom(r.Context())

	c, err := s.Store.DeleteComment(r.Context(), uid, id)
	if err != nil && !errors.Is(err, store.ErrForbidden) {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, postURL(c.PostID), http.StatusFound)
}
