package httpx

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"blog/internal/app"
	"blog/internal/auth"
	"blog/internal/cache"
	"blog/internal/feed"
	"blog/internal/follow"
	"blog/internal/models"
	"blog/internal/paginate"
	"blog/internal/store"
	"blog/internal/util"
)

const (
	LoginURL       = "/auth/login/"
	indexCacheName = "index_page"
)

type Server struct {
	DB      *gorm.DB
	Cfg     app.Config
	Mux     *http.ServeMux
	Store   *store.Store
	Feeds   *feed.Composer
	Follows *follow.Manager
	Cache   cache.PageCache
	Render  util.Renderer

	handler http.Handler
}

func NewServer(db *gorm.DB, cfg app.Config, pc cache.PageCache, render util.Renderer) *Server {
	st := store.New(db)
	s := &Server{
		DB:      db,
		Cfg:     cfg,
		Mux:     http.NewServeMux(),
		Store:   st,
		Feeds:   feed.NewComposer(st),
		Follows: follow.NewManager(st),
		Cache:   pc,
		Render:  render,
	}
	media := http.FileServer(http.Dir(cfg.MediaDir))
	s.Mux.Handle("GET /media/", http.StripPrefix("/media/", media))

	public := func(h http.HandlerFunc) http.Handler { return s.withSession(h) }
	private := func(h http.HandlerFunc) http.Handler { return s.withSession(s.requireAuth(h)) }

	s.Mux.Handle("GET /{$}", s.withSession(s.cachePage(indexCacheName, http.HandlerFunc(s.handleIndex))))
	s.Mux.Handle("GET /group/{slug}/{$}", public(s.handleGroupPosts))
	s.Mux.Handle("GET /profile/{username}/{$}", public(s.handleProfile))
	s.Mux.Handle("GET /posts/{id}/{$}", public(s.handlePostDetail))

	s.Mux.Handle("GET /follow/{$}", private(s.handleFollowIndex))
	s.Mux.Handle("POST /profile/{username}/follow/{$}", private(s.handleProfileFollow))
	s.Mux.Handle("POST /profile/{username}/unfollow/{$}", private(s.handleProfileUnfollow))
	s.Mux.Handle("/create/{$}", private(s.handlePostCreate))
	s.Mux.Handle("/posts/{id}/edit/{$}", private(s.handlePostEdit))
	s.Mux.Handle("POST /posts/{id}/delete/{$}", private(s.handlePostDelete))
	s.Mux.Handle("POST /posts/{id}/comment/{$}", private(s.handleAddComment))
	s.Mux.Handle("POST /comments/{id}/delete/{$}", private(s.handleCommentDelete))

	s.Mux.Handle("/auth/signup/{$}", public(s.handleSignup))
	s.Mux.Handle(LoginURL+"{$}", public(s.handleLogin))
	s.Mux.Handle("POST /auth/logout/{$}", public(s.handleLogout))

	s.Mux.Handle("/", public(s.notFound))

	s.handler = WithAccessLog(s.Mux)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }

// render writes a full page. The body is rendered into memory first so a
// template error still produces a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data util.Context) {
	if data == nil {
		data = util.Context{}
	}
	s.fillUserMeta(r, data)

	var buf bytes.Buffer
	if err := s.Render.Render(&buf, name, data); err != nil {
		app.Log.WithError(err).WithField("template", name).Error("render failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", s.Render.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) fillUserMeta(r *http.Request, data util.Context) {
	uid, ok := auth.UserIDFrom(r.Context())
	if !ok {
		return
	}
	data["user_id"] = uid
	if u, err := s.Store.UserByID(r.Context(), uid); err == nil {
		data["username"] = u.Username
	}
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "core/404.html", util.Context{"path": r.URL.Path})
}

// fail maps domain errors onto responses. Forbidden is handled by the
// callers since it redirects to a page they know.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, paginate.ErrOutOfRange):
		s.notFound(w, r)
	default:
		app.Log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (s *Server) page(r *http.Request, posts []models.Post) (paginate.Page[models.Post], error) {
	return paginate.Paginate(posts, s.Cfg.PostsPerPage, paginate.ParsePageNumber(r.URL.Query().Get("page")))
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}
