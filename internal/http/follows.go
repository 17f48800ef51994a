package httpx

import (
	"net/http"
	"net/url"

	"blog/internal/auth"
)

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func (s *Server) handleProfileFollow(w http.ResponseWriter, r *http.Request) {
	s.changeFollow(w, r, true)
}

func (s *Server) handleProfileUnfollow(w http.ResponseWriter, r *http.Request) {
	s.changeFollow(w, r, false)
}

func (s *Server) changeFollow(w http.ResponseWriter, r *http.Request, follow bool) {
	ctx := r.Context()
	uid, _ := auth.UserIDFrom(ctx)
	author, err := s.Store.UserByUsername(ctx, r.PathValue("username"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if follow {
		err = s.Follows.Follow(ctx, uid, author.ID)
	} else {
		err = s.Follows.Unfollow(ctx, uid, author.ID)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, profileURL(author.Username), http.StatusFound)
}
